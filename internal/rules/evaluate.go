package rules

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"modelcheck/internal/logging"
	"modelcheck/internal/model"
	"modelcheck/internal/resolve"
)

// ErrEmptyRuleSet is reported when an evaluation is asked to run zero rules.
// Such a run fails: nothing was checked.
var ErrEmptyRuleSet = errors.New("no rules")

// Outcome is the classification of one node under one rule.
type Outcome string

const (
	OutcomeValid        Outcome = "valid"
	OutcomeInvalid      Outcome = "invalid"
	OutcomeMissing      Outcome = "missing"
	OutcomeInapplicable Outcome = "inapplicable"
)

// Outcomes lists the classifications in reporting order.
var Outcomes = []Outcome{OutcomeMissing, OutcomeInvalid, OutcomeInapplicable, OutcomeValid}

// Inapplicable records a predicate that could not be applied to a node.
type Inapplicable struct {
	ObjectID string `json:"object_id"`
	Reason   string `json:"reason"`
}

// RuleResult holds the classification of every node a rule considered.
// Identifier slices keep input order.
type RuleResult struct {
	Rule         Rule           `json:"rule"`
	Message      string         `json:"message"`
	Valid        []string       `json:"valid"`
	Invalid      []string       `json:"invalid"`
	Missing      []string       `json:"missing"`
	Inapplicable []Inapplicable `json:"inapplicable,omitempty"`
	// Excluded counts nodes filtered out by the rule's category.
	Excluded int `json:"excluded"`
}

// Considered is the number of nodes classified (excluded ones are not).
func (r RuleResult) Considered() int {
	return len(r.Valid) + len(r.Invalid) + len(r.Missing) + len(r.Inapplicable)
}

// Failing returns every identifier that does not satisfy the rule: missing,
// then invalid, then inapplicable.
func (r RuleResult) Failing() []string {
	out := make([]string, 0, len(r.Missing)+len(r.Invalid)+len(r.Inapplicable))
	out = append(out, r.Missing...)
	out = append(out, r.Invalid...)
	for _, ia := range r.Inapplicable {
		out = append(out, ia.ObjectID)
	}
	return out
}

// IDs returns the identifiers classified as o.
func (r RuleResult) IDs(o Outcome) []string {
	switch o {
	case OutcomeValid:
		return r.Valid
	case OutcomeInvalid:
		return r.Invalid
	case OutcomeMissing:
		return r.Missing
	case OutcomeInapplicable:
		out := make([]string, len(r.Inapplicable))
		for i, ia := range r.Inapplicable {
			out[i] = ia.ObjectID
		}
		return out
	}
	return nil
}

// Options tunes an evaluation pass.
type Options struct {
	// Parallel bounds how many rules are evaluated concurrently. Values
	// below 1 mean serial evaluation.
	Parallel int
	// Default is the "unset" sentinel passed to the resolver.
	Default model.Value
	// Metrics, when set, receives evaluation counters.
	Metrics *Metrics
	// Logger defaults to the "rules" component logger.
	Logger *slog.Logger
}

// Evaluate applies every rule to every node. Rules are independent and may
// run concurrently; results are returned in rule order and node order. A
// predicate error for one node is recorded on that node and never stops the
// pass. The only error returned is ctx's.
func Evaluate(ctx context.Context, nodes []*model.Node, rules []Rule, opts Options) (*Report, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.New("rules")
	}

	report := &Report{Nodes: len(nodes), Results: make([]RuleResult, len(rules))}
	if len(rules) == 0 {
		logger.Warn("evaluation requested with an empty rule set", slog.Int("nodes", len(nodes)))
		opts.Metrics.observeRun(report)
		return report, nil
	}

	parallel := opts.Parallel
	if parallel < 1 {
		parallel = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallel)
	for i := range rules {
		g.Go(func() error {
			res, err := evaluateRule(gctx, nodes, rules[i], opts.Default)
			if err != nil {
				return err
			}
			report.Results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("rules: evaluate: %w", err)
	}

	for _, res := range report.Results {
		logger.Debug("rule evaluated",
			slog.String("rule", res.Rule.Name()),
			slog.String("severity", string(res.Rule.Severity)),
			slog.Int("valid", len(res.Valid)),
			slog.Int("invalid", len(res.Invalid)),
			slog.Int("missing", len(res.Missing)),
			slog.Int("inapplicable", len(res.Inapplicable)),
			slog.Int("excluded", res.Excluded),
		)
		opts.Metrics.observeRule(res)
	}
	opts.Metrics.observeRun(report)

	status := report.Status()
	logger.Info("evaluation finished",
		slog.Int("rules", len(rules)),
		slog.Int("nodes", len(nodes)),
		slog.String("status", string(status)),
	)
	return report, nil
}

// Classify applies one rule to one node. The error is non-nil only for
// OutcomeInapplicable.
func Classify(n *model.Node, r Rule, def model.Value) (Outcome, error) {
	if !resolve.Has(n, r.Property) {
		return OutcomeMissing, nil
	}
	v, _ := resolve.Resolve(n, r.Property, def)
	ok, err := r.Apply(v)
	if err != nil {
		return OutcomeInapplicable, err
	}
	if ok {
		return OutcomeValid, nil
	}
	return OutcomeInvalid, nil
}

func evaluateRule(ctx context.Context, nodes []*model.Node, r Rule, def model.Value) (RuleResult, error) {
	res := RuleResult{Rule: r, Message: r.RenderMessage()}
	for _, n := range nodes {
		if err := ctx.Err(); err != nil {
			return RuleResult{}, err
		}
		if n == nil || n.ID == "" {
			continue
		}
		if !r.appliesTo(n) {
			res.Excluded++
			continue
		}
		outcome, err := Classify(n, r, def)
		switch outcome {
		case OutcomeMissing:
			res.Missing = append(res.Missing, n.ID)
		case OutcomeInvalid:
			res.Invalid = append(res.Invalid, n.ID)
		case OutcomeInapplicable:
			res.Inapplicable = append(res.Inapplicable, Inapplicable{ObjectID: n.ID, Reason: err.Error()})
		case OutcomeValid:
			res.Valid = append(res.Valid, n.ID)
		}
	}
	return res, nil
}
