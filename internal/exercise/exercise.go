// Package exercise holds the automation functions: each receives a model
// version from a Context, inspects it and reports annotations plus a run
// status back through the same Context.
//
// The functions build on each other: commenting on one random displayable
// object, commenting on several with an index gradient, validating a single
// property per category and finally applying an external rule file.
package exercise

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"

	"modelcheck/internal/annotate"
	"modelcheck/internal/logging"
	"modelcheck/internal/model"
	"modelcheck/internal/resolve"
	"modelcheck/internal/rules"
)

// Function names, used as run labels in the store.
const (
	NameCommentRandom    = "comment-random"
	NameCommentMany      = "comment-many"
	NameValidateProperty = "validate-property"
	NameApplyRules       = "apply-rules"
)

// Names maps the numbered exercises to function names.
var Names = []string{NameCommentRandom, NameCommentMany, NameValidateProperty, NameApplyRules}

// MsgNoDisplayable is the failure reported when a version has nothing to
// comment on.
const MsgNoDisplayable = "Automation failed: No displayable objects found."

// Runner carries what the functions share. The zero value is usable.
type Runner struct {
	// Rand picks objects to comment on. Nil means a randomly seeded source.
	Rand *rand.Rand
	// Rules is passed to rules.Evaluate by ApplyRules.
	Rules rules.Options
	// EmptyValues overrides rules.DefaultEmptyValues for ValidateProperty.
	EmptyValues []model.Value
	// FuzzyThreshold is given to fuzzy rules that set none.
	FuzzyThreshold float64
	Logger         *slog.Logger
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return logging.New("exercise")
}

func (r *Runner) rng() *rand.Rand {
	if r.Rand == nil {
		r.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return r.Rand
}

func (r *Runner) flatten(ctx context.Context, c Context) ([]*model.Node, error) {
	root, err := c.ReceiveVersion(ctx)
	if err != nil {
		return nil, err
	}
	nodes := model.Flatten(root)
	r.logger().Debug("version received", slog.String("root", root.ID), slog.Int("objects", len(nodes)))
	return nodes, nil
}

// CommentRandom attaches the comment phrase to one random object that has
// display values of its own. It returns the selected identifier, or "" when
// nothing was displayable (the run is then marked failed).
func (r *Runner) CommentRandom(ctx context.Context, c Context, in CommentRandomInputs) (string, error) {
	if err := checkInputs(in); err != nil {
		return "", err
	}
	nodes, err := r.flatten(ctx, c)
	if err != nil {
		return "", err
	}

	var displayable []*model.Node
	for _, n := range nodes {
		if resolve.HasOwnDisplay(n) {
			displayable = append(displayable, n)
		}
	}
	if len(displayable) == 0 {
		return "", c.MarkRunFailed(ctx, MsgNoDisplayable)
	}

	pick := displayable[r.rng().IntN(len(displayable))]
	err = c.AttachInfo(ctx, annotate.Annotation{
		Category:  "Selected Object",
		ObjectIDs: []string{pick.ID},
		Message:   in.CommentPhrase,
	})
	if err != nil {
		return "", err
	}
	return pick.ID, c.MarkRunSucceeded(ctx, "Added a comment to a random object.")
}

// CommentMany attaches the comment phrase to min(NumberOfElements,
// available) distinct displayable objects, counting instances whose
// definition is displayable. A second annotation carries a gradient over
// the selection order. It returns the selected identifiers in that order.
func (r *Runner) CommentMany(ctx context.Context, c Context, in CommentManyInputs) ([]string, error) {
	if err := checkInputs(in); err != nil {
		return nil, err
	}
	nodes, err := r.flatten(ctx, c)
	if err != nil {
		return nil, err
	}

	displayable := resolve.Displayable(nodes)
	if len(displayable) == 0 {
		return nil, c.MarkRunFailed(ctx, MsgNoDisplayable)
	}

	k := min(in.NumberOfElements, len(displayable))
	perm := r.rng().Perm(len(displayable))[:k]
	ids := make([]string, k)
	gradient := make(map[string]any, k)
	for i, p := range perm {
		ids[i] = displayable[p].ID
		gradient[ids[i]] = map[string]any{"gradientValue": i + 1}
	}

	err = c.AttachInfo(ctx, annotate.Annotation{
		Category:  "Selected Objects",
		ObjectIDs: ids,
		Message:   in.CommentPhrase,
	})
	if err != nil {
		return nil, err
	}
	err = c.AttachInfo(ctx, annotate.Annotation{
		Category:  "Index Visualisation",
		ObjectIDs: ids,
		Message:   "Object Indexes",
		Metadata: map[string]any{
			"gradient":       true,
			"gradientValues": gradient,
		},
	})
	if err != nil {
		return nil, err
	}
	return ids, c.MarkRunSucceeded(ctx, fmt.Sprintf("Added comment to %d random objects.", k))
}

// ValidateProperty checks one property on every object of one category.
// Objects without the property are errors and fail the run; empty or
// default values are warnings; the rest are reported as info.
func (r *Runner) ValidateProperty(ctx context.Context, c Context, in ValidatePropertyInputs) (rules.PropertyCheck, error) {
	if err := checkInputs(in); err != nil {
		return rules.PropertyCheck{}, err
	}
	nodes, err := r.flatten(ctx, c)
	if err != nil {
		return rules.PropertyCheck{}, err
	}

	pc := rules.CheckProperty(nodes, in.Category, in.Property, r.EmptyValues)
	log := r.logger()
	for _, id := range pc.Valid {
		log.Debug("valid property value",
			slog.String("object", id),
			slog.String("property", in.Property),
			slog.String("value", pc.Values[id].Text()),
		)
	}
	log.Info("property checked",
		slog.String("category", in.Category),
		slog.String("property", in.Property),
		slog.Int("total", pc.Total),
		slog.Int("missing", len(pc.Missing)),
		slog.Int("invalid", len(pc.Invalid)),
	)
	return pc, annotate.PublishPropertyCheck(ctx, c, pc)
}

// ApplyRules loads the rule file, evaluates it against the flattened
// version and publishes the report. A rule file that cannot be read fails
// the run without returning an error; so does an empty rule set.
func (r *Runner) ApplyRules(ctx context.Context, c Context, in ApplyRulesInputs) (*rules.Report, error) {
	if err := checkInputs(in); err != nil {
		return nil, err
	}
	nodes, err := r.flatten(ctx, c)
	if err != nil {
		return nil, err
	}

	rs, err := rules.LoadFile(in.RulesPath)
	if err != nil {
		r.logger().Error("rules not loaded", slog.String("path", in.RulesPath), slog.Any("error", err))
		return nil, c.MarkRunFailed(ctx, fmt.Sprintf("Failed to read rules from %s: %v", in.RulesPath, err))
	}

	if r.FuzzyThreshold > 0 {
		rules.SetFuzzyThreshold(rs, r.FuzzyThreshold)
	}

	opts := r.Rules
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
	report, err := rules.Evaluate(ctx, nodes, rs, opts)
	if err != nil {
		return nil, err
	}
	return report, annotate.Publish(ctx, c, report)
}
