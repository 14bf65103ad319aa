// Package mcp exposes rule evaluation and property checks as MCP tools.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"modelcheck/internal/annotate"
	"modelcheck/internal/display"
	"modelcheck/internal/logging"
	"modelcheck/internal/model"
	"modelcheck/internal/predicate"
	"modelcheck/internal/rules"
	"modelcheck/internal/store"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// Server wraps the MCP SDK server. Store is optional; when set, every
// evaluation is persisted as a run.
type Server struct {
	MCPServer *sdkmcp.Server
	Store     store.Store
	// Rules is passed to rules.Evaluate.
	Rules rules.Options
	// EmptyValues overrides rules.DefaultEmptyValues for check_property.
	EmptyValues []model.Value
	// FuzzyThreshold is given to fuzzy rules that set none. Zero leaves
	// the predicate default.
	FuzzyThreshold float64

	logger *slog.Logger
}

// NewServer creates an MCP server with the rule tools registered.
func NewServer(st store.Store) *Server {
	s := &Server{Store: st, logger: logging.New("mcp")}
	s.MCPServer = sdkmcp.NewServer(
		&sdkmcp.Implementation{Name: "modelcheck", Version: "dev"},
		nil,
	)
	s.registerTools()
	return s
}

// Run serves over stdio until ctx is canceled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "evaluate_rules",
		Description: "Evaluate a rule set (YAML or JSON) against a model version (JSON). Returns per-rule valid/invalid/missing/inapplicable object ids and the overall status.",
	}, s.handleEvaluateRules)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "check_property",
		Description: "Check that every object of a category carries a non-empty value for a property.",
	}, s.handleCheckProperty)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "list_predicates",
		Description: "List the predicate kinds a rule can use and the operands each one reads.",
	}, s.handleListPredicates)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "list_runs",
		Description: "List persisted runs, newest first. Empty when the server has no store.",
	}, s.handleListRuns)
}

// --- Tool input/output types ---

type evaluateRulesInput struct {
	VersionJSON string `json:"version_json,omitempty" jsonschema:"model version as a JSON document"`
	VersionPath string `json:"version_path,omitempty" jsonschema:"path to a model version JSON file (used when version_json is empty)"`
	Rules       string `json:"rules,omitempty" jsonschema:"rule document, YAML or JSON, with a top-level rules list"`
	RulesPath   string `json:"rules_path,omitempty" jsonschema:"path to a rule file (used when rules is empty)"`
}

type ruleOutput struct {
	Rule         string               `json:"rule"`
	Severity     string               `json:"severity"`
	Message      string               `json:"message"`
	Valid        []string             `json:"valid"`
	Invalid      []string             `json:"invalid"`
	Missing      []string             `json:"missing"`
	Inapplicable []rules.Inapplicable `json:"inapplicable,omitempty"`
	Excluded     int                  `json:"excluded"`
}

type evaluateRulesOutput struct {
	Status     string              `json:"status"`
	Summary    string              `json:"summary"`
	Objects    int                 `json:"objects"`
	Rules      []ruleOutput        `json:"rules"`
	BySeverity map[string][]string `json:"by_severity"`
	RunID      string              `json:"run_id,omitempty"`
}

type checkPropertyInput struct {
	VersionJSON string `json:"version_json,omitempty" jsonschema:"model version as a JSON document"`
	VersionPath string `json:"version_path,omitempty" jsonschema:"path to a model version JSON file (used when version_json is empty)"`
	Category    string `json:"category" jsonschema:"category the objects must belong to, e.g. Walls"`
	Property    string `json:"property" jsonschema:"parameter name to check"`
}

type checkPropertyOutput struct {
	Status        string   `json:"status"`
	Summary       string   `json:"summary"`
	Total         int      `json:"total"`
	OutOfCategory int      `json:"out_of_category"`
	Missing       []string `json:"missing"`
	Invalid       []string `json:"invalid"`
	Valid         []string `json:"valid"`
	RunID         string   `json:"run_id,omitempty"`
}

type listPredicatesInput struct{}

type predicateInfo struct {
	Kind     string `json:"kind"`
	Name     string `json:"name"`
	Numeric  bool   `json:"numeric"`
	Operands string `json:"operands"`
}

type listPredicatesOutput struct {
	Predicates []predicateInfo `json:"predicates"`
}

type listRunsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of runs (0 = all)"`
}

type listRunsOutput struct {
	Runs []*store.Run `json:"runs"`
}

var operands = map[predicate.Kind]string{
	predicate.Equals:      "value",
	predicate.Matches:     "pattern (or value), fuzzy, threshold",
	predicate.GreaterThan: "value (number)",
	predicate.LessThan:    "value (number)",
	predicate.InRange:     "min, max, inclusive (default true)",
	predicate.InList:      "values",
	predicate.IsTrue:      "none",
	predicate.IsFalse:     "none",
}

// --- Tool handlers ---

func (s *Server) handleEvaluateRules(ctx context.Context, _ *sdkmcp.CallToolRequest, input evaluateRulesInput) (*sdkmcp.CallToolResult, evaluateRulesOutput, error) {
	root, err := loadVersion(input.VersionJSON, input.VersionPath)
	if err != nil {
		return nil, evaluateRulesOutput{}, fmt.Errorf("evaluate_rules: %w", err)
	}
	var rs []rules.Rule
	switch {
	case input.Rules != "":
		rs, err = rules.Load([]byte(input.Rules), "")
	case input.RulesPath != "":
		rs, err = rules.LoadFile(input.RulesPath)
	default:
		err = errors.New("one of rules or rules_path is required")
	}
	if err != nil {
		return nil, evaluateRulesOutput{}, fmt.Errorf("evaluate_rules: %w", err)
	}
	if s.FuzzyThreshold > 0 {
		rules.SetFuzzyThreshold(rs, s.FuzzyThreshold)
	}

	nodes := model.Flatten(root)
	report, err := rules.Evaluate(ctx, nodes, rs, s.Rules)
	if err != nil {
		return nil, evaluateRulesOutput{}, fmt.Errorf("evaluate_rules: %w", err)
	}

	runID, err := s.persist(ctx, "apply-rules", func(sink annotate.Sink) error {
		return annotate.Publish(ctx, sink, report)
	})
	if err != nil {
		return nil, evaluateRulesOutput{}, fmt.Errorf("evaluate_rules: %w", err)
	}

	out := evaluateRulesOutput{
		Status:     string(report.Status()),
		Summary:    report.Summary(),
		Objects:    report.Nodes,
		Rules:      make([]ruleOutput, 0, len(report.Results)),
		BySeverity: make(map[string][]string),
		RunID:      runID,
	}
	for sev, ids := range report.BySeverity() {
		out.BySeverity[string(sev)] = ids
	}
	for _, res := range report.Results {
		out.Rules = append(out.Rules, ruleOutput{
			Rule:         res.Rule.Name(),
			Severity:     string(res.Rule.Severity),
			Message:      res.Message,
			Valid:        nonNil(res.Valid),
			Invalid:      nonNil(res.Invalid),
			Missing:      nonNil(res.Missing),
			Inapplicable: res.Inapplicable,
			Excluded:     res.Excluded,
		})
	}
	s.logger.Info("evaluate_rules", slog.Int("rules", len(rs)), slog.Int("objects", len(nodes)), slog.String("status", out.Status))
	return nil, out, nil
}

func (s *Server) handleCheckProperty(ctx context.Context, _ *sdkmcp.CallToolRequest, input checkPropertyInput) (*sdkmcp.CallToolResult, checkPropertyOutput, error) {
	if input.Category == "" || input.Property == "" {
		return nil, checkPropertyOutput{}, errors.New("check_property: category and property are required")
	}
	root, err := loadVersion(input.VersionJSON, input.VersionPath)
	if err != nil {
		return nil, checkPropertyOutput{}, fmt.Errorf("check_property: %w", err)
	}

	pc := rules.CheckProperty(model.Flatten(root), input.Category, input.Property, s.EmptyValues)
	runID, err := s.persist(ctx, "validate-property", func(sink annotate.Sink) error {
		return annotate.PublishPropertyCheck(ctx, sink, pc)
	})
	if err != nil {
		return nil, checkPropertyOutput{}, fmt.Errorf("check_property: %w", err)
	}
	return nil, checkPropertyOutput{
		Status:        string(pc.Status()),
		Summary:       pc.Summary(),
		Total:         pc.Total,
		OutOfCategory: pc.OutOfCategory,
		Missing:       nonNil(pc.Missing),
		Invalid:       nonNil(pc.Invalid),
		Valid:         nonNil(pc.Valid),
		RunID:         runID,
	}, nil
}

func (s *Server) handleListPredicates(_ context.Context, _ *sdkmcp.CallToolRequest, _ listPredicatesInput) (*sdkmcp.CallToolResult, listPredicatesOutput, error) {
	out := listPredicatesOutput{Predicates: make([]predicateInfo, 0, len(predicate.Kinds))}
	for _, k := range predicate.Kinds {
		out.Predicates = append(out.Predicates, predicateInfo{
			Kind:     string(k),
			Name:     display.Predicate(string(k)),
			Numeric:  k.Numeric(),
			Operands: operands[k],
		})
	}
	return nil, out, nil
}

func (s *Server) handleListRuns(_ context.Context, _ *sdkmcp.CallToolRequest, input listRunsInput) (*sdkmcp.CallToolResult, listRunsOutput, error) {
	out := listRunsOutput{Runs: []*store.Run{}}
	if s.Store == nil {
		return nil, out, nil
	}
	runs, err := s.Store.ListRuns()
	if err != nil {
		return nil, listRunsOutput{}, fmt.Errorf("list_runs: %w", err)
	}
	if input.Limit > 0 && len(runs) > input.Limit {
		runs = runs[:input.Limit]
	}
	out.Runs = append(out.Runs, runs...)
	return nil, out, nil
}

// persist publishes into a new store run when a store is configured and
// returns its id; otherwise the results are only returned to the caller.
func (s *Server) persist(ctx context.Context, function string, publish func(annotate.Sink) error) (string, error) {
	if s.Store == nil {
		return "", publish(&annotate.MemorySink{})
	}
	sink, err := annotate.NewStoreSink(s.Store, function)
	if err != nil {
		return "", err
	}
	if err := publish(sink); err != nil {
		return "", err
	}
	return sink.RunID(), nil
}

func loadVersion(doc, path string) (*model.Node, error) {
	switch {
	case doc != "":
		return model.Decode([]byte(doc))
	case path != "":
		return model.DecodeFile(path)
	}
	return nil, errors.New("one of version_json or version_path is required")
}

func nonNil(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	return ids
}
