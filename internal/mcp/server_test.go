package mcp_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	mcpserver "modelcheck/internal/mcp"
	"modelcheck/internal/store"

	"github.com/google/go-cmp/cmp"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

func TestMain(m *testing.M) {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	})))
	os.Exit(m.Run())
}

const versionDoc = `{"id": "root", "elements": [
	{"id": "w1", "category": "Walls", "Mark": "W1", "height": 3},
	{"id": "w2", "category": "Walls", "Mark": "Default", "height": 1.5},
	{"id": "w3", "category": "Walls"},
	{"id": "d1", "category": "Doors", "height": 2}
]}`

const ruleDoc = `
rules:
  - property: height
    predicate: greater_than
    value: 2
    severity: warning
    category: Walls
  - property: Mark
    predicate: matches
    pattern: "W\\d"
    severity: error
    category: Walls
`

func connectInMemory(t *testing.T, ctx context.Context, srv *mcpserver.Server) *sdkmcp.ClientSession {
	t.Helper()
	t1, t2 := sdkmcp.NewInMemoryTransports()
	serverSession, err := srv.MCPServer.Connect(ctx, t1, nil)
	if err != nil {
		t.Fatalf("server.Connect: %v", err)
	}
	t.Cleanup(func() { serverSession.Close() })

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "v0.0.1"}, nil)
	session, err := client.Connect(ctx, t2, nil)
	if err != nil {
		t.Fatalf("client.Connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })
	return session
}

// callTool invokes a tool and decodes its JSON text content into out.
// It returns the tool error text, or "" on success.
func callTool(t *testing.T, ctx context.Context, session *sdkmcp.ClientSession, name string, args map[string]any, out any) string {
	t.Helper()
	res, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
		Name:      name,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("CallTool(%s): %v", name, err)
	}
	for _, c := range res.Content {
		tc, ok := c.(*sdkmcp.TextContent)
		if !ok {
			continue
		}
		if res.IsError {
			return tc.Text
		}
		if err := json.Unmarshal([]byte(tc.Text), out); err != nil {
			t.Fatalf("unmarshal tool result: %v (text: %s)", err, tc.Text)
		}
		return ""
	}
	if res.IsError {
		return "error"
	}
	t.Fatalf("no text content in tool result")
	return ""
}

type ruleResult struct {
	Rule     string   `json:"rule"`
	Severity string   `json:"severity"`
	Valid    []string `json:"valid"`
	Invalid  []string `json:"invalid"`
	Missing  []string `json:"missing"`
	Excluded int      `json:"excluded"`
}

type evaluateResult struct {
	Status     string              `json:"status"`
	Summary    string              `json:"summary"`
	Objects    int                 `json:"objects"`
	Rules      []ruleResult        `json:"rules"`
	BySeverity map[string][]string `json:"by_severity"`
	RunID      string              `json:"run_id"`
}

func TestServer_ToolDiscovery(t *testing.T) {
	ctx := context.Background()
	session := connectInMemory(t, ctx, mcpserver.NewServer(nil))

	tools, err := session.ListTools(ctx, nil)
	if err != nil {
		t.Fatalf("ListTools: %v", err)
	}
	want := map[string]bool{
		"evaluate_rules":  false,
		"check_property":  false,
		"list_predicates": false,
		"list_runs":       false,
	}
	for _, tool := range tools.Tools {
		if _, ok := want[tool.Name]; ok {
			want[tool.Name] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("tool %q not found in ListTools", name)
		}
	}
}

func TestServer_EvaluateRules(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()
	session := connectInMemory(t, ctx, mcpserver.NewServer(st))

	var got evaluateResult
	if msg := callTool(t, ctx, session, "evaluate_rules", map[string]any{
		"version_json": versionDoc,
		"rules":        ruleDoc,
	}, &got); msg != "" {
		t.Fatalf("evaluate_rules failed: %s", msg)
	}

	if got.Status != "failed" {
		t.Errorf("status = %q, want failed", got.Status)
	}
	if got.Objects != 5 {
		t.Errorf("objects = %d, want 5", got.Objects)
	}
	want := []ruleResult{
		{Rule: "Rule 1: height", Severity: "warning", Valid: []string{"w1"}, Invalid: []string{"w2"}, Missing: []string{"w3"}, Excluded: 2},
		{Rule: "Rule 2: Mark", Severity: "error", Valid: []string{"w1"}, Invalid: []string{"w2"}, Missing: []string{"w3"}, Excluded: 2},
	}
	if diff := cmp.Diff(want, got.Rules); diff != "" {
		t.Errorf("rules (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"w2", "w3"}, got.BySeverity["error"]); diff != "" {
		t.Errorf("error ids (-want +got):\n%s", diff)
	}

	if got.RunID == "" {
		t.Fatal("expected a run id with a store configured")
	}
	run, err := st.GetRun(got.RunID)
	if err != nil || run == nil {
		t.Fatalf("GetRun: %v, %v", run, err)
	}
	if run.Status != store.RunFailed || run.Function != "apply-rules" {
		t.Errorf("run = %+v", run)
	}
	anns, err := st.ListAnnotations(got.RunID)
	if err != nil {
		t.Fatalf("ListAnnotations: %v", err)
	}
	if len(anns) == 0 {
		t.Error("expected annotations to be persisted")
	}
}

func TestServer_EvaluateRules_FromFiles(t *testing.T) {
	dir := t.TempDir()
	versionPath := filepath.Join(dir, "version.json")
	rulesPath := filepath.Join(dir, "rules.yaml")
	if err := os.WriteFile(versionPath, []byte(versionDoc), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(rulesPath, []byte(ruleDoc), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	session := connectInMemory(t, ctx, mcpserver.NewServer(nil))

	var got evaluateResult
	if msg := callTool(t, ctx, session, "evaluate_rules", map[string]any{
		"version_path": versionPath,
		"rules_path":   rulesPath,
	}, &got); msg != "" {
		t.Fatalf("evaluate_rules failed: %s", msg)
	}
	if len(got.Rules) != 2 {
		t.Errorf("got %d rule results, want 2", len(got.Rules))
	}
	if got.RunID != "" {
		t.Errorf("run id %q without a store", got.RunID)
	}
}

func TestServer_EvaluateRules_BadInput(t *testing.T) {
	ctx := context.Background()
	session := connectInMemory(t, ctx, mcpserver.NewServer(nil))

	cases := []struct {
		name string
		args map[string]any
	}{
		{"no version", map[string]any{"rules": ruleDoc}},
		{"no rules", map[string]any{"version_json": versionDoc}},
		{"bad json", map[string]any{"version_json": "[1, 2]", "rules": ruleDoc}},
		{"bad rule", map[string]any{"version_json": versionDoc, "rules": "rules:\n  - property: x\n    predicate: equals\n"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got evaluateResult
			if msg := callTool(t, ctx, session, "evaluate_rules", tc.args, &got); msg == "" {
				t.Errorf("expected a tool error, got %+v", got)
			}
		})
	}
}

func TestServer_EvaluateRules_FuzzyThreshold(t *testing.T) {
	fuzzyRule := `
rules:
  - property: Mark
    predicate: matches
    pattern: WX
    fuzzy: true
    severity: error
    category: Walls
`
	evaluate := func(threshold float64) evaluateResult {
		t.Helper()
		ctx := context.Background()
		srv := mcpserver.NewServer(nil)
		srv.FuzzyThreshold = threshold
		session := connectInMemory(t, ctx, srv)

		var got evaluateResult
		if msg := callTool(t, ctx, session, "evaluate_rules", map[string]any{
			"version_json": versionDoc,
			"rules":        fuzzyRule,
		}, &got); msg != "" {
			t.Fatalf("evaluate_rules failed: %s", msg)
		}
		return got
	}

	// "W1" against "WX" scores 0.5: below the 0.8 default, above 0.4.
	if got := evaluate(0).Rules[0].Valid; len(got) != 0 {
		t.Errorf("default threshold: valid = %v, want none", got)
	}
	if diff := cmp.Diff([]string{"w1"}, evaluate(0.4).Rules[0].Valid); diff != "" {
		t.Errorf("configured threshold: valid (-want +got):\n%s", diff)
	}
}

func TestServer_CheckProperty(t *testing.T) {
	ctx := context.Background()
	session := connectInMemory(t, ctx, mcpserver.NewServer(nil))

	var got struct {
		Status        string   `json:"status"`
		Total         int      `json:"total"`
		OutOfCategory int      `json:"out_of_category"`
		Missing       []string `json:"missing"`
		Invalid       []string `json:"invalid"`
		Valid         []string `json:"valid"`
	}
	if msg := callTool(t, ctx, session, "check_property", map[string]any{
		"version_json": versionDoc,
		"category":     "Walls",
		"property":     "Mark",
	}, &got); msg != "" {
		t.Fatalf("check_property failed: %s", msg)
	}
	if got.Status != "failed" || got.Total != 3 || got.OutOfCategory != 2 {
		t.Errorf("got %+v", got)
	}
	if diff := cmp.Diff([]string{"w3"}, got.Missing); diff != "" {
		t.Errorf("missing (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"w2"}, got.Invalid); diff != "" {
		t.Errorf("invalid (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"w1"}, got.Valid); diff != "" {
		t.Errorf("valid (-want +got):\n%s", diff)
	}
}

func TestServer_ListPredicates(t *testing.T) {
	ctx := context.Background()
	session := connectInMemory(t, ctx, mcpserver.NewServer(nil))

	var got struct {
		Predicates []struct {
			Kind    string `json:"kind"`
			Name    string `json:"name"`
			Numeric bool   `json:"numeric"`
		} `json:"predicates"`
	}
	if msg := callTool(t, ctx, session, "list_predicates", map[string]any{}, &got); msg != "" {
		t.Fatalf("list_predicates failed: %s", msg)
	}
	if len(got.Predicates) != 8 {
		t.Fatalf("got %d predicates, want 8", len(got.Predicates))
	}
	numeric := map[string]bool{}
	for _, p := range got.Predicates {
		numeric[p.Kind] = p.Numeric
	}
	if !numeric["in_range"] || numeric["equals"] {
		t.Errorf("numeric flags = %v", numeric)
	}
}

func TestServer_ListRuns(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()
	session := connectInMemory(t, ctx, mcpserver.NewServer(st))

	for range 3 {
		var res evaluateResult
		if msg := callTool(t, ctx, session, "evaluate_rules", map[string]any{
			"version_json": versionDoc,
			"rules":        ruleDoc,
		}, &res); msg != "" {
			t.Fatalf("evaluate_rules failed: %s", msg)
		}
	}

	var got struct {
		Runs []store.Run `json:"runs"`
	}
	if msg := callTool(t, ctx, session, "list_runs", map[string]any{"limit": 2}, &got); msg != "" {
		t.Fatalf("list_runs failed: %s", msg)
	}
	if len(got.Runs) != 2 {
		t.Fatalf("got %d runs, want 2", len(got.Runs))
	}
	for _, r := range got.Runs {
		if r.Status != store.RunFailed {
			t.Errorf("run %s status = %q", r.ID, r.Status)
		}
	}
}
