package annotate

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"modelcheck/internal/model"
	"modelcheck/internal/predicate"
	"modelcheck/internal/rules"
	"modelcheck/internal/store"
)

func evaluate(t *testing.T, nodes []*model.Node, rs ...rules.Rule) *rules.Report {
	t.Helper()
	report, err := rules.Evaluate(context.Background(), nodes, rs, rules.Options{})
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	return report
}

func TestPublish_RuleReport(t *testing.T) {
	nodes := []*model.Node{
		model.NewNode("A").Set("category", "Wall").Set("height", 4),
		model.NewNode("B").Set("height", "tall"),
		model.NewNode("C").Set("category", "Floor").Set("height", 1),
	}
	report := evaluate(t, nodes,
		rules.Rule{Number: 1, Property: "category", Predicate: predicate.EqualTo("Wall"),
			Severity: rules.SeverityError, Message: "{property} must be {value}"},
		rules.Rule{Number: 2, Property: "height", Predicate: predicate.Greater(2),
			Severity: rules.SeverityWarning},
	)

	sink := &MemorySink{}
	if err := Publish(context.Background(), sink, report); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	type got struct {
		Level, Category, Message string
		IDs                      []string
	}
	var entries []got
	for _, e := range sink.Entries() {
		entries = append(entries, got{e.Level, e.Category, e.Message, e.ObjectIDs})
	}
	want := []got{
		{"error", "Rule 1: category (missing)", "Missing property category", []string{"B"}},
		{"error", "Rule 1: category", "category must be Wall", []string{"C"}},
		{"warning", "Rule 2: height", "height does not satisfy greater_than 2", []string{"C"}},
		{"warning", "Rule 2: height (inapplicable)", "greater_than 2 could not be applied to height", []string{"B"}},
	}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Errorf("entries (-want +got):\n%s", diff)
	}

	reasons := sink.Entries()[3].Metadata["reasons"].(map[string]any)
	if _, ok := reasons["B"]; !ok {
		t.Errorf("reasons = %v, want entry for B", reasons)
	}

	status, msg := sink.Status()
	if status != store.RunFailed {
		t.Errorf("status = %q, want failed", status)
	}
	if msg != report.Summary() {
		t.Errorf("message = %q, want report summary", msg)
	}
}

func TestPublish_EmptyRuleSetFails(t *testing.T) {
	sink := &MemorySink{}
	report := evaluate(t, []*model.Node{model.NewNode("a")})
	if err := Publish(context.Background(), sink, report); err != nil {
		t.Fatalf("Publish: %v", err)
	}
	if status, _ := sink.Status(); status != store.RunFailed {
		t.Errorf("status = %q, want failed", status)
	}
	if len(sink.Entries()) != 0 {
		t.Errorf("entries = %v, want none", sink.Entries())
	}
}

func TestPublishPropertyCheck(t *testing.T) {
	nodes := []*model.Node{
		model.NewNode("w1").Set("category", "Walls").Set("Mark", "A1"),
		model.NewNode("w2").Set("category", "Walls").Set("Mark", ""),
	}
	pc := rules.CheckProperty(nodes, "Walls", "Mark", nil)
	sink := &MemorySink{}
	if err := PublishPropertyCheck(context.Background(), sink, pc); err != nil {
		t.Fatalf("PublishPropertyCheck: %v", err)
	}

	if w := sink.Level(store.LevelWarning); len(w) != 1 || w[0].Category != "Invalid Property Walls Objects" {
		t.Errorf("warnings = %+v", w)
	}
	if i := sink.Level(store.LevelInfo); len(i) != 1 || i[0].Message != "This Walls has valid values for the property Mark" {
		t.Errorf("info = %+v", i)
	}
	if len(sink.Level(store.LevelError)) != 0 {
		t.Error("unexpected error annotations")
	}
	status, msg := sink.Status()
	if status != store.RunSucceeded || msg != "Found 1 objects with empty/default values out of 2 total Walls objects." {
		t.Errorf("status = %q %q", status, msg)
	}
}

func TestMemorySink_RejectsUseAfterFinish(t *testing.T) {
	ctx := context.Background()
	sink := &MemorySink{}
	if err := sink.MarkRunSucceeded(ctx, "done"); err != nil {
		t.Fatal(err)
	}
	if err := sink.AttachInfo(ctx, Annotation{Category: "late"}); !errors.Is(err, ErrRunFinished) {
		t.Errorf("AttachInfo after finish = %v, want ErrRunFinished", err)
	}
	if err := sink.MarkRunFailed(ctx, "again"); !errors.Is(err, ErrRunFinished) {
		t.Errorf("second mark = %v, want ErrRunFinished", err)
	}
}

func TestStoreSink_TeedWithMemory(t *testing.T) {
	ctx := context.Background()
	st := store.NewMemStore()
	ss, err := NewStoreSink(st, "apply-rules")
	if err != nil {
		t.Fatalf("NewStoreSink: %v", err)
	}
	mem := &MemorySink{}
	sink := Tee(ss, mem)

	meta := map[string]any{"gradient": true}
	if err := sink.AttachInfo(ctx, Annotation{Category: "Selected Objects", ObjectIDs: []string{"x", "y"}, Metadata: meta}); err != nil {
		t.Fatal(err)
	}
	if err := sink.MarkRunFailed(ctx, "nope"); err != nil {
		t.Fatal(err)
	}

	run, err := st.GetRun(ss.RunID())
	if err != nil || run == nil {
		t.Fatalf("GetRun = %v, %v", run, err)
	}
	if run.Status != store.RunFailed || run.Message != "nope" || run.Function != "apply-rules" {
		t.Errorf("run = %+v", run)
	}
	anns, err := st.ListAnnotations(ss.RunID())
	if err != nil {
		t.Fatal(err)
	}
	if len(anns) != 1 || anns[0].Level != store.LevelInfo {
		t.Fatalf("annotations = %+v", anns)
	}
	if diff := cmp.Diff([]string{"x", "y"}, anns[0].ObjectIDs); diff != "" {
		t.Errorf("ObjectIDs (-want +got):\n%s", diff)
	}
	if len(mem.Entries()) != 1 {
		t.Errorf("memory sink got %d entries, want 1", len(mem.Entries()))
	}

	ctxDone, cancel := context.WithCancel(ctx)
	cancel()
	if err := ss.AttachError(ctxDone, Annotation{}); !errors.Is(err, context.Canceled) {
		t.Errorf("AttachError on canceled ctx = %v", err)
	}
}
