package rules

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"modelcheck/internal/model"
	"modelcheck/internal/predicate"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	nodes := []*model.Node{
		model.NewNode("a").Set("h", 5),
		model.NewNode("b").Set("h", 1),
		model.NewNode("c"),
	}
	rs := []Rule{
		rule(1, "h", predicate.Greater(2), SeverityError),
		rule(2, "h", predicate.Less(10), SeverityWarning),
	}
	if _, err := Evaluate(context.Background(), nodes, rs, Options{Metrics: m}); err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if _, err := Evaluate(context.Background(), nodes, nil, Options{Metrics: m}); err != nil {
		t.Fatalf("Evaluate empty: %v", err)
	}

	checks := []struct {
		name string
		c    prometheus.Collector
		want float64
	}{
		{"error rules", m.rules.WithLabelValues("error"), 1},
		{"warning rules", m.rules.WithLabelValues("warning"), 1},
		{"error valid", m.outcomes.WithLabelValues("error", "valid"), 1},
		{"error invalid", m.outcomes.WithLabelValues("error", "invalid"), 1},
		{"error missing", m.outcomes.WithLabelValues("error", "missing"), 1},
		{"warning valid", m.outcomes.WithLabelValues("warning", "valid"), 2},
		{"failed runs", m.runs.WithLabelValues("failed"), 2},
	}
	for _, c := range checks {
		if got := testutil.ToFloat64(c.c); got != c.want {
			t.Errorf("%s = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.observeRule(RuleResult{})
	m.observeRun(&Report{})
}
