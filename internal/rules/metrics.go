package rules

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts evaluation activity. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	rules    *prometheus.CounterVec
	outcomes *prometheus.CounterVec
	runs     *prometheus.CounterVec
}

// NewMetrics creates the evaluator counters and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		rules: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "modelcheck",
			Name:      "rules_evaluated_total",
			Help:      "Rules evaluated, by severity.",
		}, []string{"severity"}),
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "modelcheck",
			Name:      "classifications_total",
			Help:      "Node classifications, by rule severity and outcome.",
		}, []string{"severity", "outcome"}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "modelcheck",
			Name:      "runs_total",
			Help:      "Evaluation passes, by final status.",
		}, []string{"status"}),
	}
	reg.MustRegister(m.rules, m.outcomes, m.runs)
	return m
}

func (m *Metrics) observeRule(res RuleResult) {
	if m == nil {
		return
	}
	sev := string(res.Rule.Severity)
	m.rules.WithLabelValues(sev).Inc()
	for _, o := range Outcomes {
		if n := len(res.IDs(o)); n > 0 {
			m.outcomes.WithLabelValues(sev, string(o)).Add(float64(n))
		}
	}
}

func (m *Metrics) observeRun(r *Report) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(string(r.Status())).Inc()
}
