package rules

import (
	"fmt"
	"sort"
)

// Status is the overall verdict of a run.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Report is the result of one evaluation pass.
type Report struct {
	Nodes   int          `json:"nodes"`
	Results []RuleResult `json:"results"`
}

// Err returns ErrEmptyRuleSet for a pass that evaluated no rules.
func (r *Report) Err() error {
	if len(r.Results) == 0 {
		return ErrEmptyRuleSet
	}
	return nil
}

// BySeverity aggregates failing identifiers across all rules. A missing
// property is always reported at error severity, whatever the rule says;
// invalid and inapplicable nodes are reported at the rule's severity.
// Each identifier appears once per severity, sorted.
func (r *Report) BySeverity() map[Severity][]string {
	sets := make(map[Severity]map[string]bool)
	add := func(s Severity, ids []string) {
		if len(ids) == 0 {
			return
		}
		if sets[s] == nil {
			sets[s] = make(map[string]bool)
		}
		for _, id := range ids {
			sets[s][id] = true
		}
	}
	for _, res := range r.Results {
		add(SeverityError, res.Missing)
		add(res.Rule.Severity, res.Invalid)
		add(res.Rule.Severity, res.IDs(OutcomeInapplicable))
	}

	out := make(map[Severity][]string, len(sets))
	for s, set := range sets {
		ids := make([]string, 0, len(set))
		for id := range set {
			ids = append(ids, id)
		}
		sort.Strings(ids)
		out[s] = ids
	}
	return out
}

// Counts totals each outcome across all rules.
func (r *Report) Counts() map[Outcome]int {
	out := make(map[Outcome]int, len(Outcomes))
	for _, res := range r.Results {
		out[OutcomeValid] += len(res.Valid)
		out[OutcomeInvalid] += len(res.Invalid)
		out[OutcomeMissing] += len(res.Missing)
		out[OutcomeInapplicable] += len(res.Inapplicable)
	}
	return out
}

// Status is failed when no rules ran or when any error-severity set is
// non-empty; otherwise succeeded. Warnings and info never fail a run.
func (r *Report) Status() Status {
	if r.Err() != nil {
		return StatusFailed
	}
	if len(r.BySeverity()[SeverityError]) > 0 {
		return StatusFailed
	}
	return StatusSucceeded
}

// Summary is the human-readable status line for the run.
func (r *Report) Summary() string {
	if err := r.Err(); err != nil {
		return fmt.Sprintf("Validation failed: %v were supplied, nothing was checked.", err)
	}
	bySev := r.BySeverity()
	counts := r.Counts()
	considered := 0
	for _, res := range r.Results {
		considered += res.Considered()
	}
	if r.Status() == StatusFailed {
		return fmt.Sprintf(
			"Validation failed: %d objects with errors (%d missing properties) after %d checks of %d rules over %d objects.",
			len(bySev[SeverityError]), counts[OutcomeMissing], considered, len(r.Results), r.Nodes)
	}
	return fmt.Sprintf(
		"Successfully applied %d rules to %d objects out of %d total objects (%d warnings, %d info).",
		len(r.Results), considered, r.Nodes, len(bySev[SeverityWarning]), len(bySev[SeverityInfo]))
}
