package format

import (
	"fmt"
	"strings"
	"time"

	"modelcheck/internal/display"
	"modelcheck/internal/rules"
	"modelcheck/internal/store"
)

// maxListedIDs bounds how many failing object ids a table cell shows.
const maxListedIDs = 5

// Report renders one table row per rule, then the run summary.
func Report(r *rules.Report, m Mode) string {
	tb := NewTable(m)
	tb.Title(fmt.Sprintf("%d rules over %d objects", len(r.Results), r.Nodes))
	tb.Header("Rule", "Predicate", "Severity", "Passed", "Failed", "Missing", "N/A", "Excluded", "Failing objects")
	tb.Columns(
		ColumnConfig{Number: 4, Align: AlignRight},
		ColumnConfig{Number: 5, Align: AlignRight},
		ColumnConfig{Number: 6, Align: AlignRight},
		ColumnConfig{Number: 7, Align: AlignRight},
		ColumnConfig{Number: 8, Align: AlignRight},
		ColumnConfig{Number: 9, MaxWidth: 60},
	)
	for _, res := range r.Results {
		tb.Row(
			res.Rule.Name(),
			Truncate(res.Rule.Predicate.String(), 40),
			display.Severity(string(res.Rule.Severity)),
			len(res.Valid),
			len(res.Invalid),
			len(res.Missing),
			len(res.Inapplicable),
			res.Excluded,
			display.ObjectIDs(res.Failing(), maxListedIDs),
		)
	}
	counts := r.Counts()
	tb.Footer("TOTAL", "", "",
		counts[rules.OutcomeValid],
		counts[rules.OutcomeInvalid],
		counts[rules.OutcomeMissing],
		counts[rules.OutcomeInapplicable],
		"", "")

	var b strings.Builder
	b.WriteString(tb.String())
	b.WriteString("\n\n")
	b.WriteString(statusLine(string(r.Status()), r.Summary()))
	b.WriteString("\n")
	return b.String()
}

// PropertyCheck renders the three buckets of a property check.
func PropertyCheck(pc rules.PropertyCheck, m Mode) string {
	tb := NewTable(m)
	tb.Title(fmt.Sprintf("%s on %s (%d objects, %d outside the category)",
		pc.Property, pc.Category, pc.Total, pc.OutOfCategory))
	tb.Header("Outcome", "Objects", "Share", "Identifiers")
	tb.Columns(
		ColumnConfig{Number: 2, Align: AlignRight},
		ColumnConfig{Number: 3, Align: AlignRight},
		ColumnConfig{Number: 4, MaxWidth: 60},
	)
	for _, row := range []struct {
		outcome rules.Outcome
		ids     []string
	}{
		{rules.OutcomeMissing, pc.Missing},
		{rules.OutcomeInvalid, pc.Invalid},
		{rules.OutcomeValid, pc.Valid},
	} {
		tb.Row(display.Outcome(string(row.outcome)), len(row.ids),
			FmtPercent(len(row.ids), pc.Total), display.ObjectIDs(row.ids, maxListedIDs))
	}
	return tb.String() + "\n\n" + statusLine(string(pc.Status()), pc.Summary()) + "\n"
}

// Runs renders a run listing, newest first as given.
func Runs(runs []*store.Run, m Mode) string {
	tb := NewTable(m)
	tb.Header("Run", "Function", "Status", "Started", "Took", "Message")
	tb.Columns(ColumnConfig{Number: 6, MaxWidth: 70})
	for _, r := range runs {
		tb.Row(
			shortID(r.ID),
			display.Function(r.Function),
			display.Status(r.Status),
			r.CreatedAt,
			took(r),
			Truncate(r.Message, 120),
		)
	}
	return tb.String()
}

// Annotations renders the annotations of one run.
func Annotations(anns []*store.Annotation, m Mode) string {
	tb := NewTable(m)
	tb.Header("Level", "Category", "Objects", "Message")
	tb.Columns(ColumnConfig{Number: 3, MaxWidth: 50}, ColumnConfig{Number: 4, MaxWidth: 70})
	for _, a := range anns {
		tb.Row(display.Severity(a.Level), a.Category, display.ObjectIDs(a.ObjectIDs, maxListedIDs), a.Message)
	}
	return tb.String()
}

func statusLine(status, summary string) string {
	return fmt.Sprintf("%s %s: %s", BoolMark(status == string(rules.StatusSucceeded)), display.Status(status), summary)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func took(r *store.Run) string {
	if r.FinishedAt == "" {
		return "-"
	}
	start, err1 := time.Parse(time.RFC3339Nano, r.CreatedAt)
	end, err2 := time.Parse(time.RFC3339Nano, r.FinishedAt)
	if err1 != nil || err2 != nil {
		return "-"
	}
	return FmtDuration(end.Sub(start))
}
