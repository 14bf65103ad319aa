package annotate

import (
	"context"
	"fmt"

	"modelcheck/internal/rules"
)

// Attach routes a to the sink method for sev.
func Attach(ctx context.Context, sink Sink, sev rules.Severity, a Annotation) error {
	switch sev {
	case rules.SeverityError:
		return sink.AttachError(ctx, a)
	case rules.SeverityWarning:
		return sink.AttachWarning(ctx, a)
	case rules.SeverityInfo:
		return sink.AttachInfo(ctx, a)
	}
	return fmt.Errorf("annotate: unknown severity %q", sev)
}

// Publish records a rule report. For each rule, missing objects are
// attached as errors; invalid and inapplicable objects are attached at the
// rule's severity. The run is then marked from the report's status.
func Publish(ctx context.Context, sink Sink, report *rules.Report) error {
	for _, res := range report.Results {
		r := res.Rule
		if len(res.Missing) > 0 {
			err := sink.AttachError(ctx, Annotation{
				Category:  r.Name() + " (missing)",
				ObjectIDs: res.Missing,
				Message:   fmt.Sprintf("Missing property %s", r.Property),
			})
			if err != nil {
				return err
			}
		}
		if len(res.Invalid) > 0 {
			err := Attach(ctx, sink, r.Severity, Annotation{
				Category:  r.Name(),
				ObjectIDs: res.Invalid,
				Message:   res.Message,
			})
			if err != nil {
				return err
			}
		}
		if len(res.Inapplicable) > 0 {
			reasons := make(map[string]any, len(res.Inapplicable))
			for _, ia := range res.Inapplicable {
				reasons[ia.ObjectID] = ia.Reason
			}
			err := Attach(ctx, sink, r.Severity, Annotation{
				Category:  r.Name() + " (inapplicable)",
				ObjectIDs: res.IDs(rules.OutcomeInapplicable),
				Message:   fmt.Sprintf("%s could not be applied to %s", r.Predicate, r.Property),
				Metadata:  map[string]any{"reasons": reasons},
			})
			if err != nil {
				return err
			}
		}
	}
	return Mark(ctx, sink, report.Status(), report.Summary())
}

// PublishPropertyCheck records a property check: missing objects as
// errors, empty or default values as warnings and valid objects as info.
func PublishPropertyCheck(ctx context.Context, sink Sink, pc rules.PropertyCheck) error {
	if len(pc.Missing) > 0 {
		err := sink.AttachError(ctx, Annotation{
			Category:  fmt.Sprintf("Missing Property %s Objects", pc.Category),
			ObjectIDs: pc.Missing,
			Message:   pc.MissingMessage(),
		})
		if err != nil {
			return err
		}
	}
	if len(pc.Invalid) > 0 {
		err := sink.AttachWarning(ctx, Annotation{
			Category:  fmt.Sprintf("Invalid Property %s Objects", pc.Category),
			ObjectIDs: pc.Invalid,
			Message:   pc.InvalidMessage(),
		})
		if err != nil {
			return err
		}
	}
	if len(pc.Valid) > 0 {
		err := sink.AttachInfo(ctx, Annotation{
			Category:  fmt.Sprintf("Valid Property %s Objects", pc.Category),
			ObjectIDs: pc.Valid,
			Message:   pc.ValidMessage(),
		})
		if err != nil {
			return err
		}
	}
	return Mark(ctx, sink, pc.Status(), pc.Summary())
}

// Mark ends the run with status.
func Mark(ctx context.Context, sink Sink, status rules.Status, msg string) error {
	if status == rules.StatusSucceeded {
		return sink.MarkRunSucceeded(ctx, msg)
	}
	return sink.MarkRunFailed(ctx, msg)
}
