// Package rules evaluates declarative parameter rules against a flattened
// model and aggregates the results per severity.
//
// Each rule names a property, a predicate and a severity. Every node a rule
// considers lands in exactly one bucket: missing (the property does not
// exist on the node), invalid (present but the predicate is false),
// inapplicable (the predicate could not be applied, e.g. a numeric check on
// text) or valid. Nodes removed by a rule's category filter are counted as
// excluded and never reach those buckets.
package rules

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"modelcheck/internal/model"
	"modelcheck/internal/predicate"
	"modelcheck/internal/resolve"
)

// Severity classifies how a rule violation is reported.
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
	SeverityInfo    Severity = "info"
)

// Severities lists severities from most to least severe.
var Severities = []Severity{SeverityError, SeverityWarning, SeverityInfo}

// ParseSeverity accepts the spellings found in rule sheets ("ERROR",
// "Warning", "information", ...).
func ParseSeverity(s string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error", "err", "critical":
		return SeverityError, nil
	case "warning", "warn":
		return SeverityWarning, nil
	case "info", "information", "informational":
		return SeverityInfo, nil
	}
	return "", fmt.Errorf("rules: unknown severity %q", s)
}

func (s Severity) MarshalText() ([]byte, error) {
	return []byte(s), nil
}

func (s *Severity) UnmarshalText(b []byte) error {
	parsed, err := ParseSeverity(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Rule is one externally configured check. The embedded predicate carries
// the comparison kind and operands.
type Rule struct {
	Number   int    `json:"number" yaml:"number" validate:"gte=0"`
	Property string `json:"property" yaml:"property" validate:"required"`

	predicate.Predicate `yaml:",inline"`

	Message  string   `json:"message,omitempty" yaml:"message,omitempty"`
	Severity Severity `json:"severity" yaml:"severity" validate:"required,oneof=error warning info"`
	// Category limits the rule to nodes of one category. Empty means all.
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ErrInvalidRule wraps every rule validation failure.
var ErrInvalidRule = errors.New("rules: invalid rule")

// Validate checks the rule record and its predicate operands.
func (r Rule) Validate() error {
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w %d: field %s failed %q", ErrInvalidRule, r.Number, fe.Field(), fe.Tag())
		}
		return fmt.Errorf("%w %d: %v", ErrInvalidRule, r.Number, err)
	}
	if err := r.Predicate.Validate(); err != nil {
		return fmt.Errorf("%w %d: %w", ErrInvalidRule, r.Number, err)
	}
	return nil
}

// Name is the short label results are grouped under, e.g. "Rule 3: height".
func (r Rule) Name() string {
	return fmt.Sprintf("Rule %d: %s", r.Number, r.Property)
}

func (r Rule) String() string {
	return fmt.Sprintf("%s %s [%s]", r.Name(), r.Predicate, r.Severity)
}

// RenderMessage expands the rule's message template. Supported placeholders
// are {rule}, {property}, {category}, {predicate} and {value} (the rule's
// operand). An empty template yields a generated message.
func (r Rule) RenderMessage() string {
	tmpl := r.Message
	if tmpl == "" {
		tmpl = "{property} does not satisfy {predicate}"
	}
	category := r.Category
	if category == "" {
		category = "object"
	}
	return strings.NewReplacer(
		"{rule}", fmt.Sprint(r.Number),
		"{property}", r.Property,
		"{category}", category,
		"{predicate}", r.Predicate.String(),
		"{value}", r.Operand().Text(),
	).Replace(tmpl)
}

// appliesTo reports whether n passes the rule's category filter.
func (r Rule) appliesTo(n *model.Node) bool {
	return r.Category == "" || resolve.IsCategory(n, r.Category)
}
