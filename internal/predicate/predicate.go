package predicate

import (
	"fmt"
	"regexp"
	"sync"

	"modelcheck/internal/model"
)

// DefaultThreshold is the fuzzy similarity a match needs when none is set.
const DefaultThreshold = 0.8

// Predicate is a comparison kind plus its operands. Which operands are read
// depends on Kind:
//
//	equals                 Value
//	matches                Pattern (or Value as text), Fuzzy, Threshold
//	greater_than/less_than Value (a number)
//	in_range               Min, Max, Inclusive (default true)
//	in_list                Values
//	is_true/is_false       none
type Predicate struct {
	Kind      Kind     `json:"predicate" yaml:"predicate"`
	Value     any      `json:"value,omitempty" yaml:"value,omitempty"`
	Values    []any    `json:"values,omitempty" yaml:"values,omitempty"`
	Pattern   string   `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Fuzzy     bool     `json:"fuzzy,omitempty" yaml:"fuzzy,omitempty"`
	Threshold *float64 `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	Min       *float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max       *float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Inclusive *bool    `json:"inclusive,omitempty" yaml:"inclusive,omitempty"`
}

func EqualTo(v any) Predicate { return Predicate{Kind: Equals, Value: v} }

func Match(pattern string) Predicate { return Predicate{Kind: Matches, Pattern: pattern} }

func FuzzyMatch(pattern string, threshold float64) Predicate {
	return Predicate{Kind: Matches, Pattern: pattern, Fuzzy: true, Threshold: &threshold}
}

func Greater(threshold float64) Predicate { return Predicate{Kind: GreaterThan, Value: threshold} }

func Less(threshold float64) Predicate { return Predicate{Kind: LessThan, Value: threshold} }

func Between(lo, hi float64, inclusive bool) Predicate {
	return Predicate{Kind: InRange, Min: &lo, Max: &hi, Inclusive: &inclusive}
}

func OneOf(values ...any) Predicate { return Predicate{Kind: InList, Values: values} }

func True() Predicate  { return Predicate{Kind: IsTrue} }
func False() Predicate { return Predicate{Kind: IsFalse} }

// Operand returns the Value operand as a model value.
func (p Predicate) Operand() model.Value {
	return model.Of(p.Value)
}

func (p Predicate) pattern() string {
	if p.Pattern != "" {
		return p.Pattern
	}
	return p.Operand().Text()
}

func (p Predicate) threshold() float64 {
	if p.Threshold == nil {
		return DefaultThreshold
	}
	return *p.Threshold
}

func (p Predicate) inclusive() bool {
	return p.Inclusive == nil || *p.Inclusive
}

// list returns the in_list candidates. A list-valued Value is accepted in
// place of Values.
func (p Predicate) list() []model.Value {
	if len(p.Values) > 0 {
		out := make([]model.Value, len(p.Values))
		for i, v := range p.Values {
			out[i] = model.Of(v)
		}
		return out
	}
	if l, ok := p.Operand().AsList(); ok {
		return l
	}
	return nil
}

// Validate checks that the operands Kind needs are present and well formed.
func (p Predicate) Validate() error {
	if !p.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalid, p.Kind)
	}
	switch p.Kind {
	case Equals:
		if p.Value == nil {
			return fmt.Errorf("%w: equals needs a value", ErrInvalid)
		}
	case Matches:
		if p.pattern() == "" {
			return fmt.Errorf("%w: matches needs a pattern", ErrInvalid)
		}
		if p.Fuzzy {
			if t := p.threshold(); t < 0 || t > 1 {
				return fmt.Errorf("%w: threshold %v outside [0,1]", ErrInvalid, t)
			}
		} else if _, err := compile(p.pattern()); err != nil {
			return err
		}
	case GreaterThan, LessThan:
		if !p.Operand().IsNumber() {
			return fmt.Errorf("%w: %s needs a numeric value, got %s", ErrInvalid, p.Kind, p.Operand().Kind())
		}
	case InRange:
		if p.Min == nil || p.Max == nil {
			return fmt.Errorf("%w: in_range needs min and max", ErrInvalid)
		}
		if *p.Min > *p.Max {
			return fmt.Errorf("%w: in_range min %v > max %v", ErrInvalid, *p.Min, *p.Max)
		}
	case InList:
		if len(p.list()) == 0 {
			return fmt.Errorf("%w: in_list needs values", ErrInvalid)
		}
	}
	return nil
}

// Apply evaluates the predicate against a resolved value. It has no side
// effects. Numeric kinds return a *TypeMismatchError for non-numeric,
// non-null values; a null value simply does not satisfy any kind except
// equals-null and in_list containing null.
func (p Predicate) Apply(v model.Value) (bool, error) {
	switch p.Kind {
	case Equals:
		return model.Equal(v, p.Operand()), nil
	case Matches:
		return p.matches(v)
	case GreaterThan, LessThan:
		n, ok, err := p.number(v)
		if !ok || err != nil {
			return false, err
		}
		limit, _ := p.Operand().AsNumber()
		if p.Kind == GreaterThan {
			return n > limit, nil
		}
		return n < limit, nil
	case InRange:
		n, ok, err := p.number(v)
		if !ok || err != nil {
			return false, err
		}
		if p.Min == nil || p.Max == nil {
			return false, fmt.Errorf("%w: in_range needs min and max", ErrInvalid)
		}
		if p.inclusive() {
			return *p.Min <= n && n <= *p.Max, nil
		}
		return *p.Min < n && n < *p.Max, nil
	case InList:
		return model.Contains(p.list(), v), nil
	case IsTrue:
		b, ok := v.AsBool()
		return ok && b, nil
	case IsFalse:
		b, ok := v.AsBool()
		return ok && !b, nil
	}
	return false, fmt.Errorf("%w: unknown kind %q", ErrInvalid, p.Kind)
}

// number extracts a numeric operand. ok is false for null values.
func (p Predicate) number(v model.Value) (float64, bool, error) {
	if v.IsNull() {
		return 0, false, nil
	}
	n, ok := v.AsNumber()
	if !ok {
		return 0, false, &TypeMismatchError{Kind: p.Kind, Got: v.Kind()}
	}
	return n, true, nil
}

func (p Predicate) matches(v model.Value) (bool, error) {
	if v.IsNull() {
		return false, nil
	}
	if p.Fuzzy {
		return Similarity(v.Text(), p.pattern()) >= p.threshold(), nil
	}
	re, err := compile(p.pattern())
	if err != nil {
		return false, err
	}
	return re.MatchString(v.Text()), nil
}

var patterns sync.Map // string -> *regexp.Regexp

// compile anchors pattern at the start of the input only, so "Wall" matches
// "Wall-01" but not "Basic Wall".
func compile(pattern string) (*regexp.Regexp, error) {
	if re, ok := patterns.Load(pattern); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(`^(?:` + pattern + `)`)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrBadPattern, pattern, err)
	}
	patterns.Store(pattern, re)
	return re, nil
}

// String renders the predicate for messages, e.g. "in_range [10, 20]".
func (p Predicate) String() string {
	switch p.Kind {
	case Matches:
		if p.Fuzzy {
			return fmt.Sprintf("%s ~%q (>= %.2f)", p.Kind, p.pattern(), p.threshold())
		}
		return fmt.Sprintf("%s %q", p.Kind, p.pattern())
	case InRange:
		if p.Min == nil || p.Max == nil {
			return string(p.Kind)
		}
		if p.inclusive() {
			return fmt.Sprintf("%s [%v, %v]", p.Kind, *p.Min, *p.Max)
		}
		return fmt.Sprintf("%s (%v, %v)", p.Kind, *p.Min, *p.Max)
	case InList:
		return fmt.Sprintf("%s %v", p.Kind, model.List(p.list()...).Text())
	case IsTrue, IsFalse:
		return string(p.Kind)
	}
	return fmt.Sprintf("%s %s", p.Kind, p.Operand())
}
