package predicate

import (
	"errors"
	"fmt"

	"modelcheck/internal/model"
)

var (
	// ErrTypeMismatch marks a numeric predicate applied to a value that is
	// not a number. The rule is inapplicable to that value, which is not
	// the same as the value failing the rule.
	ErrTypeMismatch = errors.New("predicate: type mismatch")

	// ErrBadPattern is returned for regular expressions that do not compile.
	ErrBadPattern = errors.New("predicate: invalid pattern")

	// ErrInvalid is returned by Validate for malformed operands.
	ErrInvalid = errors.New("predicate: invalid operands")
)

// TypeMismatchError reports which predicate rejected which kind of value.
type TypeMismatchError struct {
	Kind Kind
	Got  model.Kind
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("predicate: %s needs a number, got %s", e.Kind, e.Got)
}

func (e *TypeMismatchError) Is(target error) bool {
	return target == ErrTypeMismatch
}
