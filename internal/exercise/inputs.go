package exercise

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidInputs wraps every function input validation failure.
var ErrInvalidInputs = errors.New("exercise: invalid inputs")

var validate = validator.New(validator.WithRequiredStructEnabled())

// CommentRandomInputs configures CommentRandom.
type CommentRandomInputs struct {
	// CommentPhrase is added to a random model element.
	CommentPhrase string `json:"comment_phrase" yaml:"comment_phrase" validate:"required"`
}

// CommentManyInputs configures CommentMany.
type CommentManyInputs struct {
	CommentPhrase string `json:"comment_phrase" yaml:"comment_phrase" validate:"required"`
	// NumberOfElements is how many elements receive the comment.
	NumberOfElements int `json:"number_of_elements" yaml:"number_of_elements" validate:"gte=1"`
}

// ValidatePropertyInputs configures ValidateProperty.
type ValidatePropertyInputs struct {
	Category string `json:"category" yaml:"category" validate:"required"`
	Property string `json:"property" yaml:"property" validate:"required"`
}

// ApplyRulesInputs configures ApplyRules.
type ApplyRulesInputs struct {
	// RulesPath is a YAML or JSON rule file.
	RulesPath string `json:"rules_path" yaml:"rules_path" validate:"required"`
}

func checkInputs(in any) error {
	if err := validate.Struct(in); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("%w: %s failed %q", ErrInvalidInputs, fe.Field(), fe.Tag())
		}
		return fmt.Errorf("%w: %v", ErrInvalidInputs, err)
	}
	return nil
}
