// Package validation wraps go-playground/validator with the custom tags used
// at the limiter's boundaries (request payloads and record metadata).
package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"
	"webhook-ratelimiter/internal/common/errors"
)

var flagPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_.:-]*$`)

// FieldError is a single failed rule.
type FieldError struct {
	Field   string `json:"field"`
	Tag     string `json:"tag"`
	Param   string `json:"param,omitempty"`
	Message string `json:"message"`
}

// Validator validates structs using struct tags.
type Validator struct {
	validate *validator.Validate
}

var (
	defaultOnce      sync.Once
	defaultValidator *Validator
)

// Default returns the process-wide Validator.
func Default() *Validator {
	defaultOnce.Do(func() {
		defaultValidator = New()
	})
	return defaultValidator
}

// New creates a Validator with the custom tags registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report JSON names in errors
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	registerLimiterValidators(v)

	return &Validator{validate: v}
}

// Struct validates s and returns a ValidationError describing every failure.
func (v *Validator) Struct(s interface{}) error {
	if err := v.validate.Struct(s); err != nil {
		return format(Fields(err))
	}
	return nil
}

// Var validates a single value against tag, e.g. "max=256,identity".
func (v *Validator) Var(value interface{}, tag string) error {
	if err := v.validate.Var(value, tag); err != nil {
		return format(Fields(err))
	}
	return nil
}

// Fields extracts the failed rules from a validator error.
func Fields(err error) []FieldError {
	validationErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return []FieldError{{Field: "unknown", Tag: "error", Message: err.Error()}}
	}

	out := make([]FieldError, 0, len(validationErrs))
	for _, fe := range validationErrs {
		out = append(out, FieldError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Param:   fe.Param(),
			Message: message(fe),
		})
	}
	return out
}

func format(fields []FieldError) error {
	if len(fields) == 1 {
		return errors.ValidationError(fields[0].Message).WithContext("field", fields[0].Field)
	}

	messages := make([]string, len(fields))
	for i, f := range fields {
		messages[i] = f.Message
	}
	return errors.ValidationError(fmt.Sprintf("validation failed: %s", strings.Join(messages, "; ")))
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("field '%s' is required", fe.Field())
	case "min", "gte":
		return fmt.Sprintf("field '%s' must be at least %s", fe.Field(), fe.Param())
	case "max", "lte":
		return fmt.Sprintf("field '%s' must be at most %s", fe.Field(), fe.Param())
	case "identity":
		return fmt.Sprintf("field '%s' must be printable and contain no whitespace", fe.Field())
	case "flag":
		return fmt.Sprintf("field '%s' must be a lowercase flag name", fe.Field())
	case "printable":
		return fmt.Sprintf("field '%s' must not contain control characters", fe.Field())
	default:
		return fmt.Sprintf("field '%s' failed validation: %s", fe.Field(), fe.Tag())
	}
}

func registerLimiterValidators(v *validator.Validate) {
	// Identities become store keys, so no whitespace or control characters.
	_ = v.RegisterValidation("identity", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		for _, r := range s {
			if unicode.IsSpace(r) || !unicode.IsPrint(r) {
				return false
			}
		}
		return true
	})

	_ = v.RegisterValidation("flag", func(fl validator.FieldLevel) bool {
		return flagPattern.MatchString(fl.Field().String())
	})

	_ = v.RegisterValidation("printable", func(fl validator.FieldLevel) bool {
		for _, r := range fl.Field().String() {
			if !unicode.IsPrint(r) {
				return false
			}
		}
		return true
	})
}
