// Package validator wraps go-playground/validator with the domain rules of
// the notes service.
package validator

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/notesvault/notes-service/internal/models"
)

// ValidationError describes a single failed rule on a single field.
type ValidationError struct {
	Field   string      `json:"field"`
	Message string      `json:"message"`
	Value   interface{} `json:"value,omitempty"`
	Rule    string      `json:"rule"`
}

type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return ""
	}
	msgs := make([]string, len(ve))
	for i, e := range ve {
		msgs[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return strings.Join(msgs, "; ")
}

// Message returns a single user-facing line for banners: the first failure.
func (ve ValidationErrors) Message() string {
	if len(ve) == 0 {
		return ""
	}
	return ve[0].Message
}

type Validator struct {
	validate *validator.Validate
}

// New creates a validator with the service's custom rules registered.
func New() *Validator {
	v := &Validator{validate: validator.New()}
	v.registerRules()
	return v
}

// Validate validates struct tags and returns nil when everything passes.
func (v *Validator) Validate(s interface{}) ValidationErrors {
	err := v.validate.Struct(s)
	if err != nil {
		return toValidationErrors(err)
	}
	return nil
}

func (v *Validator) registerRules() {
	// At least 8 characters containing both a letter and a digit.
	_ = v.validate.RegisterValidation("password_strength", func(fl validator.FieldLevel) bool {
		pw := fl.Field().String()
		if len(pw) < 8 {
			return false
		}
		var hasLetter, hasDigit bool
		for _, r := range pw {
			switch {
			case unicode.IsLetter(r):
				hasLetter = true
			case unicode.IsDigit(r):
				hasDigit = true
			}
		}
		return hasLetter && hasDigit
	})

	_ = v.validate.RegisterValidation("note_kind", func(fl validator.FieldLevel) bool {
		switch models.NoteKind(fl.Field().String()) {
		case models.NoteKindLecture, models.NoteKindPYQ:
			return true
		}
		return false
	})

	_ = v.validate.RegisterValidation("academic_year", func(fl validator.FieldLevel) bool {
		year := fl.Field().Int()
		return year >= 1 && year <= 6
	})
}

func toValidationErrors(err error) ValidationErrors {
	var result ValidationErrors

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return ValidationErrors{{Field: "request", Message: err.Error(), Rule: "struct"}}
	}

	for _, fe := range fieldErrs {
		result = append(result, ValidationError{
			Field:   strings.ToLower(fe.Field()),
			Message: messageFor(fe),
			Value:   fe.Value(),
			Rule:    fe.Tag(),
		})
	}
	return result
}

func messageFor(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return "a valid email address is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "password_strength":
		return "password must be at least 8 characters and contain a letter and a digit"
	case "note_kind":
		return "kind must be either lecture or pyq"
	case "academic_year":
		return "year must be between 1 and 6"
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
