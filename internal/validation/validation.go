// Package validation checks request inputs and reports every failing field.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"NoticeBoard/internal/apperr"
	"NoticeBoard/internal/identity"

	"github.com/go-playground/validator/v10"
)

// Validator wraps go-playground/validator with the board's custom rules.
type Validator struct {
	v   *validator.Validate
	now func() time.Time
}

func New() *Validator {
	val := &Validator{v: validator.New(validator.WithRequiredStructEnabled()), now: time.Now}

	val.v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	rules := map[string]validator.Func{
		"branch":     func(fl validator.FieldLevel) bool { return identity.IsBranch(fl.Field().String()) },
		"division":   func(fl validator.FieldLevel) bool { return identity.IsDivision(fl.Field().String()) },
		"department": func(fl validator.FieldLevel) bool { return identity.IsAudience(fl.Field().String()) },
		"isodate": func(fl validator.FieldLevel) bool {
			_, err := ParseDate(fl.Field().String())
			return err == nil
		},
		"admissionyear": func(fl validator.FieldLevel) bool {
			year := fl.Field().Int()
			return year >= 2000 && year <= int64(val.now().Year())
		},
	}
	for tag, fn := range rules {
		if err := val.v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("validation: registering %q: %v", tag, err))
		}
	}
	return val
}

// Struct validates s and returns an apperr validation error listing each
// failing field, or nil.
func (val *Validator) Struct(s any) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	fields := make([]apperr.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, apperr.FieldError{Field: fe.Field(), Message: message(fe)})
	}
	return apperr.Validation("Validation failed", fields...)
}

// Validate lets the validator serve as echo's Validator.
func (val *Validator) Validate(i interface{}) error {
	return val.Struct(i)
}

func message(fe validator.FieldError) string {
	f := fe.Field()
	switch fe.Tag() {
	case "required":
		return f + " is required"
	case "email":
		return "Please enter a valid email"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters long", f, fe.Param())
	case "len":
		return fmt.Sprintf("%s must be %s characters", f, fe.Param())
	case "numeric":
		return f + " must be numeric"
	case "oneof":
		return fmt.Sprintf("Invalid %s, must be one of: %s", f, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "datetime":
		return fmt.Sprintf("Valid %s is required", f)
	case "isodate":
		return "Invalid date format"
	case "branch", "division", "department":
		return fmt.Sprintf("Invalid %s", f)
	case "admissionyear":
		return "Invalid year of admission"
	default:
		return fmt.Sprintf("%s is invalid", f)
	}
}

// ParseDate accepts a calendar date (2006-01-02) or an RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, s)
}
