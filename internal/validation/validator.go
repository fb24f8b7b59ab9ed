// Package validation wraps validator/v10 for request payload checking, with
// a custom tag for sexagesimal timestamps.
package validation

import (
	"fmt"
	"reflect"

	"github.com/go-playground/validator/v10"

	domainerrors "github.com/chapterdapp/chapterd/internal/errors"
	"github.com/chapterdapp/chapterd/internal/timecode"
)

// Validator converts validator/v10 failures into domain validation errors.
type Validator struct {
	v *validator.Validate
}

// New creates a validator. Field names in error details come from json tags.
// The "timecode" tag accepts HH:MM:SS[.mmm] timestamps, for boundary edits
// arriving over the API.
func New() *Validator {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := fld.Tag.Get("json")
		if name == "" {
			return fld.Name
		}
		for i := range len(name) {
			if name[i] == ',' {
				return name[:i]
			}
		}
		return name
	})

	v.RegisterValidation("timecode", func(fl validator.FieldLevel) bool {
		_, err := timecode.Parse(fl.Field().String())
		return err == nil
	})

	return &Validator{v: v}
}

// Validate checks a struct and returns a domain error describing every
// failing field.
func (v *Validator) Validate(s any) error {
	if err := v.v.Struct(s); err != nil {
		return v.formatError(err)
	}
	return nil
}

func (v *Validator) formatError(err error) error {
	var validationErrs validator.ValidationErrors
	if !domainerrors.As(err, &validationErrs) {
		return err
	}

	fieldErrors := make(map[string]string)
	for _, e := range validationErrs {
		fieldErrors[e.Field()] = friendlyMessage(e)
	}
	return domainerrors.ValidationWithDetails("validation failed", fieldErrors)
}

func friendlyMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "timecode":
		return "must be a timestamp of the form HH:MM:SS.mmm"
	case "min":
		return fmt.Sprintf("must be at least %s characters", e.Param())
	case "max":
		return fmt.Sprintf("must not exceed %s characters", e.Param())
	case "oneof":
		return "must be one of: " + e.Param()
	case "gte":
		return "must be greater than or equal to " + e.Param()
	case "lte":
		return "must be less than or equal to " + e.Param()
	default:
		return "is invalid"
	}
}
