// pkg/registry/validate.go

package registry

import (
	"reflect"
	"strings"

	"github.com/CodeMonkeyCybersecurity/microns/pkg/microns_err"
	"github.com/go-playground/validator/v10"
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report json field names rather than Go ones
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// validateDefinition checks required fields only. Everything else is passed
// through to the manifest untouched.
func validateDefinition(v *validator.Validate, def Definition) error {
	err := v.Struct(def)
	if err == nil {
		return nil
	}

	fieldErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return microns_err.NewInternalError("definition validation failed", err)
	}

	errs := make([]*microns_err.ValidationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, &microns_err.ValidationError{
			Service: def.Name,
			Field:   fe.Field(),
			Message: describe(fe),
		})
	}
	return microns_err.JoinValidation(errs...)
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_if":
		return "is required for infra services"
	default:
		return "failed " + fe.Tag() + " check"
	}
}
