package pipeline

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validator reports every field violation of a request keyed by its JSON name.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	return &Validator{validate: v}
}

// RegisterStructValidation adds a cross-field rule for the given request types.
// Rules report violations through validator.StructLevel.ReportError, using the
// JSON field name and one of the tags known to messageFor.
func (v *Validator) RegisterStructValidation(fn validator.StructLevelFunc, types ...any) {
	v.validate.RegisterStructValidation(fn, types...)
}

// Validate returns nil when req passes. A non-nil error means req could not be
// validated at all.
func (v *Validator) Validate(req any) (map[string][]string, error) {
	err := v.validate.Struct(req)
	if err == nil {
		return nil, nil
	}

	var invalid *validator.InvalidValidationError
	if errors.As(err, &invalid) {
		return nil, fmt.Errorf("cannot validate %T: %w", req, err)
	}

	var violations validator.ValidationErrors
	if !errors.As(err, &violations) {
		return nil, err
	}

	fieldErrors := make(map[string][]string, len(violations))
	for _, fe := range violations {
		field := fieldPath(fe)
		fieldErrors[field] = append(fieldErrors[field], messageFor(fe))
	}
	return fieldErrors, nil
}

// fieldPath drops the top-level struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "uuid", "uuid4":
		return "must be a valid UUID"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", strings.Join(strings.Fields(fe.Param()), ", "))
	case "salary_range":
		return "must be greater than or equal to min_salary"
	case "future":
		return "must be in the future"
	default:
		return fmt.Sprintf("failed the %s rule", fe.Tag())
	}
}
