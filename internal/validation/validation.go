// Package validation builds the struct validator shared by the domain and the REST layer.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"

	sferrors "github.com/abgdnv/stitchnstyle/internal/errors"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var phonePattern = regexp.MustCompile(`^\d{10}$`)

// New returns a validator that
//   - reports fields by their json names,
//   - compares decimal.Decimal values numerically (so gt=0 works on prices),
//   - knows the "phone10" rule: exactly ten ASCII digits.
func New() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		if name == "" {
			return fld.Name
		}
		return name
	})
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	_ = v.RegisterValidation("phone10", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
	return v
}

// Check validates s and converts rule violations into a *errors.ValidationError keyed by json field name.
func Check(v *validator.Validate, s any) error {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}
	fields := make(map[string]string, len(validationErrors))
	for _, fe := range validationErrors {
		fields[fe.Field()] = "failed on rule: " + fe.Tag()
	}
	return sferrors.NewValidationError(fields)
}
