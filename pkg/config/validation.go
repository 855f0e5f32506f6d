package config

import (
	"reflect"
	"strings"

	fserr "github.com/fitstack/fitstack-core/pkg/errors"
)

// Validator is implemented by configuration structs that need validation
// beyond the `required:"true"` tag, such as range checks or cross-field
// constraints. [Loader.Load] calls Validate after all values are resolved.
//
//	func (c ServerConfig) Validate() error {
//	    if c.ReadTimeout <= 0 {
//	        return fserr.Validation("read timeout must be positive")
//	    }
//	    return nil
//	}
type Validator interface {
	Validate() error
}

// validate runs required-tag checks followed by the struct's own Validate
// method when it implements [Validator].
func validate(cfg any, rv reflect.Value) error {
	if err := validateRequired(rv, ""); err != nil {
		return err
	}

	if v, ok := cfg.(Validator); ok {
		if err := v.Validate(); err != nil {
			if fe, ok := fserr.AsError(err); ok {
				return fe
			}
			return fserr.Wrap(err, fserr.CodeValidation, "config: validation failed")
		}
	}

	return nil
}

// validateRequired recursively checks that fields tagged `required:"true"`
// hold non-zero values. The path argument accumulates the dotted field path
// for error messages on nested structs.
func validateRequired(rv reflect.Value, path string) error {
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		field := rv.Field(i)
		sf := rt.Field(i)

		name := sf.Name
		if path != "" {
			name = path + "." + sf.Name
		}

		if field.Kind() == reflect.Struct && sf.Type != durationType {
			if err := validateRequired(field, name); err != nil {
				return err
			}
			continue
		}

		if !strings.EqualFold(sf.Tag.Get("required"), "true") {
			continue
		}

		if field.IsZero() {
			return fserr.Newf(fserr.CodeValidationRequired,
				"config: required field %q is not set", name)
		}
	}

	return nil
}
