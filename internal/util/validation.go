package util

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

// Validate is the shared validator instance for request and config structs.
var Validate *validator.Validate

var slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

func init() {
	Validate = validator.New(validator.WithRequiredStructEnabled())
	err := Validate.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	})
	if err != nil {
		panic(err)
	}
}

// ValidateStruct runs the registered validations against a struct.
func ValidateStruct(s any) error {
	return Validate.Struct(s)
}
