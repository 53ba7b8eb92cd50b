package utils

import (
	"regexp"

	"github.com/go-playground/validator/v10"
)

var (
	Validate *validator.Validate

	slugPattern     = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)
	usernamePattern = regexp.MustCompile(`^[\w.@+-]+$`)
)

func InitValidator() {
	if Validate != nil {
		return
	}
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return IsValidSlug(fl.Field().String())
	})
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return IsValidUsername(fl.Field().String())
	})
	Validate = v
}

// IsValidUsername reports whether s only uses letters, digits and @.+-_ and is
// not the reserved "me".
func IsValidUsername(s string) bool {
	return s != "me" && usernamePattern.MatchString(s)
}

func IsValidSlug(s string) bool {
	return slugPattern.MatchString(s)
}
