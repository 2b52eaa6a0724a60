// Package validation holds the request validator and its custom tags.
package validation

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// MinABHALength is the shortest accepted ABHA identifier.
const MinABHALength = 10

var validate = New()

// New returns a validator with the custom tags registered.
func New() *validator.Validate {
	v := validator.New()
	mustRegister(v)
	return v
}

func mustRegister(v *validator.Validate) {
	if err := v.RegisterValidation("abhaid", validateABHAID); err != nil {
		panic(err)
	}
}

// ValidABHAID reports whether id is an acceptable ABHA number or address.
func ValidABHAID(id string) bool {
	return validate.Var(id, "abhaid") == nil
}

// abhaid: at least MinABHALength characters, no whitespace.
func validateABHAID(fl validator.FieldLevel) bool {
	id := fl.Field().String()
	if utf8.RuneCountInString(id) < MinABHALength {
		return false
	}
	return strings.IndexFunc(id, unicode.IsSpace) < 0
}

// FieldErrors flattens validator errors into field -> failed tag.
func FieldErrors(err error) map[string]interface{} {
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return nil
	}
	out := make(map[string]interface{}, len(errs))
	for _, fe := range errs {
		out[fe.Field()] = fe.Tag()
	}
	return out
}
