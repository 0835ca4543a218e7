package utils

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var (
	validate = validator.New()

	identifierPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9._:\-]*$`)
)

func init() {
	_ = validate.RegisterValidation("identifier", validateIdentifier)
	_ = validate.RegisterValidation("strong_password", validateStrongPassword)
}

func ValidateStruct(s any) error {
	return validate.Struct(s)
}

// ValidationMessage flattens validator errors into one readable line.
func ValidationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		switch fe.Tag() {
		case "required":
			parts = append(parts, fmt.Sprintf("%s is required", fe.Field()))
		case "strong_password":
			parts = append(parts, "password must be at least 8 characters and contain uppercase, lowercase, number and special symbol")
		case "oneof":
			parts = append(parts, fmt.Sprintf("%s must be one of [%s]", fe.Field(), fe.Param()))
		default:
			parts = append(parts, fmt.Sprintf("%s failed %s validation", fe.Field(), fe.Tag()))
		}
	}
	return strings.Join(parts, "; ")
}

// IsIdentifier reports whether s is a plausible device id or bundle
// version for path parameters.
func IsIdentifier(s string) bool {
	return len(s) <= 255 && identifierPattern.MatchString(s)
}

func validateIdentifier(fl validator.FieldLevel) bool {
	return IsIdentifier(fl.Field().String())
}

func validateStrongPassword(fl validator.FieldLevel) bool {
	password := fl.Field().String()
	if len(password) < 8 {
		return false
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}
	return hasUpper && hasLower && hasNumber && hasSpecial
}
