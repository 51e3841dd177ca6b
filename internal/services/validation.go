package services

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks validate tags on v and reports the first failure as a 400.
func Validate(v interface{}) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return ErrBadRequest("Invalid payload")
	}
	fe := verrs[0]
	field := lowerFirst(fe.Field())
	switch fe.Tag() {
	case "required":
		return ErrBadRequest(field + " is required")
	case "email":
		return ErrBadRequest(field + " must be a valid email")
	case "oneof":
		return ErrBadRequest(field + " must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", "))
	case "min", "gte":
		return ErrBadRequest(field + " must be at least " + fe.Param())
	case "max", "lte":
		return ErrBadRequest(field + " must be at most " + fe.Param())
	}
	return ErrBadRequest(field + " is invalid")
}

func lowerFirst(value string) string {
	if value == "" {
		return value
	}
	return strings.ToLower(value[:1]) + value[1:]
}
