package services

import (
	"errors"
	"fmt"
	"net/http"

	"brosolve-backend-go/internal/models"
)

type ServiceError struct {
	Status  int
	Message string
}

func (e ServiceError) Error() string {
	return e.Message
}

func ErrNotFound(msg string) error {
	return ServiceError{Status: http.StatusNotFound, Message: msg}
}

func ErrBadRequest(msg string) error {
	return ServiceError{Status: http.StatusBadRequest, Message: msg}
}

func ErrForbidden(msg string) error {
	return ServiceError{Status: http.StatusForbidden, Message: msg}
}

func ErrUnauthorized(msg string) error {
	return ServiceError{Status: http.StatusUnauthorized, Message: msg}
}

func ErrConflict(msg string) error {
	return ServiceError{Status: http.StatusConflict, Message: msg}
}

func WrapError(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", msg, err)
}

// notFoundAs turns a store miss into a 404 with msg and wraps anything else.
func notFoundAs(err error, msg string) error {
	if errors.Is(err, models.ErrNotFound) {
		return ErrNotFound(msg)
	}
	return WrapError(err, msg)
}
