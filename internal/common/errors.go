package common

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation"
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrDuplicateEmail     = errors.New("this email address is already registered")
	ErrInvalidCredentials = errors.New("invalid email or password") // never says which one
	ErrAccountNotActive   = errors.New("account is not active")
	ErrMissingToken       = errors.New("authorization token required")
	ErrInvalidToken       = errors.New("invalid authentication token")
	ErrExpiredToken       = errors.New("authentication token has expired")
	ErrNotFound           = errors.New("requested resource not found")
	ErrForbidden          = errors.New("forbidden access")
	ErrMethodNotAllowed   = errors.New("method not allowed")
	ErrInternalServer     = errors.New("internal server error")
)

// ValidationError lists every rejected field with its reason.
type ValidationError struct {
	Fields map[string]string
}

func NewValidationError(fields map[string]string) *ValidationError {
	return &ValidationError{Fields: fields}
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// FromValidation converts the result of an ozzo-validation call into a
// *ValidationError. nil stays nil.
func FromValidation(err error) error {
	if err == nil {
		return nil
	}
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for field, ferr := range verrs {
			if ferr != nil {
				fields[field] = ferr.Error()
			}
		}
		return NewValidationError(fields)
	}
	return NewValidationError(map[string]string{"body": err.Error()})
}

// AccountNotActiveError is returned by login when the account status blocks access.
type AccountNotActiveError struct {
	Status  string
	Message string
}

func (e *AccountNotActiveError) Error() string { return e.Message }

func (e *AccountNotActiveError) Unwrap() error { return ErrAccountNotActive }

// Kind is the machine readable name of an error in the taxonomy.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return "validation_error"
	case errors.Is(err, ErrDuplicateEmail):
		return "duplicate_email"
	case errors.Is(err, ErrInvalidCredentials):
		return "invalid_credentials"
	case errors.Is(err, ErrAccountNotActive):
		return "account_not_active"
	case errors.Is(err, ErrMissingToken):
		return "missing_token"
	case errors.Is(err, ErrExpiredToken):
		return "expired_token"
	case errors.Is(err, ErrInvalidToken):
		return "invalid_token"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrForbidden):
		return "forbidden"
	case errors.Is(err, ErrMethodNotAllowed):
		return "method_not_allowed"
	default:
		return "internal_error"
	}
}

// HTTPStatusFromError maps domain errors to HTTP status codes.
func HTTPStatusFromError(err error) int {
	switch Kind(err) {
	case "":
		return http.StatusOK
	case "validation_error", "invalid_credentials":
		return http.StatusBadRequest
	case "duplicate_email":
		return http.StatusConflict
	case "missing_token":
		return http.StatusUnauthorized
	case "account_not_active", "expired_token", "invalid_token", "forbidden":
		return http.StatusForbidden
	case "not_found":
		return http.StatusNotFound
	case "method_not_allowed":
		return http.StatusMethodNotAllowed
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the text that is safe to show to a client. Wrapping
// context and storage details are dropped.
func PublicMessage(err error) string {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return ErrValidation.Error()
	}
	var nerr *AccountNotActiveError
	if errors.As(err, &nerr) {
		return nerr.Message
	}
	for _, sentinel := range []error{
		ErrDuplicateEmail, ErrInvalidCredentials, ErrAccountNotActive,
		ErrMissingToken, ErrExpiredToken, ErrInvalidToken, ErrNotFound, ErrForbidden,
	} {
		if errors.Is(err, sentinel) {
			return sentinel.Error()
		}
	}
	return ErrInternalServer.Error()
}

// Errorf creates a new error with formatting, useful for wrapping.
func Errorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
