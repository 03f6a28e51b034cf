package services

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrConflict      = errors.New("conflict")
)

// Wrap builds an error message that includes component context while tagging it
// with the provided marker for later classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// UserError is a classified failure whose Message is safe to show to the
// person who triggered it.
type UserError struct {
	Marker  error
	Message string
	Err     error
}

func (e *UserError) Error() string {
	marker := e.Marker
	if marker == nil {
		marker = ErrTransient
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s", marker, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", marker, e.Message)
}

func (e *UserError) Unwrap() []error {
	out := []error{e.Marker}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// UserFacing tags err with a marker and a message intended for end users.
func UserFacing(marker error, message string, err error) error {
	if marker == nil {
		marker = ErrTransient
	}
	return &UserError{Marker: marker, Message: strings.TrimSpace(message), Err: err}
}

// UserMessage returns the first user-facing message in err's chain, or
// fallback when none is present.
func UserMessage(err error, fallback string) string {
	var userErr *UserError
	if errors.As(err, &userErr) && userErr.Message != "" {
		return userErr.Message
	}
	return fallback
}

// HTTPStatus maps a classified error to the status code API handlers respond with.
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrTimeout):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
