package services_test

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"clapper/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrTransient, "contact", "send", "smtp failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"contact", "send", "smtp failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestUserFacingMessageSurvivesWrapping(t *testing.T) {
	cause := errors.New("EMAIL_EXISTS")
	userErr := services.UserFacing(services.ErrConflict, "This email is already registered.", cause)
	wrapped := services.Wrap(services.ErrConflict, "auth", "sign up", "", userErr)

	if got := services.UserMessage(wrapped, "fallback"); got != "This email is already registered." {
		t.Fatalf("unexpected user message %q", got)
	}
	if !errors.Is(wrapped, cause) {
		t.Fatal("expected cause to remain reachable")
	}
	if got := services.UserMessage(errors.New("plain"), "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
}

func TestHTTPStatusMapping(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{nil, http.StatusOK},
		{services.Wrap(services.ErrValidation, "contact", "validate", "name is required", nil), http.StatusBadRequest},
		{services.Wrap(services.ErrUnauthorized, "api", "auth", "", nil), http.StatusUnauthorized},
		{services.Wrap(services.ErrNotFound, "store", "get", "", nil), http.StatusNotFound},
		{services.Wrap(services.ErrTimeout, "contact", "send", "", nil), http.StatusGatewayTimeout},
		{services.Wrap(services.ErrTransient, "contact", "send", "", errors.New("io")), http.StatusInternalServerError},
		{errors.New("unclassified"), http.StatusInternalServerError},
	}
	for _, tc := range tests {
		if got := services.HTTPStatus(tc.err); got != tc.want {
			t.Fatalf("HTTPStatus(%v) = %d, want %d", tc.err, got, tc.want)
		}
	}
}
