package contact_test

import (
	"errors"
	"strings"
	"testing"

	"clapper/internal/contact"
	"clapper/internal/services"
)

func TestPayloadValidate(t *testing.T) {
	valid := contact.Payload{Name: "Ada", Email: "ada@gmail.com", Message: "Hello"}
	tests := []struct {
		name    string
		payload contact.Payload
		want    string
	}{
		{"valid", valid, ""},
		{"missing name", contact.Payload{Email: "ada@gmail.com", Message: "Hi"}, "Please enter your name."},
		{"missing email", contact.Payload{Name: "Ada", Message: "Hi"}, "Please enter your email address."},
		{"bad email", contact.Payload{Name: "Ada", Email: "ada at gmail", Message: "Hi"}, "Please enter a valid email address."},
		{"display name email", contact.Payload{Name: "Ada", Email: "Ada <ada@gmail.com>", Message: "Hi"}, "Please enter a valid email address."},
		{"missing message", contact.Payload{Name: "Ada", Email: "ada@gmail.com"}, "Please enter a message."},
		{"long subject", contact.Payload{Name: "Ada", Email: "ada@gmail.com", Message: "Hi", Subject: strings.Repeat("s", 201)}, "Subject is too long."},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.payload.Normalize().Validate()
			if tc.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if got := services.UserMessage(err, ""); got != tc.want {
				t.Fatalf("message = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestNormalizeTrimsFields(t *testing.T) {
	p := contact.Payload{Name: "  Ada ", Email: " ada@gmail.com\n", Subject: "  ", Message: " hi "}.Normalize()
	if p.Name != "Ada" || p.Email != "ada@gmail.com" || p.Subject != "" || p.Message != "hi" {
		t.Fatalf("unexpected normalized payload: %+v", p)
	}
	if p.DisplaySubject() != "No Subject" {
		t.Fatalf("unexpected display subject %q", p.DisplaySubject())
	}
}
