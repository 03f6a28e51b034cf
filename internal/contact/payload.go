package contact

import (
	"net/mail"
	"strings"
	"unicode/utf8"

	"clapper/internal/services"
)

const (
	maxNameRunes    = 200
	maxSubjectRunes = 200
	maxPhoneRunes   = 40
	maxMessageRunes = 10000
)

// Payload is the body of a contact form submission.
type Payload struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message"`
}

// Normalize trims surrounding whitespace from every field.
func (p Payload) Normalize() Payload {
	return Payload{
		Name:    strings.TrimSpace(p.Name),
		Email:   strings.TrimSpace(p.Email),
		Phone:   strings.TrimSpace(p.Phone),
		Subject: strings.TrimSpace(p.Subject),
		Message: strings.TrimSpace(p.Message),
	}
}

// Validate checks the required fields. The returned error carries a message
// suitable for showing next to the form.
func (p Payload) Validate() error {
	switch {
	case p.Name == "":
		return invalid("Please enter your name.")
	case p.Email == "":
		return invalid("Please enter your email address.")
	case !validEmail(p.Email):
		return invalid("Please enter a valid email address.")
	case p.Message == "":
		return invalid("Please enter a message.")
	case utf8.RuneCountInString(p.Name) > maxNameRunes:
		return invalid("Name is too long.")
	case utf8.RuneCountInString(p.Subject) > maxSubjectRunes:
		return invalid("Subject is too long.")
	case utf8.RuneCountInString(p.Phone) > maxPhoneRunes:
		return invalid("Phone number is too long.")
	case utf8.RuneCountInString(p.Message) > maxMessageRunes:
		return invalid("Message is too long.")
	}
	return nil
}

// DisplaySubject returns the subject or the placeholder used when none was given.
func (p Payload) DisplaySubject() string {
	if s := strings.TrimSpace(p.Subject); s != "" {
		return s
	}
	return "No Subject"
}

func validEmail(value string) bool {
	if strings.ContainsAny(value, " \t\r\n<>") {
		return false
	}
	addr, err := mail.ParseAddress(value)
	if err != nil {
		return false
	}
	return addr.Address == value && addr.Name == ""
}

func invalid(message string) error {
	return services.UserFacing(services.ErrValidation, message, nil)
}
