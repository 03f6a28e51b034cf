package contact

import (
	"context"
	"errors"

	"clapper/internal/services"
)

// SentNotice is shown after a successful submission.
const SentNotice = "Thank you! Your message has been sent."

// Form holds what a visitor has typed into the contact form plus the outcome
// of the last submission.
type Form struct {
	Name    string
	Email   string
	Phone   string
	Subject string
	Message string

	Error  string
	Notice string
}

// Payload snapshots the current field values.
func (f *Form) Payload() Payload {
	return Payload{
		Name:    f.Name,
		Email:   f.Email,
		Phone:   f.Phone,
		Subject: f.Subject,
		Message: f.Message,
	}
}

// Reset clears every field.
func (f *Form) Reset() {
	f.Name, f.Email, f.Phone, f.Subject, f.Message = "", "", "", "", ""
}

// Submit validates locally and then hands the payload to s. On success the
// fields are cleared and Notice is set. On any failure the fields are kept as
// typed and Error holds a readable explanation.
func (f *Form) Submit(ctx context.Context, s Submitter) error {
	f.Error = ""
	f.Notice = ""

	payload := f.Payload().Normalize()
	if err := payload.Validate(); err != nil {
		f.Error = services.UserMessage(err, "Please check the form and try again.")
		return err
	}

	if err := s.Submit(ctx, payload); err != nil {
		f.Error = errorText(err)
		return err
	}

	f.Reset()
	f.Notice = SentNotice
	return nil
}

func errorText(err error) string {
	var relayErr *RelayError
	if errors.As(err, &relayErr) {
		return relayErr.Error()
	}
	return services.UserMessage(err, "Failed to send message. Please try again.")
}
