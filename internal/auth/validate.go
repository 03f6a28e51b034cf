package auth

import (
	"net/mail"
	"strings"

	"clapper/internal/services"
)

const minPasswordLength = 6

// SignUpRequest carries the fields of the registration form.
type SignUpRequest struct {
	FirstName       string
	LastName        string
	Email           string
	Password        string
	ConfirmPassword string
}

// Normalize trims whitespace and lowercases the email address.
func (r *SignUpRequest) Normalize() {
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	r.Email = normalizeEmail(r.Email)
}

// Validate checks r against domains before any network call is made.
func (r SignUpRequest) Validate(domains []string) error {
	if r.FirstName == "" || r.LastName == "" {
		return services.UserFacing(services.ErrValidation, "Please enter your first and last name.", nil)
	}
	if err := validateEmail(r.Email, domains); err != nil {
		return err
	}
	if len(r.Password) < minPasswordLength {
		return services.UserFacing(services.ErrValidation, "Password should be at least 6 characters", nil)
	}
	if r.Password != r.ConfirmPassword {
		return services.UserFacing(services.ErrValidation, "Passwords do not match", nil)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validateEmail checks syntax and, when domains is non-empty, that the
// address belongs to one of them.
func validateEmail(email string, domains []string) error {
	if email == "" {
		return services.UserFacing(services.ErrValidation, "Please enter your email address.", nil)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return services.UserFacing(services.ErrValidation, "Please enter a valid email address.", err)
	}
	if !allowedDomain(email, domains) {
		return services.UserFacing(services.ErrValidation, domainMessage(domains), nil)
	}
	return nil
}

func allowedDomain(email string, domains []string) bool {
	if len(domains) == 0 {
		return true
	}
	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		return false
	}
	domain := email[at+1:]
	for _, allowed := range domains {
		if strings.EqualFold(domain, strings.TrimSpace(allowed)) {
			return true
		}
	}
	return false
}

func domainMessage(domains []string) string {
	if len(domains) == 1 && strings.EqualFold(domains[0], "gmail.com") {
		return "For now, we accept only valid Gmail addresses"
	}
	return "For now, we accept only addresses at " + strings.Join(domains, ", ")
}
