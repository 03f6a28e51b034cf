package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"clapper/internal/config"
	"clapper/internal/logging"
	"clapper/internal/services"
)

// User-facing outcomes of the account flows.
const (
	SignUpMessage           = "Account created successfully! Please check your email to verify your account before signing in."
	VerifyFirstMessage      = "Please verify your email before signing in. Check your inbox for the verification link."
	VerificationSentMessage = "Verification email sent successfully!"
	NoUserMessage           = "No user is currently signed in."
)

// ErrEmailNotVerified marks a sign-in refused because the address is unverified.
var ErrEmailNotVerified = errors.New("email not verified")

// VerificationRequiredError is returned when the credentials were valid but
// the account has not been verified. Ticket allows a later resend.
type VerificationRequiredError struct {
	Ticket string
	Email  string
}

func (e *VerificationRequiredError) Error() string {
	return "email not verified: " + e.Email
}

func (e *VerificationRequiredError) Unwrap() []error {
	return []error{ErrEmailNotVerified, services.UserFacing(services.ErrUnauthorized, VerifyFirstMessage, nil)}
}

// Policy is the account policy enforced on top of the gateway.
type Policy struct {
	EmailDomains              []string
	FederatedRequiresVerified bool
	TicketTTL                 time.Duration
}

// PolicyFromConfig reads the [auth] section.
func PolicyFromConfig(cfg *config.Config) Policy {
	if cfg == nil {
		return Policy{FederatedRequiresVerified: true}
	}
	return Policy{
		EmailDomains:              cfg.Auth.EmailDomains,
		FederatedRequiresVerified: cfg.Auth.FederatedRequiresVerified,
		TicketTTL:                 cfg.VerificationTicketTTL(),
	}
}

// SignUpResult reports a created account. The user is signed out again.
type SignUpResult struct {
	UID     string
	Email   string
	Message string
}

// Service runs the sign-up, sign-in and verification flows.
type Service struct {
	gateway Gateway
	policy  Policy
	logger  *slog.Logger
	tickets *tickets
	caser   cases.Caser
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithPolicy replaces the default policy.
func WithPolicy(p Policy) ServiceOption {
	return func(s *Service) { s.policy = p }
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) { s.logger = logger }
}

// WithClock overrides the clock used for ticket expiry.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.tickets.now = now }
}

// NewService returns a Service over gateway.
func NewService(gateway Gateway, opts ...ServiceOption) *Service {
	s := &Service{
		gateway: gateway,
		policy:  Policy{EmailDomains: []string{"gmail.com"}, FederatedRequiresVerified: true},
		tickets: newTickets(0, nil),
		caser:   cases.Title(language.Und, cases.NoLower),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.policy.TicketTTL > 0 {
		s.tickets.ttl = s.policy.TicketTTL
	}
	s.logger = logging.NewComponentLogger(s.logger, "auth")
	return s
}

// SignUp creates an account, names it, sends the verification email and
// signs out so no unverified session remains.
func (s *Service) SignUp(ctx context.Context, req SignUpRequest) (result *SignUpResult, err error) {
	req.Normalize()
	if err := req.Validate(s.policy.EmailDomains); err != nil {
		return nil, err
	}

	user, err := s.gateway.SignUp(ctx, req.Email, req.Password)
	if err != nil {
		return nil, err
	}
	defer func() {
		if signOutErr := s.gateway.SignOut(context.WithoutCancel(ctx)); signOutErr != nil && err == nil {
			err = signOutErr
		}
	}()

	displayName := s.caser.String(strings.Join([]string{req.FirstName, req.LastName}, " "))
	if err := s.gateway.UpdateProfile(ctx, user, displayName); err != nil {
		return nil, err
	}
	if err := s.gateway.SendVerificationEmail(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("account created",
		logging.String(logging.FieldEventType, "auth_signup"),
		logging.String("uid", user.UID),
	)
	return &SignUpResult{UID: user.UID, Email: user.Email, Message: SignUpMessage}, nil
}

// SignIn authenticates with email and password. An unverified account is
// signed out again and reported as *VerificationRequiredError.
func (s *Service) SignIn(ctx context.Context, email, password string) (*User, error) {
	email = normalizeEmail(email)
	if err := validateEmail(email, s.policy.EmailDomains); err != nil {
		return nil, err
	}
	if password == "" {
		return nil, services.UserFacing(services.ErrValidation, "Please enter your password.", nil)
	}

	user, err := s.gateway.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if !user.EmailVerified {
		return nil, s.rejectUnverified(ctx, user)
	}
	s.logger.Info("signed in",
		logging.String(logging.FieldEventType, "auth_signin"),
		logging.String("uid", user.UID),
		logging.String("provider", ProviderPassword),
	)
	return user, nil
}

// SignInWithGoogle exchanges a Google ID token. Verification gating applies
// only when the policy asks for it.
func (s *Service) SignInWithGoogle(ctx context.Context, idToken string) (*User, error) {
	if strings.TrimSpace(idToken) == "" {
		return nil, services.UserFacing(services.ErrValidation, "Google sign-in failed. Please try again.", nil)
	}
	user, err := s.gateway.SignInWithGoogle(ctx, idToken)
	if err != nil {
		return nil, err
	}
	if s.policy.FederatedRequiresVerified && !user.EmailVerified {
		return nil, s.rejectUnverified(ctx, user)
	}
	s.logger.Info("signed in",
		logging.String(logging.FieldEventType, "auth_signin"),
		logging.String("uid", user.UID),
		logging.String("provider", ProviderGoogle),
	)
	return user, nil
}

func (s *Service) rejectUnverified(ctx context.Context, user *User) error {
	if err := s.gateway.SignOut(context.WithoutCancel(ctx)); err != nil {
		logging.WarnWithContext(s.logger, "sign out of unverified account failed", "auth_signout_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "gateway may still hold an unverified credential"),
		)
	}
	s.logger.Info("sign in refused: email not verified",
		logging.String(logging.FieldEventType, "auth_unverified"),
		logging.String("uid", user.UID),
	)
	return &VerificationRequiredError{Ticket: s.tickets.issue(user), Email: user.Email}
}

// ResendVerification sends another verification email. ticket comes from a
// VerificationRequiredError; when empty the gateway's current user is used.
func (s *Service) ResendVerification(ctx context.Context, ticket string) (string, error) {
	var user *User
	if ticket = strings.TrimSpace(ticket); ticket != "" {
		pending, ok := s.tickets.take(ticket)
		if !ok {
			return "", services.UserFacing(services.ErrNotFound, "This verification request has expired. Please sign in again.", nil)
		}
		user = pending
	} else {
		user = s.gateway.CurrentUser()
	}
	if user == nil {
		return "", services.UserFacing(services.ErrUnauthorized, NoUserMessage, nil)
	}
	if err := s.gateway.SendVerificationEmail(ctx, user); err != nil {
		return "", err
	}
	return VerificationSentMessage, nil
}

// SignOut ends the gateway session.
func (s *Service) SignOut(ctx context.Context) error {
	return s.gateway.SignOut(ctx)
}
