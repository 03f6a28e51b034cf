package auth_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"clapper/internal/auth"
	"clapper/internal/services"
)

func TestSignInRejectsUnverifiedUser(t *testing.T) {
	gw := newStubGateway(&auth.User{UID: "u1", Email: "ada@gmail.com", EmailVerified: false})
	session := auth.NewSession(gw, nil, nil)
	if err := session.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}
	svc := auth.NewService(gw)

	user, err := svc.SignIn(context.Background(), "ada@gmail.com", "secret1")
	if user != nil {
		t.Fatalf("expected no user, got %+v", user)
	}
	if !errors.Is(err, auth.ErrEmailNotVerified) {
		t.Fatalf("expected ErrEmailNotVerified, got %v", err)
	}
	var verr *auth.VerificationRequiredError
	if !errors.As(err, &verr) || verr.Ticket == "" {
		t.Fatalf("expected resend ticket, got %v", err)
	}
	if msg := services.UserMessage(err, ""); msg != auth.VerifyFirstMessage {
		t.Fatalf("unexpected message %q", msg)
	}
	if session.IsAuthenticated() {
		t.Fatal("session must not be authenticated")
	}
	if gw.CurrentUser() != nil || gw.signOuts != 1 {
		t.Fatalf("expected gateway signed out once, current=%v signOuts=%d", gw.CurrentUser(), gw.signOuts)
	}

	msg, err := svc.ResendVerification(context.Background(), verr.Ticket)
	if err != nil || msg != auth.VerificationSentMessage {
		t.Fatalf("ResendVerification = %q, %v", msg, err)
	}
	if gw.verifications != 1 {
		t.Fatalf("expected one verification email, got %d", gw.verifications)
	}
}

func TestSignInVerifiedUser(t *testing.T) {
	gw := newStubGateway(&auth.User{UID: "u1", Email: "ada@gmail.com", EmailVerified: true})
	mirror := &auth.MemoryMirror{}
	session := auth.NewSession(gw, mirror, nil)
	if err := session.Init(context.Background()); err != nil {
		t.Fatalf("Init: %v", err)
	}

	user, err := auth.NewService(gw).SignIn(context.Background(), " Ada@Gmail.com ", "secret1")
	if err != nil || user == nil {
		t.Fatalf("SignIn: %v", err)
	}
	snap, ok := session.Current()
	if !ok || snap.UID != "u1" {
		t.Fatalf("expected mirrored session, got %+v ok=%v", snap, ok)
	}
	if stored, ok, _ := mirror.Load(context.Background()); !ok || stored.UID != "u1" {
		t.Fatalf("expected mirror to hold u1, got %+v", stored)
	}
}

func TestSignInValidation(t *testing.T) {
	gw := newStubGateway(&auth.User{UID: "u1", EmailVerified: true})
	svc := auth.NewService(gw)
	tests := []struct {
		name, email, password, want string
	}{
		{"non gmail", "ada@example.com", "secret1", "For now, we accept only valid Gmail addresses"},
		{"malformed", "ada", "secret1", "Please enter a valid email address."},
		{"no password", "ada@gmail.com", "", "Please enter your password."},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SignIn(context.Background(), tt.email, tt.password)
			if !errors.Is(err, services.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if got := services.UserMessage(err, ""); got != tt.want {
				t.Fatalf("message = %q, want %q", got, tt.want)
			}
		})
	}
	if gw.CurrentUser() != nil {
		t.Fatal("validation failures must not reach the gateway")
	}
}

func TestSignUpSignsOutAndSendsVerification(t *testing.T) {
	gw := newStubGateway(nil)
	session := auth.NewSession(gw, nil, nil)
	_ = session.Init(context.Background())

	res, err := auth.NewService(gw).SignUp(context.Background(), auth.SignUpRequest{
		FirstName:       "ada",
		LastName:        "lovelace",
		Email:           "ada@gmail.com",
		Password:        "secret1",
		ConfirmPassword: "secret1",
	})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if res.Message != auth.SignUpMessage {
		t.Fatalf("unexpected message %q", res.Message)
	}
	if gw.displayName != "Ada Lovelace" {
		t.Fatalf("display name = %q", gw.displayName)
	}
	if gw.verifications != 1 || gw.signOuts != 1 || gw.CurrentUser() != nil {
		t.Fatalf("expected verification + sign out, got verifications=%d signOuts=%d", gw.verifications, gw.signOuts)
	}
	if session.IsAuthenticated() {
		t.Fatal("new accounts must not be authenticated")
	}
}

func TestSignUpPasswordMismatch(t *testing.T) {
	gw := newStubGateway(nil)
	_, err := auth.NewService(gw).SignUp(context.Background(), auth.SignUpRequest{
		FirstName: "Ada", LastName: "Lovelace", Email: "ada@gmail.com",
		Password: "secret1", ConfirmPassword: "secret2",
	})
	if services.UserMessage(err, "") != "Passwords do not match" {
		t.Fatalf("unexpected error %v", err)
	}
	if gw.signOuts != 0 {
		t.Fatal("gateway must not be called")
	}
}

func TestGoogleSignInPolicy(t *testing.T) {
	unverified := &auth.User{UID: "g1", Email: "ada@gmail.com", Provider: auth.ProviderGoogle}

	gw := newStubGateway(unverified)
	_, err := auth.NewService(gw).SignInWithGoogle(context.Background(), "google-token")
	if !errors.Is(err, auth.ErrEmailNotVerified) {
		t.Fatalf("expected verification gate, got %v", err)
	}

	gw = newStubGateway(unverified)
	svc := auth.NewService(gw, auth.WithPolicy(auth.Policy{FederatedRequiresVerified: false}))
	user, err := svc.SignInWithGoogle(context.Background(), "google-token")
	if err != nil || user == nil {
		t.Fatalf("expected bypass when policy allows, got %v", err)
	}
}

func TestResendTicketExpires(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	gw := newStubGateway(&auth.User{UID: "u1", Email: "ada@gmail.com"})
	svc := auth.NewService(gw,
		auth.WithPolicy(auth.Policy{EmailDomains: []string{"gmail.com"}, TicketTTL: time.Minute}),
		auth.WithClock(func() time.Time { return now }),
	)
	_, err := svc.SignIn(context.Background(), "ada@gmail.com", "secret1")
	var verr *auth.VerificationRequiredError
	if !errors.As(err, &verr) {
		t.Fatalf("expected verification error, got %v", err)
	}
	now = now.Add(2 * time.Minute)
	if _, err := svc.ResendVerification(context.Background(), verr.Ticket); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected expired ticket, got %v", err)
	}
	if _, err := svc.ResendVerification(context.Background(), ""); services.UserMessage(err, "") != auth.NoUserMessage {
		t.Fatalf("expected no-user message, got %v", err)
	}
}
