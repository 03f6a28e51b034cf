package auth

import "context"

// Gateway is the identity provider as consumed by the auth flows. It tracks a
// current user the way client SDKs do and pushes every change to subscribers.
type Gateway interface {
	SignUp(ctx context.Context, email, password string) (*User, error)
	SignIn(ctx context.Context, email, password string) (*User, error)
	SignInWithGoogle(ctx context.Context, googleIDToken string) (*User, error)
	UpdateProfile(ctx context.Context, user *User, displayName string) error
	SendVerificationEmail(ctx context.Context, user *User) error
	SignOut(ctx context.Context) error
	CurrentUser() *User
	// Subscribe registers fn for subsequent current-user changes; nil means
	// signed out. It is not invoked for the state at registration time.
	Subscribe(fn func(*User)) (unsubscribe func())
}
