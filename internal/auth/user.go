package auth

import "time"

// Provider identifiers reported by the identity provider.
const (
	ProviderPassword = "password"
	ProviderGoogle   = "google.com"
)

// User is an identity as reported by the gateway. The credential fields are
// only meaningful to the gateway that issued them.
type User struct {
	UID           string
	Email         string
	DisplayName   string
	PhotoURL      string
	EmailVerified bool
	Provider      string
	CreatedAt     time.Time
	LastSignInAt  time.Time

	idToken      string
	refreshToken string
}

// Snapshot is the serializable view of a signed-in, verified user that views
// render and the mirror persists.
type Snapshot struct {
	UID           string    `json:"uid"`
	Email         string    `json:"email"`
	DisplayName   string    `json:"displayName,omitempty"`
	PhotoURL      string    `json:"photoURL,omitempty"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt,omitzero"`
	LastSignInAt  time.Time `json:"lastSignIn,omitzero"`
}

// Snapshot projects u into its persisted form.
func (u *User) Snapshot() Snapshot {
	if u == nil {
		return Snapshot{}
	}
	return Snapshot{
		UID:           u.UID,
		Email:         u.Email,
		DisplayName:   u.DisplayName,
		PhotoURL:      u.PhotoURL,
		EmailVerified: u.EmailVerified,
		CreatedAt:     u.CreatedAt,
		LastSignInAt:  u.LastSignInAt,
	}
}

// Name returns the display name, falling back to the email address.
func (s Snapshot) Name() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return s.Email
}
