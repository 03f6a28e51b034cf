// Package auth layers the studio's account policy on top of an external
// identity provider.
//
// The provider is consumed through Gateway; FirebaseGateway talks to the
// Identity Toolkit REST API. Service owns the policy: allowed email domains,
// sign-out after sign-up, and refusing sessions whose email is unverified.
// Session mirrors the verified user into a Mirror so it survives restarts.
package auth
