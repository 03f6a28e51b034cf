// Package services defines shared utilities consumed by the contact relay,
// the auth flows, and the HTTP API.
//
// Key responsibilities:
//   - Context helpers that stamp submission IDs, transition phases, and
//     correlation identifiers for logging and tracing.
//   - Structured error markers plus the Wrap helper, and UserFacing errors whose
//     message is safe to return to site visitors.
//   - HTTPStatus, which maps classified failures to response codes.
//
// Use these helpers when wiring new components so error handling and
// observability stay uniform across the daemon and CLI.
package services
