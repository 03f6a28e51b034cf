// Package daemon runs the long-lived clapper relay process.
//
// It owns the flock-based single-instance lock, recovers submissions that were
// interrupted mid-send, runs readiness checks, and serves the HTTP API: the
// public contact endpoint used by the site plus token-protected status and
// submission listings for operators.
package daemon
