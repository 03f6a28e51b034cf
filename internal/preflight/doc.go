// Package preflight provides readiness checks for the directories and
// external services clapper depends on.
//
// The daemon runs RunAll at startup and logs failures without refusing to
// start; the CLI "clapper status" command renders the same results.
package preflight
