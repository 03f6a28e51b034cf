// Package main hosts the clapper CLI.
//
// The Cobra command tree runs the relay daemon, reports its status over the
// daemon API, inspects stored contact submissions, drives the account flows
// against the identity provider, and previews route transitions headlessly.
package main
