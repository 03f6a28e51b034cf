// Package daemonctl starts, stops, and queries the clapper daemon from the CLI.
package daemonctl
