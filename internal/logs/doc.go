// Package logs reads the daemon's log files for the CLI: the last N lines,
// lines appended since an offset, and a polling follow mode. Lines can be
// filtered, typically by the request id returned to contact form clients.
package logs
