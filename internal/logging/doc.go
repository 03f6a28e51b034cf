// Package logging builds the slog loggers used by the daemon and the CLI.
//
// Console output is one line per record with the component up front and the
// request id spelled out, so `clapper logs --request` can find every line of
// one contact submission. JSON output uses short keys (ts, level, msg). The
// WarnWithContext and ErrorWithContext helpers make sure every warning carries
// its impact and the operator's next step.
package logging
