// Package queue persists contact submissions in SQLite and tracks their
// delivery lifecycle.
//
// Every submission is recorded as pending before the relay attempts SMTP
// delivery, then moves to sending and finally sent or failed. Submissions left
// in sending by a crashed daemon are failed on the next start instead of being
// resent. A small key/value table sits alongside so client-side state (the
// mirrored auth session) can share the same database file.
//
// Schema changes bump schemaVersion in schema.go; older databases are rejected
// and must be deleted.
package queue
