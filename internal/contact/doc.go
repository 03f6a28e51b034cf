// Package contact implements both ends of the studio contact form.
//
// On the daemon side, Relay validates a Payload, records it in the queue,
// composes the studio-facing email (reply-to set to the visitor), and sends it
// through a Mailer with a bounded timeout. On the client side, Client posts to
// the relay and Form keeps the visitor's input intact whenever a submission
// fails.
package contact
