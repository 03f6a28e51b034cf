package queue

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the delivery lifecycle of a contact submission.
type Status string

const (
	StatusPending Status = "pending"
	StatusSending Status = "sending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

// InterruptedReason is recorded when a send was in flight while the daemon stopped.
const InterruptedReason = "Delivery interrupted by daemon restart"

var allStatuses = []Status{StatusPending, StatusSending, StatusSent, StatusFailed}

// AllStatuses returns every known status in lifecycle order.
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// ParseStatus converts user input into a Status.
func ParseStatus(value string) (Status, error) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	for _, status := range allStatuses {
		if status == normalized {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown status %q", value)
}

// Submission is one contact form message and its delivery state.
type Submission struct {
	ID         int64
	RequestID  string
	Name       string
	Email      string
	Phone      string
	Subject    string
	Message    string
	RemoteAddr string
	Status     Status
	Attempts   int
	LastError  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
	SentAt     time.Time
}

// IsTerminal reports whether no further delivery work is expected.
func (s Submission) IsTerminal() bool {
	return s.Status == StatusSent || s.Status == StatusFailed
}

// NewSubmission describes a submission to be recorded.
type NewSubmission struct {
	RequestID  string
	Name       string
	Email      string
	Phone      string
	Subject    string
	Message    string
	RemoteAddr string
}

// Stats summarizes the queue by status.
type Stats map[Status]int
