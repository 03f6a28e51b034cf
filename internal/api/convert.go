package api

import (
	"slices"
	"time"

	"clapper/internal/preflight"
	"clapper/internal/queue"
)

// FromSubmission converts a stored submission to its API representation.
func FromSubmission(sub *queue.Submission) Submission {
	if sub == nil {
		return Submission{}
	}
	return Submission{
		ID:         sub.ID,
		RequestID:  sub.RequestID,
		Name:       sub.Name,
		Email:      sub.Email,
		Phone:      sub.Phone,
		Subject:    sub.Subject,
		Message:    sub.Message,
		RemoteAddr: sub.RemoteAddr,
		Status:     string(sub.Status),
		Attempts:   sub.Attempts,
		LastError:  sub.LastError,
		CreatedAt:  formatTime(sub.CreatedAt),
		UpdatedAt:  formatTime(sub.UpdatedAt),
		SentAt:     formatTime(sub.SentAt),
	}
}

// FromSubmissions converts a slice of stored submissions into API DTOs.
func FromSubmissions(subs []*queue.Submission) []Submission {
	if len(subs) == 0 {
		return nil
	}
	out := make([]Submission, 0, len(subs))
	for _, sub := range subs {
		out = append(out, FromSubmission(sub))
	}
	return out
}

// MergeStats converts status counts into string keys, including zero
// counts for every known status so consumers see a stable shape.
func MergeStats(stats queue.Stats) map[string]int {
	out := make(map[string]int, len(stats))
	for _, status := range queue.AllStatuses() {
		out[string(status)] = 0
	}
	for status, count := range stats {
		out[string(status)] = count
	}
	return out
}

// FromChecks converts preflight results, sorted by name.
func FromChecks(results []preflight.Result) []CheckStatus {
	if len(results) == 0 {
		return nil
	}
	out := make([]CheckStatus, 0, len(results))
	for _, r := range results {
		out = append(out, CheckStatus{Name: r.Name, Passed: r.Passed, Detail: r.Detail})
	}
	slices.SortStableFunc(out, func(a, b CheckStatus) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		default:
			return 0
		}
	})
	return out
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}
