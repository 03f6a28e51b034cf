package testsupport

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"clapper/internal/config"
	"clapper/internal/queue"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// RecordSubmission inserts a pending submission with plausible defaults.
func RecordSubmission(t testing.TB, store *queue.Store, name, email string) *queue.Submission {
	t.Helper()

	sub, err := store.Record(context.Background(), queue.NewSubmission{
		RequestID: uuid.NewString(),
		Name:      name,
		Email:     email,
		Subject:   "Project inquiry",
		Message:   "We would like to talk about a short film.",
	})
	if err != nil {
		t.Fatalf("store.Record: %v", err)
	}
	return sub
}
