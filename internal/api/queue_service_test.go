package api

import (
	"context"
	"testing"

	"clapper/internal/queue"
	"clapper/internal/testsupport"
)

func TestSubmissionServiceListAndDescribe(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	sub := testsupport.RecordSubmission(t, store, "Ada", "ada@gmail.com")
	if err := store.MarkSending(context.Background(), sub.ID); err != nil {
		t.Fatalf("MarkSending: %v", err)
	}
	if err := store.MarkSent(context.Background(), sub.ID); err != nil {
		t.Fatalf("MarkSent: %v", err)
	}
	testsupport.RecordSubmission(t, store, "Grace", "grace@gmail.com")

	svc := NewSubmissionService(store)
	sent, err := svc.List(context.Background(), 0, queue.StatusSent)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(sent) != 1 || sent[0].Name != "Ada" || sent[0].SentAt == "" {
		t.Fatalf("unexpected sent list %+v", sent)
	}

	stats, err := svc.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats["sent"] != 1 || stats["pending"] != 1 {
		t.Fatalf("unexpected stats %v", stats)
	}

	item, err := svc.Describe(context.Background(), sub.ID)
	if err != nil || item == nil || item.Email == "" {
		t.Fatalf("Describe = %+v, %v", item, err)
	}
	missing, err := svc.Describe(context.Background(), 9999)
	if err != nil || missing != nil {
		t.Fatalf("expected nil for missing id, got %+v, %v", missing, err)
	}
}

func TestNilSubmissionService(t *testing.T) {
	var svc *SubmissionService
	items, err := svc.List(context.Background(), 10)
	if err != nil || items != nil {
		t.Fatalf("expected empty list, got %v, %v", items, err)
	}
}
