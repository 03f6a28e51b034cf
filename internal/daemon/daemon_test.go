package daemon_test

import (
	"context"
	"testing"

	"clapper/internal/config"
	"clapper/internal/contact"
	"clapper/internal/daemon"
	"clapper/internal/logging"
	"clapper/internal/preflight"
	"clapper/internal/queue"
	"clapper/internal/testsupport"
)

func noChecks(context.Context, *config.Config) []preflight.Result {
	return []preflight.Result{{Name: "Data directory", Passed: true}}
}

func newDaemon(t *testing.T, cfg *config.Config, store *queue.Store) *daemon.Daemon {
	t.Helper()
	relay := contact.NewRelay(&testsupport.Mailer{}, contact.Envelope{From: cfg.Contact.From, To: cfg.Contact.To},
		contact.WithOutbox(store),
	)
	d, err := daemon.New(cfg, store, relay, logging.NewNop(), daemon.WithPreflight(noChecks))
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(d.Stop)
	return d
}

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	d := newDaemon(t, cfg, store)

	ctx := context.Background()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	status := d.Status(ctx)
	if !status.Running {
		t.Fatal("expected daemon to report running")
	}
	if status.APIAddress == "" {
		t.Fatal("expected bound api address")
	}
	if !status.RelayReady {
		t.Fatal("expected relay to be ready")
	}
	if len(status.Checks) != 1 {
		t.Fatalf("expected preflight results, got %d", len(status.Checks))
	}

	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	status = d.Status(ctx)
	if status.Running {
		t.Fatal("expected daemon to be stopped")
	}
	if status.APIAddress != "" {
		t.Fatalf("expected no api address after stop, got %q", status.APIAddress)
	}
}

func TestSecondInstanceIsRejected(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	first := newDaemon(t, cfg, store)
	second := newDaemon(t, cfg, store)

	ctx := context.Background()
	if err := first.Start(ctx); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	if err := second.Start(ctx); err == nil {
		t.Fatal("expected lock contention error")
	}
	first.Stop()
	if err := second.Start(ctx); err != nil {
		t.Fatalf("second Start after release: %v", err)
	}
}

func TestStartRecoversInterruptedSubmissions(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	sub := testsupport.RecordSubmission(t, store, "Ada Lovelace", "ada@gmail.com")
	if err := store.MarkSending(ctx, sub.ID); err != nil {
		t.Fatalf("MarkSending: %v", err)
	}

	d := newDaemon(t, cfg, store)
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}

	got, err := store.Get(ctx, sub.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != queue.StatusFailed {
		t.Fatalf("expected interrupted submission to be failed, got %s", got.Status)
	}
	if d.Status(ctx).Stats[queue.StatusFailed] != 1 {
		t.Fatal("expected failed count of 1 in status")
	}
}

func TestTestNotificationWithoutTopic(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	d := newDaemon(t, cfg, store)

	sent, message, err := d.TestNotification(context.Background())
	if err != nil {
		t.Fatalf("TestNotification: %v", err)
	}
	if sent {
		t.Fatal("expected no notification without a topic")
	}
	if message != "ntfy topic not configured" {
		t.Fatalf("unexpected message %q", message)
	}
}
