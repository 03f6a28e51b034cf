package contact_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"clapper/internal/contact"
	"clapper/internal/queue"
	"clapper/internal/services"
	"clapper/internal/testsupport"
)

type fakeMailer struct {
	mu   sync.Mutex
	sent []contact.Message
	err  error
	wait bool
}

func (m *fakeMailer) Send(ctx context.Context, msg contact.Message) error {
	if m.wait {
		<-ctx.Done()
		return ctx.Err()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

type recordingNotifier struct {
	received int
	failed   int
}

func (n *recordingNotifier) NotifyContactReceived(context.Context, string, string, string) error {
	n.received++
	return nil
}

func (n *recordingNotifier) NotifyContactFailed(context.Context, string, string, error) error {
	n.failed++
	return nil
}

func (n *recordingNotifier) NotifyError(context.Context, error, string) error { return nil }

func (n *recordingNotifier) TestNotification(context.Context) error { return nil }

var studio = contact.Envelope{From: "relay@gmail.com", To: []string{"studio@1not2.example"}}

func validPayload() contact.Payload {
	return contact.Payload{Name: "Ada", Email: "ada@gmail.com", Subject: "Hi", Message: "Let's shoot"}
}

func TestRelaySubmitDeliversAndRecords(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	mailer := &fakeMailer{}
	notifier := &recordingNotifier{}
	relay := contact.NewRelay(mailer, studio, contact.WithOutbox(store), contact.WithNotifier(notifier))

	sub, err := relay.Submit(context.Background(), validPayload(), contact.Meta{RequestID: "req-1", RemoteAddr: "203.0.113.9"})
	if err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if sub == nil || sub.Status != queue.StatusSent {
		t.Fatalf("expected sent submission, got %+v", sub)
	}
	if len(mailer.sent) != 1 || mailer.sent[0].ReplyTo != "ada@gmail.com" {
		t.Fatalf("unexpected sent messages: %+v", mailer.sent)
	}
	stored, err := store.Get(context.Background(), sub.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored.Status != queue.StatusSent || stored.Attempts != 1 || stored.RequestID != "req-1" || stored.RemoteAddr != "203.0.113.9" {
		t.Fatalf("unexpected stored submission: %+v", stored)
	}
	if notifier.received != 1 || notifier.failed != 0 {
		t.Fatalf("unexpected notifications: %+v", notifier)
	}
}

func TestRelaySubmitRejectsInvalidWithoutStoring(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	mailer := &fakeMailer{}
	relay := contact.NewRelay(mailer, studio, contact.WithOutbox(store))

	_, err := relay.Submit(context.Background(), contact.Payload{Name: "Ada"}, contact.Meta{})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(mailer.sent) != 0 {
		t.Fatal("expected no mail for invalid payload")
	}
	stats, _ := store.Stats(context.Background())
	if len(stats) != 0 {
		t.Fatalf("expected nothing stored, got %v", stats)
	}
}

func TestRelaySubmitRecordsFailure(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	notifier := &recordingNotifier{}
	relay := contact.NewRelay(&fakeMailer{err: errors.New("535 auth failed")}, studio,
		contact.WithOutbox(store), contact.WithNotifier(notifier))

	sub, err := relay.Submit(context.Background(), validPayload(), contact.Meta{})
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if services.UserMessage(err, "") != contact.DeliveryFailedMessage {
		t.Fatalf("unexpected user message %q", services.UserMessage(err, ""))
	}
	stored, getErr := store.Get(context.Background(), sub.ID)
	if getErr != nil {
		t.Fatalf("Get: %v", getErr)
	}
	if stored.Status != queue.StatusFailed || stored.LastError == "" {
		t.Fatalf("expected failed with reason, got %+v", stored)
	}
	if stored.RequestID == "" {
		t.Fatal("expected generated request id")
	}
	if notifier.failed != 1 {
		t.Fatalf("expected failure notification, got %+v", notifier)
	}
}

func TestRelaySubmitTimesOut(t *testing.T) {
	relay := contact.NewRelay(&fakeMailer{wait: true}, studio, contact.WithSendTimeout(20*time.Millisecond))
	_, err := relay.Submit(context.Background(), validPayload(), contact.Meta{})
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestRelayWithoutMailerFailsButStores(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	relay := contact.NewRelay(nil, studio, contact.WithOutbox(store))
	if relay.Configured() {
		t.Fatal("expected relay without mailer to be unconfigured")
	}
	sub, err := relay.Submit(context.Background(), validPayload(), contact.Meta{})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if sub == nil || sub.Status != queue.StatusFailed {
		t.Fatalf("expected failed stored submission, got %+v", sub)
	}
}
