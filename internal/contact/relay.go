package contact

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"clapper/internal/logging"
	"clapper/internal/notifications"
	"clapper/internal/queue"
	"clapper/internal/services"
)

// SuccessMessage is returned to visitors after delivery.
const SuccessMessage = "Email sent successfully!"

// DeliveryFailedMessage is shown when the message could not be emailed.
const DeliveryFailedMessage = "We couldn't send your message right now. Please try again later."

// Outbox records submissions and their delivery state. queue.Store satisfies it.
type Outbox interface {
	Record(ctx context.Context, in queue.NewSubmission) (*queue.Submission, error)
	MarkSending(ctx context.Context, id int64) error
	MarkSent(ctx context.Context, id int64) error
	MarkFailed(ctx context.Context, id int64, reason string) error
}

// Meta carries request details that are stored but not emailed.
type Meta struct {
	RequestID  string
	RemoteAddr string
}

// Relay accepts contact submissions, stores them, and forwards them by email.
type Relay struct {
	outbox      Outbox
	mailer      Mailer
	notifier    notifications.Service
	envelope    Envelope
	sendTimeout time.Duration
	logger      *slog.Logger
}

// RelayOption customizes a Relay.
type RelayOption func(*Relay)

// WithOutbox persists submissions before delivery.
func WithOutbox(outbox Outbox) RelayOption {
	return func(r *Relay) { r.outbox = outbox }
}

// WithNotifier publishes delivery outcomes.
func WithNotifier(n notifications.Service) RelayOption {
	return func(r *Relay) {
		if n != nil {
			r.notifier = n
		}
	}
}

// WithSendTimeout bounds each SMTP delivery.
func WithSendTimeout(d time.Duration) RelayOption {
	return func(r *Relay) {
		if d > 0 {
			r.sendTimeout = d
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) RelayOption {
	return func(r *Relay) { r.logger = logger }
}

// NewRelay builds a relay. A nil mailer leaves the relay unable to deliver;
// submissions are still stored and reported as failed.
func NewRelay(mailer Mailer, envelope Envelope, opts ...RelayOption) *Relay {
	r := &Relay{
		mailer:      mailer,
		envelope:    envelope,
		notifier:    notifications.NewNoop(),
		sendTimeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.NewComponentLogger(r.logger, "contact")
	return r
}

// Configured reports whether the relay has a mailer and recipients.
func (r *Relay) Configured() bool {
	return r != nil && r.mailer != nil && r.envelope.From != "" && len(r.envelope.To) > 0
}

// Submit validates, stores, and emails a submission. Validation failures are
// returned before anything is stored. The stored record, when one exists, is
// returned even if delivery fails.
func (r *Relay) Submit(ctx context.Context, p Payload, meta Meta) (*queue.Submission, error) {
	p = p.Normalize()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if meta.RequestID == "" {
		meta.RequestID = uuid.NewString()
	}
	ctx = services.WithRequestID(ctx, meta.RequestID)
	logger := logging.WithContext(ctx, r.logger)

	sub := r.record(ctx, logger, p, meta)
	if sub != nil {
		ctx = services.WithSubmissionID(ctx, sub.ID)
		logger = logging.WithContext(ctx, r.logger)
	}

	if !r.Configured() {
		err := services.UserFacing(services.ErrConfiguration, DeliveryFailedMessage, errors.New("smtp relay not configured"))
		r.fail(ctx, logger, sub, p, err)
		return sub, err
	}

	msg, err := Compose(p, r.envelope)
	if err != nil {
		wrapped := services.UserFacing(services.ErrTransient, DeliveryFailedMessage, err)
		r.fail(ctx, logger, sub, p, wrapped)
		return sub, wrapped
	}

	if sub != nil {
		if err := r.outbox.MarkSending(ctx, sub.ID); err != nil {
			logging.WarnWithContext(logger, "submission status not updated", "contact_status_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "submission list may show a stale status"),
			)
		}
	}

	sendCtx, cancel := context.WithTimeout(ctx, r.sendTimeout)
	defer cancel()
	started := time.Now()
	if err := r.mailer.Send(sendCtx, msg); err != nil {
		marker := services.ErrTransient
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(sendCtx.Err(), context.DeadlineExceeded) {
			marker = services.ErrTimeout
		}
		wrapped := services.UserFacing(marker, DeliveryFailedMessage, err)
		r.fail(ctx, logger, sub, p, wrapped)
		return sub, wrapped
	}

	if sub != nil {
		if err := r.outbox.MarkSent(ctx, sub.ID); err != nil {
			logging.WarnWithContext(logger, "submission status not updated", "contact_status_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "delivered message still listed as sending"),
			)
		}
		sub.Status = queue.StatusSent
	}
	logger.Info("contact message delivered",
		logging.String(logging.FieldEventType, "contact_delivered"),
		logging.String("subject", p.DisplaySubject()),
		logging.Duration("send_duration", time.Since(started)),
	)
	if err := r.notifier.NotifyContactReceived(ctx, p.Name, p.Email, p.Subject); err != nil {
		logger.Debug("contact notification failed", logging.Error(err))
	}
	return sub, nil
}

func (r *Relay) record(ctx context.Context, logger *slog.Logger, p Payload, meta Meta) *queue.Submission {
	if r.outbox == nil {
		return nil
	}
	sub, err := r.outbox.Record(ctx, queue.NewSubmission{
		RequestID:  meta.RequestID,
		Name:       p.Name,
		Email:      p.Email,
		Phone:      p.Phone,
		Subject:    p.Subject,
		Message:    p.Message,
		RemoteAddr: meta.RemoteAddr,
	})
	if err != nil {
		logging.WarnWithContext(logger, "submission not stored; delivering anyway", "contact_store_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the data directory and database file"),
			logging.String(logging.FieldImpact, "message will not appear in the submission list"),
		)
		return nil
	}
	return sub
}

func (r *Relay) fail(ctx context.Context, logger *slog.Logger, sub *queue.Submission, p Payload, err error) {
	logging.ErrorWithContext(logger, "contact message not delivered", "contact_delivery_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorHint, "check [contact] SMTP settings and run 'clapper status'"),
	)
	if sub != nil {
		if markErr := r.outbox.MarkFailed(ctx, sub.ID, err.Error()); markErr != nil {
			logger.Warn("submission failure not recorded", logging.Error(markErr))
		}
		sub.Status = queue.StatusFailed
		sub.LastError = err.Error()
	}
	if notifyErr := r.notifier.NotifyContactFailed(ctx, p.Name, p.Email, err); notifyErr != nil {
		logger.Debug("failure notification failed", logging.Error(notifyErr))
	}
}
