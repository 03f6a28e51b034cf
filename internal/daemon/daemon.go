package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"clapper/internal/config"
	"clapper/internal/contact"
	"clapper/internal/logging"
	"clapper/internal/notifications"
	"clapper/internal/preflight"
	"clapper/internal/queue"
)

// Daemon serves the contact relay API and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *queue.Store
	relay    *contact.Relay
	notifier notifications.Service
	checks   func(context.Context, *config.Config) []preflight.Result

	lockPath string
	lock     *flock.Flock

	mu        sync.Mutex
	api       *apiServer
	results   []preflight.Result
	startedAt time.Time

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	DatabasePath string
	LockFilePath string
	APIAddress   string
	RelayReady   bool
	StartedAt    time.Time
	Stats        queue.Stats
	Checks       []preflight.Result
}

// Option customizes a Daemon.
type Option func(*Daemon)

// WithNotifier sets the notifier used for test notifications and errors.
func WithNotifier(n notifications.Service) Option {
	return func(d *Daemon) {
		if n != nil {
			d.notifier = n
		}
	}
}

// WithPreflight replaces the readiness checks run at startup.
func WithPreflight(fn func(context.Context, *config.Config) []preflight.Result) Option {
	return func(d *Daemon) {
		if fn != nil {
			d.checks = fn
		}
	}
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *queue.Store, relay *contact.Relay, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil || store == nil || relay == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, relay, and logger")
	}

	lockPath := cfg.LockPath()
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		relay:    relay,
		notifier: notifications.NewNoop(),
		checks:   preflight.RunAll,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Start acquires the daemon lock, recovers interrupted submissions and starts
// the API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another clapper daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)

	recovered, err := d.store.ResetInterrupted(d.ctx)
	if err != nil {
		d.abortStart()
		return fmt.Errorf("recover interrupted submissions: %w", err)
	}
	if recovered > 0 {
		logging.WarnWithContext(d.logger, "interrupted submissions marked failed", "daemon_recovered_submissions",
			logging.Int64("count", recovered),
			logging.String(logging.FieldImpact, "those visitors were not emailed"),
			logging.String(logging.FieldErrorHint, "review with clapper contact list --status failed"),
		)
	}

	results := d.checks(d.ctx, d.cfg)
	for _, r := range preflight.Failed(results) {
		logging.WarnWithContext(d.logger, "preflight check failed", "preflight_failed",
			logging.String("check", r.Name),
			logging.String("detail", r.Detail),
			logging.String(logging.FieldImpact, "daemon continues; affected feature may not work"),
		)
	}
	if !d.relay.Configured() {
		logging.WarnWithContext(d.logger, "contact relay has no mailer", "relay_unconfigured",
			logging.String(logging.FieldImpact, "submissions are stored and reported as failed"),
			logging.String(logging.FieldErrorHint, "set contact.smtp_host, contact.from and contact.to"),
		)
	}

	srv, err := newAPIServer(d.cfg, d, d.logger)
	if err != nil {
		d.abortStart()
		return err
	}
	if err := srv.start(d.ctx); err != nil {
		d.abortStart()
		return err
	}

	d.mu.Lock()
	d.api = srv
	d.results = results
	d.startedAt = time.Now().UTC()
	d.mu.Unlock()

	d.running.Store(true)
	d.logger.Info("clapper daemon started",
		logging.String("lock", d.lockPath),
		logging.String("api", srv.address()),
	)
	return nil
}

func (d *Daemon) abortStart() {
	if d.cancel != nil {
		d.cancel()
	}
	_ = d.lock.Unlock()
	d.ctx, d.cancel = nil, nil
}

// Stop shuts down the API server and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	d.mu.Lock()
	srv := d.api
	d.api = nil
	d.mu.Unlock()
	srv.stop()

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "daemon_lock_release_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "next start may report a running instance"),
		)
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("clapper daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// APIAddress returns the bound API address while running.
func (d *Daemon) APIAddress() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.api.address()
}

// TestNotification triggers a test notification using the current configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	stats, err := d.store.Stats(ctx)
	if err != nil {
		logging.WarnWithContext(d.logger, "submission stats unavailable", "daemon_stats_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "status reports no counts"),
		)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		DatabasePath: d.store.Path(),
		LockFilePath: d.lockPath,
		APIAddress:   d.api.address(),
		RelayReady:   d.relay.Configured(),
		StartedAt:    d.startedAt,
		Stats:        stats,
		Checks:       append([]preflight.Result(nil), d.results...),
	}
}
