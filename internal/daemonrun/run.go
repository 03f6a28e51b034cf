package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"

	"clapper/internal/config"
	"clapper/internal/contact"
	"clapper/internal/daemon"
	"clapper/internal/logging"
	"clapper/internal/notifications"
	"clapper/internal/queue"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
}

// Run starts the clapper daemon and blocks until the context is cancelled or
// the process receives SIGINT/SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("clapper-%s.log", runID))
	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:            level,
		Format:           cfg.Logging.Format,
		OutputPaths:      []string{"stdout", logPath},
		ErrorOutputPaths: []string{"stderr", logPath},
		Development:      opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	sessionID := uuid.NewString()
	logger = logging.WithSession(logger, sessionID)

	logConfigSnapshot(logger, cfg)
	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update clapper.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "clapper-*.log", Exclude: []string{logPath}},
	)

	pidPath := cfg.PIDPath()
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	store, err := queue.Open(cfg)
	if err != nil {
		logger.Error("open submission store", logging.Error(err))
		return err
	}

	notifier := notifications.NewService(cfg)
	relay, err := buildRelay(cfg, store, notifier, logger)
	if err != nil {
		_ = store.Close()
		return err
	}

	d, err := daemon.New(cfg, store, relay, logger, daemon.WithNotifier(notifier))
	if err != nil {
		_ = store.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		logging.ErrorWithContext(logger, "daemon start failed", "daemon_start_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check paths.api_bind and that no other instance is running"),
		)
		return err
	}

	<-signalCtx.Done()
	logger.Info("clapper daemon shutting down")
	return nil
}

// buildRelay wires the SMTP mailer when configured. Without SMTP settings the
// relay still stores submissions and reports delivery as failed.
func buildRelay(cfg *config.Config, store *queue.Store, notifier notifications.Service, logger *slog.Logger) (*contact.Relay, error) {
	envelope := contact.Envelope{From: cfg.Contact.From, To: cfg.Contact.To}
	opts := []contact.RelayOption{
		contact.WithOutbox(store),
		contact.WithNotifier(notifier),
		contact.WithSendTimeout(cfg.SendTimeout()),
		contact.WithLogger(logger),
	}

	smtp, err := contact.NewSMTPMailerFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("configure smtp mailer: %w", err)
	}
	if smtp == nil {
		return contact.NewRelay(nil, envelope, opts...), nil
	}
	return contact.NewRelay(smtp, envelope, opts...), nil
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "clapper.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logConfigSnapshot(logger *slog.Logger, cfg *config.Config) {
	if logger == nil || cfg == nil {
		return
	}
	logger.Info("configuration snapshot",
		logging.String(logging.FieldEventType, "config_snapshot"),
		logging.String("api_bind", cfg.Paths.APIBind),
		logging.Bool("api_token_set", cfg.Paths.APIToken != ""),
		logging.Bool("smtp_configured", cfg.SMTPConfigured()),
		logging.String("smtp_host", cfg.Contact.SMTPHost),
		logging.Int("smtp_port", cfg.Contact.SMTPPort),
		logging.Int("recipients", len(cfg.Contact.To)),
		logging.Bool("firebase_key_present", cfg.Firebase.APIKey != ""),
		logging.Bool("ntfy_configured", cfg.Notifications.NtfyTopic != ""),
		logging.Int("allowed_origins", len(cfg.Site.AllowedOrigins)),
	)
}
