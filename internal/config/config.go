package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
}

// Site contains settings for the public site that talks to the daemon.
type Site struct {
	BaseURL        string   `toml:"base_url"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// Contact contains SMTP relay configuration for the contact form.
type Contact struct {
	SMTPHost        string   `toml:"smtp_host"`
	SMTPPort        int      `toml:"smtp_port"`
	SMTPUsername    string   `toml:"smtp_username"`
	SMTPPassword    string   `toml:"smtp_password"`
	From            string   `toml:"from"`
	To              []string `toml:"to"`
	SendTimeout     int      `toml:"send_timeout"`
	ClientTimeout   int      `toml:"client_timeout"`
	MaxRequestBytes int64    `toml:"max_request_bytes"`
}

// Firebase contains identity provider settings.
type Firebase struct {
	APIKey         string `toml:"api_key"`
	ProjectID      string `toml:"project_id"`
	BaseURL        string `toml:"base_url"`
	RequestURI     string `toml:"request_uri"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Auth contains account policy settings layered on top of the identity provider.
type Auth struct {
	EmailDomains              []string `toml:"email_domains"`
	VerificationTicketTTL     int      `toml:"verification_ticket_ttl"`
	FederatedRequiresVerified bool     `toml:"federated_requires_verified"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Contact        bool   `toml:"contact"`
	Errors         bool   `toml:"errors"`
}

// Transition contains timing knobs for route transitions and the intro screen.
type Transition struct {
	TimeScale   float64 `toml:"time_scale"`
	HoldMillis  int     `toml:"hold_ms"`
	IntroMinMS  int     `toml:"intro_min_ms"`
	IntroFadeMS int     `toml:"intro_fade_ms"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for clapper.
//
// Configuration sections by subsystem:
//   - Paths: data and log directories, API bind address and token
//   - Site: relay base URL used by clients and CORS origins
//   - Contact: SMTP relay settings for contact form delivery
//   - Firebase: identity provider REST settings
//   - Auth: email domain and verification policy
//   - Notifications: ntfy push notification settings
//   - Transition: route transition and intro timings
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Site          Site          `toml:"site"`
	Contact       Contact       `toml:"contact"`
	Firebase      Firebase      `toml:"firebase"`
	Auth          Auth          `toml:"auth"`
	Notifications Notifications `toml:"notifications"`
	Transition    Transition    `toml:"transition"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("clapper.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the SQLite database location inside the data directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "clapper.db")
}

// LockPath returns the daemon single-instance lock path.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LogDir, "clapper.lock")
}

// PIDPath returns the daemon pid file path.
func (c *Config) PIDPath() string {
	return filepath.Join(c.Paths.LogDir, "clapper.pid")
}

// ContactEndpoint returns the absolute URL clients post contact submissions to.
func (c *Config) ContactEndpoint() string {
	return strings.TrimRight(c.Site.BaseURL, "/") + "/api/contact"
}

// SMTPConfigured reports whether enough SMTP settings exist to deliver mail.
func (c *Config) SMTPConfigured() bool {
	return strings.TrimSpace(c.Contact.SMTPHost) != "" &&
		strings.TrimSpace(c.Contact.From) != "" &&
		len(c.Contact.To) > 0
}

// SendTimeout returns the per-message SMTP deadline.
func (c *Config) SendTimeout() time.Duration {
	return time.Duration(c.Contact.SendTimeout) * time.Second
}

// ClientTimeout returns the bound applied to contact form submissions from clients.
func (c *Config) ClientTimeout() time.Duration {
	return time.Duration(c.Contact.ClientTimeout) * time.Second
}

// FirebaseTimeout returns the identity provider request timeout.
func (c *Config) FirebaseTimeout() time.Duration {
	return time.Duration(c.Firebase.RequestTimeout) * time.Second
}

// VerificationTicketTTL returns how long a pending resend ticket stays valid.
func (c *Config) VerificationTicketTTL() time.Duration {
	return time.Duration(c.Auth.VerificationTicketTTL) * time.Second
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

const redactedValue = "********"

// Redacted returns a copy with secrets masked, safe to print or log.
func (c Config) Redacted() Config {
	mask := func(s string) string {
		if strings.TrimSpace(s) == "" {
			return ""
		}
		return redactedValue
	}
	out := c
	out.Paths.APIToken = mask(c.Paths.APIToken)
	out.Contact.SMTPPassword = mask(c.Contact.SMTPPassword)
	out.Firebase.APIKey = mask(c.Firebase.APIKey)
	out.Notifications.NtfyTopic = mask(c.Notifications.NtfyTopic)
	return out
}
