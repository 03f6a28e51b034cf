package config

import (
	"errors"
	"fmt"
	"net"
	"net/mail"
	"net/url"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateSite(); err != nil {
		return err
	}
	if err := c.validateContact(); err != nil {
		return err
	}
	if err := c.validateFirebase(); err != nil {
		return err
	}
	if err := c.validateTransition(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if _, _, err := net.SplitHostPort(c.Paths.APIBind); err != nil {
		return fmt.Errorf("paths.api_bind must be host:port: %w", err)
	}
	return nil
}

func (c *Config) validateSite() error {
	parsed, err := url.Parse(c.Site.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("site.base_url must be an absolute URL, got %q", c.Site.BaseURL)
	}
	for _, origin := range c.Site.AllowedOrigins {
		if origin == "*" {
			continue
		}
		if parsed, err := url.Parse(origin); err != nil || parsed.Scheme == "" || parsed.Host == "" {
			return fmt.Errorf("site.allowed_origins entry %q must be an origin like https://example.com", origin)
		}
	}
	return nil
}

func (c *Config) validateContact() error {
	if c.Contact.SMTPPort > 65535 {
		return errors.New("contact.smtp_port must be a valid TCP port")
	}
	if c.Contact.From != "" {
		if _, err := mail.ParseAddress(c.Contact.From); err != nil {
			return fmt.Errorf("contact.from %q is not a valid address: %w", c.Contact.From, err)
		}
	}
	for _, addr := range c.Contact.To {
		if _, err := mail.ParseAddress(addr); err != nil {
			return fmt.Errorf("contact.to entry %q is not a valid address: %w", addr, err)
		}
	}
	if c.Contact.SMTPUsername != "" && c.Contact.SMTPPassword == "" {
		return errors.New("contact.smtp_password is required when contact.smtp_username is set. Set CLAPPER_SMTP_PASSWORD or edit the config file")
	}
	return nil
}

func (c *Config) validateFirebase() error {
	parsed, err := url.Parse(c.Firebase.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("firebase.base_url must be an absolute URL, got %q", c.Firebase.BaseURL)
	}
	return nil
}

// RequireFirebase reports a configuration error when identity provider
// credentials are missing. Only commands that talk to the provider call it.
func (c *Config) RequireFirebase() error {
	if strings.TrimSpace(c.Firebase.APIKey) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigPath
		}
		return fmt.Errorf("firebase.api_key is required. Set FIREBASE_API_KEY env var or edit %s (create with 'clapper config init')", defaultPath)
	}
	return nil
}

func (c *Config) validateTransition() error {
	if c.Transition.TimeScale < 0 {
		return errors.New("transition.time_scale must be positive")
	}
	if c.Transition.HoldMillis < 0 || c.Transition.IntroMinMS < 0 || c.Transition.IntroFadeMS < 0 {
		return errors.New("transition durations must not be negative")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}
