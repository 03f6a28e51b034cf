package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeSite()
	c.normalizeContact()
	c.normalizeFirebase()
	c.normalizeAuth()
	c.normalizeNotifications()
	c.normalizeTransition()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.APIBind = strings.TrimSpace(c.Paths.APIBind)
	if c.Paths.APIBind == "" {
		c.Paths.APIBind = defaultAPIBind
	}
	c.Paths.APIToken = strings.TrimSpace(c.Paths.APIToken)
	if c.Paths.APIToken == "" {
		if value, ok := os.LookupEnv("CLAPPER_API_TOKEN"); ok {
			c.Paths.APIToken = strings.TrimSpace(value)
		}
	}
	return nil
}

func (c *Config) normalizeSite() {
	c.Site.BaseURL = strings.TrimRight(strings.TrimSpace(c.Site.BaseURL), "/")
	if c.Site.BaseURL == "" {
		c.Site.BaseURL = defaultSiteBaseURL
	}
	c.Site.AllowedOrigins = trimList(c.Site.AllowedOrigins, false)
}

func (c *Config) normalizeContact() {
	c.Contact.SMTPHost = strings.TrimSpace(c.Contact.SMTPHost)
	c.Contact.SMTPUsername = strings.TrimSpace(c.Contact.SMTPUsername)
	if c.Contact.SMTPPassword == "" {
		if value, ok := os.LookupEnv("CLAPPER_SMTP_PASSWORD"); ok {
			c.Contact.SMTPPassword = value
		} else if value, ok := os.LookupEnv("SMTP_PASSWORD"); ok {
			c.Contact.SMTPPassword = value
		}
	}
	c.Contact.From = strings.TrimSpace(c.Contact.From)
	if c.Contact.From == "" {
		c.Contact.From = c.Contact.SMTPUsername
	}
	c.Contact.To = trimList(c.Contact.To, false)
	if c.Contact.SMTPPort <= 0 {
		c.Contact.SMTPPort = defaultSMTPPort
	}
	if c.Contact.SendTimeout <= 0 {
		c.Contact.SendTimeout = defaultSendTimeout
	}
	if c.Contact.ClientTimeout <= 0 {
		c.Contact.ClientTimeout = defaultClientTimeout
	}
	if c.Contact.MaxRequestBytes <= 0 {
		c.Contact.MaxRequestBytes = defaultMaxRequestBytes
	}
}

func (c *Config) normalizeFirebase() {
	c.Firebase.APIKey = strings.TrimSpace(c.Firebase.APIKey)
	if c.Firebase.APIKey == "" {
		if value, ok := os.LookupEnv("FIREBASE_API_KEY"); ok {
			c.Firebase.APIKey = strings.TrimSpace(value)
		}
	}
	c.Firebase.ProjectID = strings.TrimSpace(c.Firebase.ProjectID)
	c.Firebase.BaseURL = strings.TrimRight(strings.TrimSpace(c.Firebase.BaseURL), "/")
	if c.Firebase.BaseURL == "" {
		c.Firebase.BaseURL = defaultFirebaseBaseURL
	}
	c.Firebase.RequestURI = strings.TrimSpace(c.Firebase.RequestURI)
	if c.Firebase.RequestURI == "" {
		c.Firebase.RequestURI = defaultFirebaseRequestURI
	}
	if c.Firebase.RequestTimeout <= 0 {
		c.Firebase.RequestTimeout = defaultFirebaseTimeout
	}
}

func (c *Config) normalizeAuth() {
	c.Auth.EmailDomains = trimList(c.Auth.EmailDomains, true)
	if c.Auth.VerificationTicketTTL <= 0 {
		c.Auth.VerificationTicketTTL = defaultVerificationTicketTTL
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNotifyRequestTimeout
	}
}

func (c *Config) normalizeTransition() {
	if c.Transition.TimeScale == 0 {
		c.Transition.TimeScale = defaultTimeScale
	}
	if c.Transition.HoldMillis == 0 {
		c.Transition.HoldMillis = defaultHoldMillis
	}
	if c.Transition.IntroMinMS == 0 {
		c.Transition.IntroMinMS = defaultIntroMinMS
	}
	if c.Transition.IntroFadeMS == 0 {
		c.Transition.IntroFadeMS = defaultIntroFadeMS
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

func trimList(values []string, lower bool) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		value = strings.TrimSpace(value)
		if lower {
			value = strings.ToLower(value)
		}
		if value == "" {
			continue
		}
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return out
}
