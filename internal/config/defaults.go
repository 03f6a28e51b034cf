package config

const (
	defaultConfigPath            = "~/.config/clapper/config.toml"
	defaultDataDir               = "~/.local/share/clapper"
	defaultLogDir                = "~/.local/share/clapper/logs"
	defaultLogRetentionDays      = 30
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultAPIBind               = "127.0.0.1:8787"
	defaultSiteBaseURL           = "http://127.0.0.1:8787"
	defaultSMTPHost              = "smtp.gmail.com"
	defaultSMTPPort              = 587
	defaultSendTimeout           = 30
	defaultClientTimeout         = 15
	defaultMaxRequestBytes       = 64 << 10
	defaultFirebaseBaseURL       = "https://identitytoolkit.googleapis.com/v1"
	defaultFirebaseRequestURI    = "http://localhost"
	defaultFirebaseTimeout       = 15
	defaultVerificationTicketTTL = 600
	defaultNotifyRequestTimeout  = 10
	defaultTimeScale             = 1.0
	defaultHoldMillis            = 500
	defaultIntroMinMS            = 2500
	defaultIntroFadeMS           = 1000
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir: defaultDataDir,
			LogDir:  defaultLogDir,
			APIBind: defaultAPIBind,
		},
		Site: Site{
			BaseURL: defaultSiteBaseURL,
		},
		Contact: Contact{
			SMTPHost:        defaultSMTPHost,
			SMTPPort:        defaultSMTPPort,
			SendTimeout:     defaultSendTimeout,
			ClientTimeout:   defaultClientTimeout,
			MaxRequestBytes: defaultMaxRequestBytes,
		},
		Firebase: Firebase{
			BaseURL:        defaultFirebaseBaseURL,
			RequestURI:     defaultFirebaseRequestURI,
			RequestTimeout: defaultFirebaseTimeout,
		},
		Auth: Auth{
			EmailDomains:              []string{"gmail.com"},
			VerificationTicketTTL:     defaultVerificationTicketTTL,
			FederatedRequiresVerified: true,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Contact:        true,
			Errors:         true,
		},
		Transition: Transition{
			TimeScale:   defaultTimeScale,
			HoldMillis:  defaultHoldMillis,
			IntroMinMS:  defaultIntroMinMS,
			IntroFadeMS: defaultIntroFadeMS,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
