package contact

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wneessen/go-mail"

	"clapper/internal/config"
)

// Mailer delivers composed messages.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// SMTPSettings describes how to reach the outgoing mail server.
type SMTPSettings struct {
	Host     string
	Port     int
	Username string
	Password string
	Timeout  time.Duration
}

// SMTPMailer sends messages through an authenticated SMTP submission server.
type SMTPMailer struct {
	settings SMTPSettings
}

// NewSMTPMailer validates settings and returns a mailer.
func NewSMTPMailer(settings SMTPSettings) (*SMTPMailer, error) {
	if settings.Host == "" {
		return nil, errors.New("smtp host is required")
	}
	if settings.Port <= 0 {
		settings.Port = 587
	}
	if settings.Timeout <= 0 {
		settings.Timeout = 30 * time.Second
	}
	return &SMTPMailer{settings: settings}, nil
}

// NewSMTPMailerFromConfig builds a mailer from the [contact] section. It
// returns nil when SMTP is not configured.
func NewSMTPMailerFromConfig(cfg *config.Config) (*SMTPMailer, error) {
	if cfg == nil || !cfg.SMTPConfigured() {
		return nil, nil
	}
	return NewSMTPMailer(SMTPSettings{
		Host:     cfg.Contact.SMTPHost,
		Port:     cfg.Contact.SMTPPort,
		Username: cfg.Contact.SMTPUsername,
		Password: cfg.Contact.SMTPPassword,
		Timeout:  cfg.SendTimeout(),
	})
}

// Send dials the server, delivers msg, and closes the connection.
func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	out, err := buildMsg(msg)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(m.settings.Host, m.clientOptions()...)
	if err != nil {
		return fmt.Errorf("create smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, out); err != nil {
		return fmt.Errorf("deliver via %s:%d: %w", m.settings.Host, m.settings.Port, err)
	}
	return nil
}

func (m *SMTPMailer) clientOptions() []mail.Option {
	opts := []mail.Option{
		mail.WithPort(m.settings.Port),
		mail.WithTimeout(m.settings.Timeout),
	}
	if m.settings.Port == 465 {
		opts = append(opts, mail.WithSSL())
	} else {
		opts = append(opts, mail.WithTLSPolicy(mail.TLSMandatory))
	}
	if m.settings.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.settings.Username),
			mail.WithPassword(m.settings.Password),
		)
	}
	return opts
}

func buildMsg(msg Message) (*mail.Msg, error) {
	out := mail.NewMsg()
	if err := out.From(msg.From); err != nil {
		return nil, fmt.Errorf("set from %q: %w", msg.From, err)
	}
	if err := out.To(msg.To...); err != nil {
		return nil, fmt.Errorf("set recipients: %w", err)
	}
	if msg.ReplyTo != "" {
		if err := out.ReplyTo(msg.ReplyTo); err != nil {
			return nil, fmt.Errorf("set reply-to %q: %w", msg.ReplyTo, err)
		}
	}
	out.Subject(msg.Subject)
	out.SetDate()
	out.SetMessageID()
	out.SetBodyString(mail.TypeTextPlain, msg.Text)
	if msg.HTML != "" {
		out.AddAlternativeString(mail.TypeTextHTML, msg.HTML)
	}
	return out, nil
}
