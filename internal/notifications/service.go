package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"clapper/internal/config"
)

const userAgent = "clapper/0.1.0"

// Service is what the relay and daemon call when something worth a push happens.
type Service interface {
	NotifyContactReceived(ctx context.Context, name, email, subject string) error
	NotifyContactFailed(ctx context.Context, name, email string, cause error) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService publishes to the configured ntfy topic URL, or drops everything
// when no topic is set.
func NewService(cfg *config.Config) Service {
	if cfg == nil {
		return noopService{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}
	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		topicURL: topic,
		siteURL:  strings.TrimRight(strings.TrimSpace(cfg.Site.BaseURL), "/"),
		client:   &http.Client{Timeout: timeout},
		enabled: map[kind]bool{
			kindContact: cfg.Notifications.Contact,
			kindError:   cfg.Notifications.Errors,
			kindTest:    true,
		},
	}
}

type kind int

const (
	kindContact kind = iota
	kindError
	kindTest
)

type priority string

const (
	priorityDefault priority = ""
	priorityLow     priority = "low"
	priorityHigh    priority = "high"
)

type push struct {
	kind     kind
	title    string
	body     string
	tags     []string
	priority priority
	click    string
}

type ntfyService struct {
	topicURL string
	siteURL  string
	client   *http.Client
	enabled  map[kind]bool
}

func (n *ntfyService) NotifyContactReceived(ctx context.Context, name, email, subject string) error {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = "No Subject"
	}
	return n.publish(ctx, push{
		kind:  kindContact,
		title: "Clapper - New Inquiry",
		body:  fmt.Sprintf("✉️ %s\n%s", sender(name, email), subject),
		tags:  []string{"clapper", "contact", "received"},
		click: n.siteURL,
	})
}

func (n *ntfyService) NotifyContactFailed(ctx context.Context, name, email string, cause error) error {
	return n.publish(ctx, push{
		kind:     kindContact,
		title:    "Clapper - Inquiry Not Delivered",
		body:     fmt.Sprintf("Message from %s was stored but not emailed: %s", sender(name, email), reason(cause)),
		tags:     []string{"clapper", "contact", "failed"},
		priority: priorityHigh,
	})
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, label string) error {
	heading := "❌ Error"
	if label = strings.TrimSpace(label); label != "" {
		heading += " with " + label
	}
	return n.publish(ctx, push{
		kind:     kindError,
		title:    "Clapper - Error",
		body:     heading + ": " + reason(err),
		tags:     []string{"clapper", "error", "alert"},
		priority: priorityHigh,
	})
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	return n.publish(ctx, push{
		kind:     kindTest,
		title:    "Clapper - Test",
		body:     "🧪 Notification system test",
		tags:     []string{"clapper", "test"},
		priority: priorityLow,
	})
}

func (n *ntfyService) publish(ctx context.Context, p push) error {
	if n == nil || n.client == nil || !n.enabled[p.kind] {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.topicURL, strings.NewReader(p.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	req.Header.Set("Title", p.title)
	req.Header.Set("Tags", strings.Join(p.tags, ","))
	if p.priority != priorityDefault {
		req.Header.Set("Priority", string(p.priority))
	}
	if p.click != "" {
		req.Header.Set("Click", p.click)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func sender(name, email string) string {
	return fmt.Sprintf("%s <%s>", strings.TrimSpace(name), strings.TrimSpace(email))
}

func reason(err error) string {
	if err == nil {
		return "unknown"
	}
	return strings.TrimSpace(err.Error())
}

type noopService struct{}

func (noopService) NotifyContactReceived(context.Context, string, string, string) error { return nil }
func (noopService) NotifyContactFailed(context.Context, string, string, error) error    { return nil }
func (noopService) NotifyError(context.Context, error, string) error                    { return nil }
func (noopService) TestNotification(context.Context) error                              { return nil }

// NewNoop returns a Service that drops every notification.
func NewNoop() Service { return noopService{} }
