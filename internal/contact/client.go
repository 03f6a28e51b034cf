package contact

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"clapper/internal/services"
)

// DefaultClientTimeout bounds a submission when no timeout is configured.
const DefaultClientTimeout = 15 * time.Second

// Response is the JSON body returned by POST /api/contact.
type Response struct {
	Success   bool   `json:"success"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// RelayError reports a non-2xx response from the relay.
type RelayError struct {
	Status  int
	Message string
}

func (e *RelayError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("contact relay returned %d", e.Status)
	}
	return e.Message
}

// Submitter sends a payload to the relay.
type Submitter interface {
	Submit(ctx context.Context, p Payload) error
}

// Client posts contact submissions to a relay endpoint.
type Client struct {
	endpoint   string
	httpClient *http.Client
	timeout    time.Duration
}

// ClientOption customizes a Client.
type ClientOption func(*Client)

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

// WithTimeout bounds each submission, including waiting for the response.
func WithTimeout(d time.Duration) ClientOption {
	return func(cl *Client) {
		if d > 0 {
			cl.timeout = d
		}
	}
}

// NewClient returns a client for the relay at endpoint (the full /api/contact URL).
func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint:   strings.TrimSpace(endpoint),
		httpClient: http.DefaultClient,
		timeout:    DefaultClientTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Submit posts p and waits for the relay's verdict.
func (c *Client) Submit(ctx context.Context, p Payload) error {
	body, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build contact request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return services.UserFacing(services.ErrTimeout, "The contact service took too long to respond. Please try again.", err)
		}
		return services.UserFacing(services.ErrTransient, "Could not reach the contact service. Please try again.", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var decoded Response
	decodeErr := json.Unmarshal(raw, &decoded)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if decodeErr == nil && !decoded.Success && decoded.Error != "" {
			return &RelayError{Status: resp.StatusCode, Message: decoded.Error}
		}
		return nil
	}

	message := strings.TrimSpace(decoded.Error)
	if message == "" {
		message = fmt.Sprintf("Failed to send message (HTTP %d).", resp.StatusCode)
	}
	return &RelayError{Status: resp.StatusCode, Message: message}
}
