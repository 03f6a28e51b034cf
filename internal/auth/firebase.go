package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"clapper/internal/config"
	"clapper/internal/logging"
	"clapper/internal/services"
)

const (
	defaultFirebaseBaseURL = "https://identitytoolkit.googleapis.com/v1"
	defaultRequestURI      = "http://localhost"
	defaultHTTPTimeout     = 15 * time.Second
	lookupAttempts         = 3
	lookupRetryDelay       = 250 * time.Millisecond
)

// FirebaseGateway implements Gateway over the Identity Toolkit REST API.
type FirebaseGateway struct {
	apiKey     string
	baseURL    string
	requestURI string
	httpClient *http.Client
	logger     *slog.Logger
	sleep      func(context.Context, time.Duration) error

	mu      sync.Mutex
	current *User
	subs    map[int]func(*User)
	nextSub int
}

// FirebaseOption customizes a FirebaseGateway.
type FirebaseOption func(*FirebaseGateway)

// WithBaseURL points the gateway at an alternate endpoint (emulator or test server).
func WithBaseURL(base string) FirebaseOption {
	return func(g *FirebaseGateway) {
		if base = strings.TrimRight(strings.TrimSpace(base), "/"); base != "" {
			g.baseURL = base
		}
	}
}

// WithRequestURI sets the continue URI sent with federated sign-ins.
func WithRequestURI(uri string) FirebaseOption {
	return func(g *FirebaseGateway) {
		if uri = strings.TrimSpace(uri); uri != "" {
			g.requestURI = uri
		}
	}
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) FirebaseOption {
	return func(g *FirebaseGateway) {
		if client != nil {
			g.httpClient = client
		}
	}
}

// WithGatewayLogger attaches a logger.
func WithGatewayLogger(logger *slog.Logger) FirebaseOption {
	return func(g *FirebaseGateway) { g.logger = logger }
}

// NewFirebaseGateway returns a gateway for the project identified by apiKey.
func NewFirebaseGateway(apiKey string, opts ...FirebaseOption) *FirebaseGateway {
	g := &FirebaseGateway{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    defaultFirebaseBaseURL,
		requestURI: defaultRequestURI,
		httpClient: &http.Client{Timeout: defaultHTTPTimeout},
		subs:       make(map[int]func(*User)),
		sleep:      sleepContext,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.logger = logging.NewComponentLogger(g.logger, "auth")
	return g
}

// NewFirebaseGatewayFromConfig builds a gateway from the [firebase] section.
func NewFirebaseGatewayFromConfig(cfg *config.Config, logger *slog.Logger) (*FirebaseGateway, error) {
	if err := cfg.RequireFirebase(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "auth", "gateway", "", err)
	}
	return NewFirebaseGateway(cfg.Firebase.APIKey,
		WithBaseURL(cfg.Firebase.BaseURL),
		WithRequestURI(cfg.Firebase.RequestURI),
		WithHTTPClient(&http.Client{Timeout: cfg.FirebaseTimeout()}),
		WithGatewayLogger(logger),
	), nil
}

type tokenResponse struct {
	LocalID       string `json:"localId"`
	Email         string `json:"email"`
	DisplayName   string `json:"displayName"`
	PhotoURL      string `json:"photoUrl"`
	EmailVerified bool   `json:"emailVerified"`
	ProviderID    string `json:"providerId"`
	IDToken       string `json:"idToken"`
	RefreshToken  string `json:"refreshToken"`
}

type lookupResponse struct {
	Users []struct {
		LocalID       string `json:"localId"`
		Email         string `json:"email"`
		DisplayName   string `json:"displayName"`
		PhotoURL      string `json:"photoUrl"`
		EmailVerified bool   `json:"emailVerified"`
		CreatedAt     string `json:"createdAt"`
		LastLoginAt   string `json:"lastLoginAt"`
	} `json:"users"`
}

// SignUp creates a password account and makes it the current user.
func (g *FirebaseGateway) SignUp(ctx context.Context, email, password string) (*User, error) {
	var resp tokenResponse
	if err := g.call(ctx, "signUp", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &resp); err != nil {
		return nil, fmt.Errorf("sign up: %w", err)
	}
	user := g.userFromToken(resp, ProviderPassword)
	g.refresh(ctx, user)
	g.setCurrent(user)
	return user, nil
}

// SignIn authenticates a password account and makes it the current user.
func (g *FirebaseGateway) SignIn(ctx context.Context, email, password string) (*User, error) {
	var resp tokenResponse
	if err := g.call(ctx, "signInWithPassword", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &resp); err != nil {
		return nil, fmt.Errorf("sign in: %w", err)
	}
	user := g.userFromToken(resp, ProviderPassword)
	g.refresh(ctx, user)
	g.setCurrent(user)
	return user, nil
}

// SignInWithGoogle exchanges a Google ID token for a session.
func (g *FirebaseGateway) SignInWithGoogle(ctx context.Context, googleIDToken string) (*User, error) {
	postBody := url.Values{}
	postBody.Set("id_token", googleIDToken)
	postBody.Set("providerId", ProviderGoogle)

	var resp tokenResponse
	if err := g.call(ctx, "signInWithIdp", map[string]any{
		"postBody":            postBody.Encode(),
		"requestUri":          g.requestURI,
		"returnIdpCredential": true,
		"returnSecureToken":   true,
	}, &resp); err != nil {
		return nil, fmt.Errorf("google sign in: %w", err)
	}
	user := g.userFromToken(resp, ProviderGoogle)
	g.refresh(ctx, user)
	g.setCurrent(user)
	return user, nil
}

// UpdateProfile sets the display name on user.
func (g *FirebaseGateway) UpdateProfile(ctx context.Context, user *User, displayName string) error {
	if user == nil || user.idToken == "" {
		return services.UserFacing(services.ErrUnauthorized, "No user is currently signed in.", nil)
	}
	var resp tokenResponse
	if err := g.call(ctx, "update", map[string]any{
		"idToken":           user.idToken,
		"displayName":       displayName,
		"returnSecureToken": false,
	}, &resp); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	user.DisplayName = displayName
	if g.CurrentUser() == user {
		g.notify(user)
	}
	return nil
}

// SendVerificationEmail asks the provider to email a verification link to user.
func (g *FirebaseGateway) SendVerificationEmail(ctx context.Context, user *User) error {
	if user == nil || user.idToken == "" {
		return services.UserFacing(services.ErrUnauthorized, "No user is currently signed in.", nil)
	}
	if err := g.call(ctx, "sendOobCode", map[string]any{
		"requestType": "VERIFY_EMAIL",
		"idToken":     user.idToken,
	}, nil); err != nil {
		return fmt.Errorf("send verification: %w", err)
	}
	return nil
}

// SignOut forgets the current user. The provider keeps no server-side session
// for REST clients, so this is local only.
func (g *FirebaseGateway) SignOut(context.Context) error {
	g.setCurrent(nil)
	return nil
}

// CurrentUser returns the signed-in user or nil.
func (g *FirebaseGateway) CurrentUser() *User {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}

// Subscribe registers fn for current-user changes.
func (g *FirebaseGateway) Subscribe(fn func(*User)) func() {
	g.mu.Lock()
	id := g.nextSub
	g.nextSub++
	g.subs[id] = fn
	g.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.subs, id)
			g.mu.Unlock()
		})
	}
}

// Reload fetches the latest account state for user, including verification.
func (g *FirebaseGateway) Reload(ctx context.Context, user *User) error {
	if user == nil || user.idToken == "" {
		return services.UserFacing(services.ErrUnauthorized, "No user is currently signed in.", nil)
	}
	var resp lookupResponse
	err := g.withRetry(ctx, func() error {
		return g.call(ctx, "lookup", map[string]any{"idToken": user.idToken}, &resp)
	})
	if err != nil {
		return fmt.Errorf("lookup: %w", err)
	}
	if len(resp.Users) == 0 {
		return services.Wrap(services.ErrNotFound, "auth", "lookup", "account no longer exists", nil)
	}
	info := resp.Users[0]
	user.Email = firstNonEmpty(info.Email, user.Email)
	user.DisplayName = firstNonEmpty(info.DisplayName, user.DisplayName)
	user.PhotoURL = firstNonEmpty(info.PhotoURL, user.PhotoURL)
	user.EmailVerified = info.EmailVerified
	if ts, ok := parseMillis(info.CreatedAt); ok {
		user.CreatedAt = ts
	}
	if ts, ok := parseMillis(info.LastLoginAt); ok {
		user.LastSignInAt = ts
	}
	return nil
}

// refresh fills in verification state and timestamps. The token endpoints
// omit them, so a failed lookup leaves the conservative defaults in place.
func (g *FirebaseGateway) refresh(ctx context.Context, user *User) {
	if err := g.Reload(ctx, user); err != nil {
		logging.WarnWithContext(g.logger, "account lookup failed", "auth_lookup_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "user treated as unverified until the next sign-in"),
		)
	}
}

func (g *FirebaseGateway) userFromToken(resp tokenResponse, provider string) *User {
	return &User{
		UID:           resp.LocalID,
		Email:         resp.Email,
		DisplayName:   resp.DisplayName,
		PhotoURL:      resp.PhotoURL,
		EmailVerified: resp.EmailVerified,
		Provider:      firstNonEmpty(resp.ProviderID, provider),
		LastSignInAt:  time.Now().UTC(),
		idToken:       resp.IDToken,
		refreshToken:  resp.RefreshToken,
	}
}

func (g *FirebaseGateway) setCurrent(user *User) {
	g.mu.Lock()
	changed := g.current != user
	g.current = user
	g.mu.Unlock()
	if changed {
		g.notify(user)
	}
}

func (g *FirebaseGateway) notify(user *User) {
	g.mu.Lock()
	subs := make([]func(*User), 0, len(g.subs))
	for _, fn := range g.subs {
		subs = append(subs, fn)
	}
	g.mu.Unlock()
	for _, fn := range subs {
		fn(user)
	}
}

func (g *FirebaseGateway) call(ctx context.Context, method string, body any, out any) error {
	endpoint := g.baseURL + "/accounts:" + method + "?key=" + url.QueryEscape(g.apiKey)
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%s: encode body: %w", method, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("%s: new request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return services.UserFacing(services.ErrTimeout, "The sign-in service took too long to respond. Please try again.", err)
		}
		return services.UserFacing(services.ErrTransient, "Could not reach the sign-in service. Please try again.", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%s: read body: %w", method, err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return providerError(resp.StatusCode, raw)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%s: decode response: %w", method, err)
	}
	return nil
}

func (g *FirebaseGateway) withRetry(ctx context.Context, op func() error) error {
	var err error
	for attempt := 1; attempt <= lookupAttempts; attempt++ {
		err = op()
		if err == nil || !retryable(err) || attempt == lookupAttempts {
			return err
		}
		if sleepErr := g.sleep(ctx, time.Duration(attempt)*lookupRetryDelay); sleepErr != nil {
			return sleepErr
		}
	}
	return err
}

func retryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Status == http.StatusTooManyRequests || pe.Status >= http.StatusInternalServerError
	}
	return errors.Is(err, services.ErrTransient) && !errors.Is(err, context.Canceled)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func parseMillis(raw string) (time.Time, bool) {
	ms, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}, false
	}
	return time.UnixMilli(ms).UTC(), true
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
