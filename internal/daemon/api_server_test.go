package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"clapper/internal/api"
	"clapper/internal/config"
	"clapper/internal/contact"
	"clapper/internal/logging"
	"clapper/internal/preflight"
	"clapper/internal/queue"
	"clapper/internal/testsupport"
)

const testToken = "secret-token"

type apiFixture struct {
	handler http.Handler
	store   *queue.Store
	mailer  *testsupport.Mailer
}

func newAPIFixture(t *testing.T, opts ...testsupport.ConfigOption) apiFixture {
	t.Helper()
	cfg := testsupport.NewConfig(t, append([]testsupport.ConfigOption{testsupport.WithAPIToken(testToken)}, opts...)...)
	cfg.Site.AllowedOrigins = []string{"https://1not2.example"}
	store := testsupport.MustOpenStore(t, cfg)
	mailer := &testsupport.Mailer{}
	relay := contact.NewRelay(mailer, contact.Envelope{From: cfg.Contact.From, To: cfg.Contact.To},
		contact.WithOutbox(store),
	)
	d, err := New(cfg, store, relay, logging.NewNop(), WithPreflight(func(context.Context, *config.Config) []preflight.Result {
		return nil
	}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	srv, err := newAPIServer(cfg, d, logging.NewNop())
	if err != nil {
		t.Fatalf("newAPIServer: %v", err)
	}
	return apiFixture{handler: srv.routes(testToken), store: store, mailer: mailer}
}

func (f apiFixture) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	f.handler.ServeHTTP(w, req)
	return w
}

func contactRequest(t *testing.T, payload contact.Payload) *http.Request {
	t.Helper()
	body, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/contact", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func decodeContact(t *testing.T, w *httptest.ResponseRecorder) contact.Response {
	t.Helper()
	var resp contact.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v (%s)", err, w.Body.String())
	}
	return resp
}

func validPayload() contact.Payload {
	return contact.Payload{
		Name:    "Grace Hopper",
		Email:   "grace@gmail.com",
		Subject: "Commercial shoot",
		Message: "We need a crew for two days in May.",
	}
}

func TestContactDelivered(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(contactRequest(t, validPayload()))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decodeContact(t, w)
	if !resp.Success || resp.Message != contact.SuccessMessage {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.RequestID == "" || w.Header().Get(requestIDHeader) != resp.RequestID {
		t.Fatalf("expected request id echoed, header=%q body=%q", w.Header().Get(requestIDHeader), resp.RequestID)
	}
	if len(f.mailer.Sent()) != 1 {
		t.Fatalf("expected one email, got %d", len(f.mailer.Sent()))
	}

	subs, err := f.store.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(subs) != 1 || subs[0].Status != queue.StatusSent || subs[0].RequestID != resp.RequestID {
		t.Fatalf("unexpected stored submissions %+v", subs)
	}
}

func TestContactValidationFailure(t *testing.T) {
	f := newAPIFixture(t)
	payload := validPayload()
	payload.Email = "not-an-email"

	w := f.do(contactRequest(t, payload))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	resp := decodeContact(t, w)
	if resp.Success || resp.Error == "" {
		t.Fatalf("expected failure with message, got %+v", resp)
	}
	if len(f.mailer.Sent()) != 0 {
		t.Fatal("expected no email for invalid payload")
	}
	stats, err := f.store.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if len(stats) != 0 {
		t.Fatalf("expected nothing stored, got %v", stats)
	}
}

func TestContactDeliveryFailure(t *testing.T) {
	f := newAPIFixture(t)
	f.mailer.Err = errors.New("535 authentication failed")

	w := f.do(contactRequest(t, validPayload()))
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", w.Code)
	}
	resp := decodeContact(t, w)
	if resp.Success || resp.Error != contact.DeliveryFailedMessage {
		t.Fatalf("unexpected response %+v", resp)
	}
	if strings.Contains(w.Body.String(), "535") {
		t.Fatal("provider error leaked to client")
	}
	subs, err := f.store.List(context.Background(), 0, queue.StatusFailed)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(subs) != 1 {
		t.Fatalf("expected one failed submission, got %d", len(subs))
	}
}

func TestContactRejectsMalformedBody(t *testing.T) {
	f := newAPIFixture(t)
	req := httptest.NewRequest(http.MethodPost, "/api/contact", strings.NewReader("{"))

	w := f.do(req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
	if decodeContact(t, w).Error != "Invalid request body." {
		t.Fatalf("unexpected body %s", w.Body.String())
	}
}

func TestContactMethodNotAllowed(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(httptest.NewRequest(http.MethodGet, "/api/contact", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
	if w.Header().Get("Allow") != "POST, OPTIONS" {
		t.Fatalf("unexpected Allow header %q", w.Header().Get("Allow"))
	}
	if decodeContact(t, w).Success {
		t.Fatal("expected success=false")
	}
}

func TestContactCORSPreflight(t *testing.T) {
	f := newAPIFixture(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/contact", nil)
	req.Header.Set("Origin", "https://1not2.example")
	w := f.do(req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "https://1not2.example" {
		t.Fatalf("missing allow-origin header: %v", w.Header())
	}

	req = httptest.NewRequest(http.MethodOptions, "/api/contact", nil)
	req.Header.Set("Origin", "https://elsewhere.example")
	w = f.do(req)
	if w.Header().Get("Access-Control-Allow-Origin") != "" {
		t.Fatal("unexpected allow-origin for unlisted origin")
	}
}

func TestRequestIDHonoured(t *testing.T) {
	f := newAPIFixture(t)
	const id = "0b7c6a5e-6d1c-4f9a-9a57-7c1f0f8f2b11"

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, id)
	w := f.do(req)
	if w.Header().Get(requestIDHeader) != id {
		t.Fatalf("expected %s, got %s", id, w.Header().Get(requestIDHeader))
	}

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "../../etc")
	w = f.do(req)
	if got := w.Header().Get(requestIDHeader); got == "" || got == "../../etc" {
		t.Fatalf("expected generated request id, got %q", got)
	}
}

func authed(req *http.Request) *http.Request {
	req.Header.Set("Authorization", "Bearer "+testToken)
	return req
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	f := newAPIFixture(t)

	for _, path := range []string{"/api/status", "/api/contact/submissions", "/api/contact/submissions/1"} {
		w := f.do(httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, w.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := f.do(req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token: expected 401, got %d", w.Code)
	}
	if w.Header().Get("WWW-Authenticate") == "" {
		t.Fatal("expected WWW-Authenticate challenge")
	}
	var body api.ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil || body.Error != "unauthorized" || body.RequestID == "" {
		t.Fatalf("unexpected 401 body %q (err=%v)", w.Body.String(), err)
	}
}

func TestSubmissionRoutes(t *testing.T) {
	f := newAPIFixture(t)
	first := testsupport.RecordSubmission(t, f.store, "Ada Lovelace", "ada@gmail.com")
	testsupport.RecordSubmission(t, f.store, "Alan Turing", "alan@gmail.com")
	if err := f.store.MarkSent(context.Background(), first.ID); err != nil {
		t.Fatalf("MarkSent: %v", err)
	}

	w := f.do(authed(httptest.NewRequest(http.MethodGet, "/api/contact/submissions?status=pending", nil)))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var list api.SubmissionListResponse
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(list.Items) != 1 || list.Items[0].Name != "Alan Turing" {
		t.Fatalf("unexpected items %+v", list.Items)
	}

	w = f.do(authed(httptest.NewRequest(http.MethodGet, "/api/contact/submissions?status=bogus", nil)))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad status, got %d", w.Code)
	}

	w = f.do(authed(httptest.NewRequest(http.MethodGet, "/api/contact/submissions/"+strconv.FormatInt(first.ID, 10), nil)))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var item api.SubmissionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &item); err != nil {
		t.Fatalf("decode item: %v", err)
	}
	if item.Item.Status != string(queue.StatusSent) {
		t.Fatalf("unexpected status %q", item.Item.Status)
	}

	w = f.do(authed(httptest.NewRequest(http.MethodGet, "/api/contact/submissions/9999", nil)))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestStatusRoute(t *testing.T) {
	f := newAPIFixture(t)
	testsupport.RecordSubmission(t, f.store, "Ada Lovelace", "ada@gmail.com")

	w := f.do(authed(httptest.NewRequest(http.MethodGet, "/api/status", nil)))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var status api.DaemonStatus
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.SubmissionStats[string(queue.StatusPending)] != 1 {
		t.Fatalf("unexpected stats %v", status.SubmissionStats)
	}
	if !status.RelayReady {
		t.Fatal("expected relay ready")
	}
}

func TestTestNotificationRoute(t *testing.T) {
	f := newAPIFixture(t, testsupport.WithNtfyTopic("https://ntfy.example/clapper"))

	w := f.do(authed(httptest.NewRequest(http.MethodGet, "/api/notifications/test", nil)))
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}

	w = f.do(authed(httptest.NewRequest(http.MethodPost, "/api/notifications/test", nil)))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp api.NotificationResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Sent {
		t.Fatalf("expected sent, got %+v", resp)
	}
}
