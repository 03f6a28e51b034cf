package contact_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"clapper/internal/contact"
	"clapper/internal/services"
)

func filledForm() *contact.Form {
	return &contact.Form{
		Name:    "Ada",
		Email:   "ada@gmail.com",
		Phone:   "555-0100",
		Subject: "Short film",
		Message: "We have a script.",
	}
}

func stubRelay(t *testing.T, status int, body string) (*httptest.Server, *int) {
	t.Helper()
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		var p contact.Payload
		if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if p.Email != "ada@gmail.com" {
			t.Errorf("unexpected payload %+v", p)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func TestFormSubmitSuccessResetsFields(t *testing.T) {
	srv, _ := stubRelay(t, http.StatusOK, `{"success":true,"message":"Email sent successfully!"}`)
	form := filledForm()

	if err := form.Submit(context.Background(), contact.NewClient(srv.URL)); err != nil {
		t.Fatalf("Submit returned error: %v", err)
	}
	if form.Name != "" || form.Email != "" || form.Phone != "" || form.Subject != "" || form.Message != "" {
		t.Fatalf("expected fields reset, got %+v", form)
	}
	if form.Error != "" || form.Notice != contact.SentNotice {
		t.Fatalf("unexpected outcome: error=%q notice=%q", form.Error, form.Notice)
	}
}

func TestFormSubmitFailurePreservesFields(t *testing.T) {
	srv, _ := stubRelay(t, http.StatusInternalServerError, `{"success":false,"error":"boom"}`)
	form := filledForm()
	before := *form

	err := form.Submit(context.Background(), contact.NewClient(srv.URL))
	var relayErr *contact.RelayError
	if !errors.As(err, &relayErr) || relayErr.Status != http.StatusInternalServerError {
		t.Fatalf("expected relay error, got %v", err)
	}
	if form.Error != "boom" {
		t.Fatalf("expected error boom, got %q", form.Error)
	}
	if form.Name != before.Name || form.Email != before.Email || form.Phone != before.Phone ||
		form.Subject != before.Subject || form.Message != before.Message {
		t.Fatalf("expected fields preserved, got %+v", form)
	}
}

func TestFormValidationBlocksNetwork(t *testing.T) {
	srv, calls := stubRelay(t, http.StatusOK, `{"success":true}`)
	form := filledForm()
	form.Email = "not-an-email"

	err := form.Submit(context.Background(), contact.NewClient(srv.URL))
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if *calls != 0 {
		t.Fatalf("expected no relay calls, got %d", *calls)
	}
	if form.Error != "Please enter a valid email address." || form.Email != "not-an-email" {
		t.Fatalf("unexpected form state %+v", form)
	}
}

func TestClientTimeoutIsBounded(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})

	form := filledForm()
	client := contact.NewClient(srv.URL, contact.WithTimeout(50*time.Millisecond))
	start := time.Now()
	err := form.Submit(context.Background(), client)
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout, got %v", err)
	}
	if time.Since(start) > 5*time.Second {
		t.Fatal("submission was not bounded")
	}
	if form.Name != "Ada" || form.Error == "" {
		t.Fatalf("expected preserved fields and error, got %+v", form)
	}
}

func TestClientReportsStatusWithoutBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(srv.Close)

	err := contact.NewClient(srv.URL).Submit(context.Background(), contact.Payload{Name: "Ada", Email: "ada@gmail.com", Message: "x"})
	var relayErr *contact.RelayError
	if !errors.As(err, &relayErr) || relayErr.Status != http.StatusBadGateway {
		t.Fatalf("expected relay error with status, got %v", err)
	}
}
