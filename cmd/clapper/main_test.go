package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"clapper/internal/api"
	"clapper/internal/auth"
	"clapper/internal/config"
	"clapper/internal/contact"
	"clapper/internal/daemon"
	"clapper/internal/logging"
	"clapper/internal/preflight"
	"clapper/internal/queue"
	"clapper/internal/testsupport"
)

func TestConfigInitAndValidate(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")

	target := filepath.Join(t.TempDir(), "config.toml")
	out, _, err = runCLI(t, []string{"config", "init", "--path", target}, env.configPath)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	if _, err := os.Stat(target); err != nil {
		t.Fatalf("expected config file at %s: %v", target, err)
	}

	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, env.configPath); err == nil {
		t.Fatal("expected init to refuse overwriting")
	}
}

func TestContactListAndShow(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()
	first := testsupport.RecordSubmission(t, env.store, "Ada Lovelace", "ada@gmail.com")
	second := testsupport.RecordSubmission(t, env.store, "Alan Turing", "alan@gmail.com")
	if err := env.store.MarkFailed(ctx, second.ID, "535 authentication failed"); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}

	out, _, err := runCLI(t, []string{"contact", "list"}, env.configPath)
	if err != nil {
		t.Fatalf("contact list: %v", err)
	}
	requireContains(t, out, "Ada Lovelace")
	requireContains(t, out, "Alan Turing")

	out, _, err = runCLI(t, []string{"contact", "list", "--status", "failed", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("contact list --json: %v", err)
	}
	var items []api.Submission
	if err := json.Unmarshal([]byte(out), &items); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if len(items) != 1 || items[0].ID != second.ID {
		t.Fatalf("unexpected filtered items %+v", items)
	}

	out, _, err = runCLI(t, []string{"contact", "show", strconv.FormatInt(first.ID, 10)}, env.configPath)
	if err != nil {
		t.Fatalf("contact show: %v", err)
	}
	requireContains(t, out, "ada@gmail.com")
	requireContains(t, out, "We would like to talk about a short film.")

	if _, _, err := runCLI(t, []string{"contact", "show", "9999"}, env.configPath); err == nil {
		t.Fatal("expected error for missing submission")
	}
	if _, _, err := runCLI(t, []string{"contact", "list", "--status", "bogus"}, env.configPath); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestContactPurge(t *testing.T) {
	env := setupCLITestEnv(t)
	ctx := context.Background()
	sent := testsupport.RecordSubmission(t, env.store, "Ada Lovelace", "ada@gmail.com")
	if err := env.store.MarkSent(ctx, sent.ID); err != nil {
		t.Fatalf("MarkSent: %v", err)
	}
	pending := testsupport.RecordSubmission(t, env.store, "Alan Turing", "alan@gmail.com")

	out, _, err := runCLI(t, []string{"contact", "purge", "--older-than", "0s"}, env.configPath)
	if err != nil {
		t.Fatalf("contact purge: %v", err)
	}
	requireContains(t, out, "Removed 1 delivered submission(s)")

	if _, err := env.store.Get(ctx, pending.ID); err != nil {
		t.Fatalf("pending submission should survive purge: %v", err)
	}
}

func TestContactSendThroughRelay(t *testing.T) {
	var received contact.Payload
	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&received)
		_ = json.NewEncoder(w).Encode(contact.Response{Success: true, Message: contact.SuccessMessage})
	}))
	defer relay.Close()

	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"contact", "send",
		"--endpoint", relay.URL + "/api/contact",
		"--name", "Grace Hopper",
		"--email", "grace@gmail.com",
		"--message", "Two day shoot in May.",
	}, env.configPath)
	if err != nil {
		t.Fatalf("contact send: %v", err)
	}
	requireContains(t, out, contact.SentNotice)
	if received.Name != "Grace Hopper" {
		t.Fatalf("relay received %+v", received)
	}
}

func TestContactSendReportsRelayError(t *testing.T) {
	relay := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(contact.Response{Success: false, Error: contact.DeliveryFailedMessage})
	}))
	defer relay.Close()

	env := setupCLITestEnv(t)
	_, _, err := runCLI(t, []string{"contact", "send",
		"--endpoint", relay.URL,
		"--name", "Grace Hopper",
		"--email", "grace@gmail.com",
		"--message", "Hello",
	}, env.configPath)
	if err == nil || err.Error() != contact.DeliveryFailedMessage {
		t.Fatalf("expected relay message, got %v", err)
	}

	_, _, err = runCLI(t, []string{"contact", "send", "--endpoint", relay.URL, "--name", "Grace"}, env.configPath)
	if err == nil {
		t.Fatal("expected local validation error")
	}
}

func TestStatusOffline(t *testing.T) {
	env := setupCLITestEnv(t)
	testsupport.RecordSubmission(t, env.store, "Ada Lovelace", "ada@gmail.com")

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Not running")
	requireContains(t, out, "pending")
}

func TestStatusAndNotifyAgainstRunningDaemon(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithAPIToken("tok"), testsupport.WithNtfyTopic("https://ntfy.example/clapper"))
	env.cfg.Paths.APIBind = "127.0.0.1:0"

	relay := contact.NewRelay(&testsupport.Mailer{}, contact.Envelope{From: env.cfg.Contact.From, To: env.cfg.Contact.To},
		contact.WithOutbox(env.store))
	d, err := daemon.New(env.cfg, env.store, relay, logging.NewNop(),
		daemon.WithPreflight(func(context.Context, *config.Config) []preflight.Result { return nil }))
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(d.Stop)

	env.cfg.Paths.APIBind = d.APIAddress()
	env.rewriteConfig(t)

	out, _, err := runCLI(t, []string{"status", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	var status api.DaemonStatus
	if err := json.Unmarshal([]byte(out), &status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if !status.Running || !status.RelayReady {
		t.Fatalf("unexpected status %+v", status)
	}

	out, _, err = runCLI(t, []string{"test-notify"}, env.configPath)
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "test notification sent")
}

func TestTransitionRoutesAndPreview(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"transition", "routes"}, env.configPath)
	if err != nil {
		t.Fatalf("transition routes: %v", err)
	}
	requireContains(t, out, "JOIN THE CAST")

	out, _, err = runCLI(t, []string{"transition", "preview", "/", "/contact"}, env.configPath)
	if err != nil {
		t.Fatalf("transition preview: %v", err)
	}
	requireContains(t, out, "CONTACT / GET IN TOUCH")
	requireContains(t, out, "overlay_holding")
	requireContains(t, out, "content_entering")

	out, _, err = runCLI(t, []string{"transition", "preview", "/", "/contakt"}, env.configPath)
	if err != nil {
		t.Fatalf("transition preview unknown: %v", err)
	}
	requireContains(t, out, `did you mean "/contact"`)
	requireContains(t, out, "PAGE / LOADING")
}

func TestTransitionIntro(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"transition", "intro"}, env.configPath)
	if err != nil {
		t.Fatalf("transition intro: %v", err)
	}
	requireContains(t, out, "loading")
	requireContains(t, out, "revealed")
}

func TestAuthWhoAmIUsesStoredSession(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"auth", "whoami"}, env.configPath)
	if err != nil {
		t.Fatalf("whoami: %v", err)
	}
	requireContains(t, out, "Not signed in")

	mirror := auth.NewStoreMirror(env.store)
	if err := mirror.Save(context.Background(), auth.Snapshot{
		UID:           "uid-1",
		Email:         "ada@gmail.com",
		DisplayName:   "Ada Lovelace",
		EmailVerified: true,
	}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	out, _, err = runCLI(t, []string{"auth", "whoami"}, env.configPath)
	if err != nil {
		t.Fatalf("whoami: %v", err)
	}
	requireContains(t, out, "Ada Lovelace")

	out, _, err = runCLI(t, []string{"auth", "signout"}, env.configPath)
	if err != nil {
		t.Fatalf("signout: %v", err)
	}
	requireContains(t, out, "Signed out")

	if _, ok, err := mirror.Load(context.Background()); err != nil || ok {
		t.Fatalf("expected cleared mirror, ok=%v err=%v", ok, err)
	}
}

func TestAuthSignUpValidation(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"auth", "signup",
		"--first-name", "ada", "--last-name", "lovelace",
		"--email", "ada@example.com", "--password", "secret1",
	}, env.configPath)
	if err == nil || err.Error() != "For now, we accept only valid Gmail addresses" {
		t.Fatalf("expected domain error, got %v", err)
	}
}

func TestBuildSubmissionStatusRows(t *testing.T) {
	rows := buildSubmissionStatusRows(map[string]int{
		string(queue.StatusFailed):  2,
		string(queue.StatusPending): 1,
		string(queue.StatusSent):    0,
		"archived":                  4,
	})
	if len(rows) != 3 {
		t.Fatalf("expected 3 rows, got %v", rows)
	}
	if rows[0][0] != "pending" || rows[1][0] != "failed" || rows[2][0] != "archived" {
		t.Fatalf("unexpected order %v", rows)
	}
}

func TestLogsFiltersByRequest(t *testing.T) {
	env := setupCLITestEnv(t)
	if err := os.MkdirAll(env.cfg.Paths.LogDir, 0o755); err != nil {
		t.Fatalf("mkdir log dir: %v", err)
	}
	logPath := filepath.Join(env.cfg.Paths.LogDir, "clapper.log")
	content := "INFO contact [aaa] stored\nINFO contact [bbb] stored\nWARN contact [aaa] send failed\n"
	if err := os.WriteFile(logPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}

	out, _, err := runCLI(t, []string{"logs", "--request", "aaa"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	requireContains(t, out, "send failed")
	if strings.Contains(out, "bbb") {
		t.Fatalf("unexpected line for another request: %q", out)
	}

	out, _, err = runCLI(t, []string{"logs", "-n", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if strings.Count(out, "\n") != 1 {
		t.Fatalf("expected one line, got %q", out)
	}
}

func TestConfigShowMasksSecrets(t *testing.T) {
	env := setupCLITestEnv(t)
	env.cfg.Paths.APIToken = "hunter2-operator-token"
	env.rewriteConfig(t)

	out, _, err := runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	if strings.Contains(out, "hunter2-operator-token") {
		t.Fatalf("token leaked:\n%s", out)
	}
	requireContains(t, out, "********")
	requireContains(t, out, "[transition]")
}
