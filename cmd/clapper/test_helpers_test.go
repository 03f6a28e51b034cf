package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"clapper/internal/config"
	"clapper/internal/queue"
	"clapper/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	store      *queue.Store
	configPath string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, opts...)
	homeDir := filepath.Join(testsupport.BaseDir(cfg), "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv(passwordEnv, "")
	// Nothing listens on port 1, so the daemon counts as stopped.
	cfg.Paths.APIBind = "127.0.0.1:1"
	cfg.Transition.TimeScale = 0.001
	// Readiness checks must fail fast instead of reaching the network.
	cfg.Contact.SMTPHost = "127.0.0.1"
	cfg.Contact.SMTPPort = 1
	cfg.Firebase.BaseURL = "http://127.0.0.1:1"

	configPath := filepath.Join(homeDir, ".config", "clapper", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{
		cfg:        cfg,
		store:      testsupport.MustOpenStore(t, cfg),
		configPath: configPath,
	}
}

func (e *cliTestEnv) rewriteConfig(t *testing.T) {
	t.Helper()
	writeTestConfig(t, e.configPath, e.cfg)
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	to := make([]string, 0, len(cfg.Contact.To))
	for _, addr := range cfg.Contact.To {
		to = append(to, fmt.Sprintf("%q", addr))
	}
	content := fmt.Sprintf(`[paths]
data_dir = %q
log_dir = %q
api_bind = %q
api_token = %q

[site]
base_url = %q

[contact]
smtp_host = %q
smtp_port = %d
from = %q
to = [%s]

[firebase]
api_key = %q
base_url = %q

[notifications]
ntfy_topic = %q

[transition]
time_scale = %g
`,
		cfg.Paths.DataDir,
		cfg.Paths.LogDir,
		cfg.Paths.APIBind,
		cfg.Paths.APIToken,
		cfg.Site.BaseURL,
		cfg.Contact.SMTPHost,
		cfg.Contact.SMTPPort,
		cfg.Contact.From,
		strings.Join(to, ", "),
		cfg.Firebase.APIKey,
		cfg.Firebase.BaseURL,
		cfg.Notifications.NtfyTopic,
		cfg.Transition.TimeScale,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
