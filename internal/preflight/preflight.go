package preflight

import (
	"context"

	"clapper/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Network checks are only run when the corresponding feature is configured.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}

	if cfg.SMTPConfigured() {
		results = append(results, CheckSMTP(ctx, cfg.Contact.SMTPHost, cfg.Contact.SMTPPort))
	} else {
		results = append(results, Result{Name: "SMTP relay", Detail: "not configured (contact submissions will be stored but not emailed)"})
	}

	if cfg.Firebase.APIKey != "" {
		results = append(results, CheckFirebase(ctx, cfg.Firebase.BaseURL, cfg.Firebase.APIKey))
	}

	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
