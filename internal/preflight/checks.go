package preflight

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSMTP connects to the mail server and expects a 220 greeting. It does
// not authenticate.
func CheckSMTP(ctx context.Context, host string, port int) Result {
	const name = "SMTP relay"

	host = strings.TrimSpace(host)
	if host == "" {
		return Result{Name: name, Detail: "missing host"}
	}
	if port <= 0 {
		port = 587
	}
	addr := net.JoinHostPort(host, strconv.Itoa(port))

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var dialer net.Dialer
	conn, err := dialer.DialContext(checkCtx, "tcp", addr)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s unreachable (%s)", addr, summarizeNetError(err))}
	}
	defer conn.Close()
	if deadline, ok := checkCtx.Deadline(); ok {
		_ = conn.SetReadDeadline(deadline)
	}

	// Implicit TLS ports greet only after the handshake.
	if port == 465 {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s reachable (implicit TLS)", addr)}
	}
	greeting, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s did not greet (%s)", addr, summarizeNetError(err))}
	}
	if !strings.HasPrefix(greeting, "220") {
		return Result{Name: name, Detail: fmt.Sprintf("%s unexpected greeting %q", addr, strings.TrimSpace(greeting))}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s reachable", addr)}
}

// CheckFirebase verifies the identity provider accepts the API key. A lookup
// with an empty token is rejected with INVALID_ID_TOKEN when the key is good.
func CheckFirebase(ctx context.Context, baseURL, apiKey string) Result {
	const name = "Identity provider"

	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		return Result{Name: name, Detail: "missing base url"}
	}
	if strings.TrimSpace(apiKey) == "" {
		return Result{Name: name, Detail: "missing api key"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	endpoint := base + "/accounts:lookup?key=" + url.QueryEscape(strings.TrimSpace(apiKey))
	req, err := http.NewRequestWithContext(checkCtx, http.MethodPost, endpoint, bytes.NewReader([]byte(`{"idToken":""}`)))
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("check failed (%v)", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	client := &http.Client{Timeout: 5 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("unreachable (%s)", summarizeNetError(err))}
	}
	defer resp.Body.Close()

	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	_ = json.NewDecoder(resp.Body).Decode(&body)
	message := body.Error.Message

	switch {
	case resp.StatusCode == http.StatusOK:
		return Result{Name: name, Passed: true, Detail: "Reachable"}
	case strings.Contains(message, "API_KEY") || strings.Contains(message, "API key"):
		return Result{Name: name, Detail: "auth failed (invalid api key)"}
	case resp.StatusCode == http.StatusBadRequest:
		return Result{Name: name, Passed: true, Detail: "Reachable"}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("check failed (%d)", resp.StatusCode)}
	}
}

func summarizeNetError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timed out"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timed out"
	}
	return err.Error()
}
