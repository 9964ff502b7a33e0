package cmd

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/khanhnv2901/seca-recon/internal/domain/finding"
)

// hardenedServer answers like a well-configured API except for plain HTTP.
func hardenedServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		h.Set("Content-Security-Policy", "default-src 'self'")
		h.Set("X-Frame-Options", "DENY")
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Permissions-Policy", "geolocation=()")
		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestTestEndpointCommand(t *testing.T) {
	srv := hardenedServer(t)

	out, resultsDir, err := executeCommand(t, "test", "endpoint", srv.URL+"/users", "--output", "users.md")
	if err != nil {
		t.Fatalf("test endpoint failed: %v\n%s", err, out)
	}

	for _, want := range []string{"[HIGH] Insecure Protocol", "Security score: 85/100", "Authentication"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected %q in output:\n%s", want, out)
		}
	}

	data, err := os.ReadFile(filepath.Join(resultsDir, "users.md"))
	if err != nil {
		t.Fatalf("expected markdown report: %v", err)
	}
	if !strings.Contains(string(data), "# Endpoint Security Report") {
		t.Fatalf("unexpected report:\n%s", data)
	}
}

func TestTestEndpointCommand_FailOn(t *testing.T) {
	srv := hardenedServer(t)

	_, _, err := executeCommand(t, "test", "endpoint", srv.URL, "--fail-on", "high")

	var threshold *ThresholdExceededError
	if !errors.As(err, &threshold) {
		t.Fatalf("expected ThresholdExceededError, got %v", err)
	}
	if threshold.Threshold != finding.SeverityHigh || threshold.Count != 1 {
		t.Fatalf("unexpected threshold error %+v", threshold)
	}
	if exitCode(err) != 2 {
		t.Fatalf("expected exit code 2, got %d", exitCode(err))
	}
}

func TestTestEndpointCommand_MalformedURL(t *testing.T) {
	if _, _, err := executeCommand(t, "test", "endpoint", "ftp://example.com"); err == nil {
		t.Fatal("expected malformed URL error")
	}
}

func TestTestCollectionCommand(t *testing.T) {
	srv := hardenedServer(t)

	file := filepath.Join(t.TempDir(), "api.json")
	body := `{"name":"users-api","endpoints":[{"url":"` + srv.URL + `/users","method":"GET"},{"url":"not a url","method":"GET"}]}`
	if err := os.WriteFile(file, []byte(body), 0o600); err != nil {
		t.Fatalf("write collection: %v", err)
	}

	out, resultsDir, err := executeCommand(t, "test", "collection", file, "--delay-ms", "1", "--format", "json", "--output", "collection")
	if err != nil {
		t.Fatalf("test collection failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Collection users-api: 1/2 endpoints tested, 1 rejected") {
		t.Fatalf("unexpected collection summary:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(resultsDir, "collection.json")); err != nil {
		t.Fatalf("expected collection report: %v", err)
	}
}

func TestTestCollectionCommand_MissingFile(t *testing.T) {
	if _, _, err := executeCommand(t, "test", "collection", filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Fatal("expected error for missing collection")
	}
}
