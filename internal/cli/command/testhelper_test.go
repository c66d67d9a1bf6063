package command

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// mockServer is an auth API stub with per-path handlers.
type mockServer struct {
	*httptest.Server

	mu       sync.Mutex
	handlers map[string]http.HandlerFunc
	hits     map[string]int
}

// newMockServer creates a mock server that is closed with the test.
func newMockServer(t *testing.T) *mockServer {
	t.Helper()
	m := &mockServer{
		handlers: make(map[string]http.HandlerFunc),
		hits:     make(map[string]int),
	}
	m.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.Lock()
		handler, ok := m.handlers[r.URL.Path]
		m.hits[r.URL.Path]++
		m.mu.Unlock()

		if !ok {
			http.NotFound(w, r)
			return
		}
		handler(w, r)
	}))
	t.Cleanup(m.Close)
	return m
}

// handle registers a handler for an exact path under /api/auth.
func (m *mockServer) handle(path string, handler http.HandlerFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handlers["/api/auth"+path] = handler
}

// hitCount returns how often path under /api/auth was requested.
func (m *mockServer) hitCount(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits["/api/auth"+path]
}

// jsonResponse writes a JSON response.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// errorResponse writes an error response in the auth API's shape.
func errorResponse(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]any{
		"statusCode": status,
		"message":    message,
	})
}

func sampleUser() map[string]any {
	return map[string]any{
		"id":             "u-1",
		"email":          "ada@example.com",
		"firstName":      "Ada",
		"lastName":       "Lovelace",
		"role":           "ADMIN",
		"organizationId": "org-1",
		"organization": map[string]any{
			"id":   "org-1",
			"name": "Analytical Engines",
		},
		"isActive": true,
	}
}

func authResponse(access, refresh string) map[string]any {
	return map[string]any{
		"accessToken":  access,
		"refreshToken": refresh,
		"expiresIn":    900,
		"user":         sampleUser(),
	}
}

// handleAuth registers login and /me handlers that accept "access-1".
func (m *mockServer) handleAuth() {
	m.handle("/login", func(w http.ResponseWriter, r *http.Request) {
		jsonResponse(w, http.StatusOK, authResponse("access-1", "refresh-1"))
	})
	m.handle("/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-1" {
			errorResponse(w, http.StatusUnauthorized, "Unauthorized")
			return
		}
		jsonResponse(w, http.StatusOK, sampleUser())
	})
}

// cliEnv runs the app against one server and data directory.
type cliEnv struct {
	t       *testing.T
	server  *mockServer
	dataDir string
}

func newCLIEnv(t *testing.T) *cliEnv {
	t.Helper()
	// Keep the developer's ~/.sesskeep out of tests.
	t.Setenv("HOME", t.TempDir())
	return &cliEnv{
		t:       t,
		server:  newMockServer(t),
		dataDir: t.TempDir(),
	}
}

// run executes the CLI with global flags pointing at the mock server and
// returns stdout.
func (e *cliEnv) run(stdin string, args ...string) (string, error) {
	e.t.Helper()

	var stdout, stderr bytes.Buffer
	app := App()
	app.Writer = &stdout
	app.ErrWriter = &stderr
	app.Reader = strings.NewReader(stdin)

	full := []string{"sesskeep-cli", "--server", e.server.URL, "--data-dir", e.dataDir}
	full = append(full, args...)

	err := app.RunContext(context.Background(), full)
	if stderr.Len() > 0 {
		e.t.Logf("stderr: %s", stderr.String())
	}
	return stdout.String(), err
}

// mustRun is run that fails the test on error.
func (e *cliEnv) mustRun(args ...string) string {
	e.t.Helper()
	out, err := e.run("", args...)
	if err != nil {
		e.t.Fatalf("%v: %v", args, err)
	}
	return out
}

// decodeJSON unmarshals a command's JSON output.
func decodeJSON(t *testing.T, out string, v any) {
	t.Helper()
	if err := json.NewDecoder(io.LimitReader(strings.NewReader(out), 1<<20)).Decode(v); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
}
