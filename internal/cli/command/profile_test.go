package command

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestWhoami(t *testing.T) {
	env := newCLIEnv(t)
	env.server.handleAuth()

	_, err := env.run("", "whoami")
	if !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("whoami without session: err = %v, want ErrNotLoggedIn", err)
	}

	env.mustRun("login", "-e", "ada@example.com", "-p", "s3cret")

	var user userView
	decodeJSON(t, env.mustRun("-o", "json", "whoami"), &user)
	if user.ID != "u-1" || user.Role != "ADMIN" {
		t.Errorf("whoami = %+v", user)
	}
	if n := env.server.hitCount("/me"); n != 1 {
		t.Errorf("/me requests = %d, want 1", n)
	}

	decodeJSON(t, env.mustRun("-o", "json", "whoami", "--local"), &user)
	if user.Email != "ada@example.com" {
		t.Errorf("whoami --local = %+v", user)
	}
	if n := env.server.hitCount("/me"); n != 1 {
		t.Errorf("--local contacted the server: /me requests = %d", n)
	}
}

func TestWhoamiRejectedKeepsSession(t *testing.T) {
	env := newCLIEnv(t)
	env.server.handleAuth()
	env.mustRun("login", "-e", "ada@example.com", "-p", "s3cret")

	env.server.handle("/me", func(w http.ResponseWriter, r *http.Request) {
		errorResponse(w, http.StatusForbidden, "Forbidden")
	})

	_, err := env.run("", "whoami")
	if ExitCode(err) != ExitAuth {
		t.Fatalf("ExitCode = %d, want %d (%v)", ExitCode(err), ExitAuth, err)
	}

	var status statusView
	decodeJSON(t, env.mustRun("-o", "json", "status"), &status)
	if !status.Authenticated {
		t.Error("profile failure logged the session out")
	}
}

func TestStatusWithoutSession(t *testing.T) {
	env := newCLIEnv(t)

	out := env.mustRun("-o", "yaml", "status")
	for _, want := range []string{"authenticated: false", "server: " + env.server.URL} {
		if !strings.Contains(out, want) {
			t.Errorf("status output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "tokens:") {
		t.Errorf("status printed tokens without a session:\n%s", out)
	}
}

func TestDataDirUnavailable(t *testing.T) {
	env := newCLIEnv(t)

	blocked := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocked, []byte("x"), 0o600); err != nil {
		t.Fatal(err)
	}

	app := App()
	app.Writer = &strings.Builder{}
	err := app.Run([]string{"sesskeep-cli", "--server", env.server.URL, "--data-dir", filepath.Join(blocked, "data"), "status"})
	if err == nil {
		t.Fatal("expected error opening a data dir under a regular file")
	}
}
