package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yndnr/sesskeep-go/internal/infra/shutdown"
)

func TestWatchRefreshes(t *testing.T) {
	env := newCLIEnv(t)
	env.server.handleAuth()

	var n atomic.Int32
	env.server.handle("/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		i := n.Add(1)
		jsonResponse(w, http.StatusOK, map[string]any{
			"accessToken":  fmt.Sprintf("access-%d", i+1),
			"refreshToken": fmt.Sprintf("refresh-%d", i+1),
			"expiresIn":    900,
		})
	})

	env.mustRun("login", "-e", "ada@example.com", "-p", "s3cret")

	out, err := env.run("", "watch", "--interval", "40ms", "--for", "300ms", "--metrics-addr", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	if n.Load() == 0 {
		t.Fatal("watch never refreshed")
	}

	for _, want := range []string{"authenticated", "true", "user", "ada@example.com", "tokens", "access_fp="} {
		if !strings.Contains(out, want) {
			t.Errorf("watch output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "access-2") {
		t.Errorf("watch output leaked a raw token:\n%s", out)
	}
}

func TestWatchStopsRefreshingAfterRejection(t *testing.T) {
	env := newCLIEnv(t)
	env.server.handleAuth()
	env.server.handle("/refresh-token", func(w http.ResponseWriter, r *http.Request) {
		errorResponse(w, http.StatusUnauthorized, "Refresh token revoked")
	})

	env.mustRun("login", "-e", "ada@example.com", "-p", "s3cret")

	out, err := env.run("", "watch", "--interval", "30ms", "--for", "250ms")
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	if n := env.server.hitCount("/refresh-token"); n != 1 {
		t.Errorf("refresh requests = %d, want 1", n)
	}
	if !strings.Contains(out, "authenticated  false") {
		t.Errorf("watch output did not report the logout:\n%s", out)
	}
}

func TestWatchRequiresSession(t *testing.T) {
	env := newCLIEnv(t)

	_, err := env.run("", "watch", "--for", "10ms")
	if !errors.Is(err, ErrNotLoggedIn) {
		t.Fatalf("err = %v, want ErrNotLoggedIn", err)
	}
}

func TestWatchRejectsBadInterval(t *testing.T) {
	env := newCLIEnv(t)
	env.server.handleAuth()
	env.mustRun("login", "-e", "ada@example.com", "-p", "s3cret")

	_, err := env.run("", "watch", "--interval", "0s", "--for", "10ms")
	if ExitCode(err) != ExitUsage {
		t.Fatalf("ExitCode = %d, want %d (%v)", ExitCode(err), ExitUsage, err)
	}
}

func TestWatchJSONLines(t *testing.T) {
	env := newCLIEnv(t)
	env.server.handleAuth()
	env.mustRun("login", "-e", "ada@example.com", "-p", "s3cret")

	out, err := env.run("", "-o", "json", "watch", "--for", "50ms")
	if err != nil {
		t.Fatalf("watch: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) < 7 {
		t.Fatalf("events = %d, want one per source:\n%s", len(lines), out)
	}
	sources := make(map[string]bool)
	for _, line := range lines {
		var ev eventView
		decodeJSON(t, line, &ev)
		sources[ev.Source] = true
	}
	for _, s := range []string{"authenticated", "admin", "loading", "user", "organization", "tokens", "error"} {
		if !sources[s] {
			t.Errorf("no %q event in:\n%s", s, out)
		}
	}
}

func TestWatchSidecarFailureReleasesMetrics(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	rt, err := NewRuntime(context.Background(), RuntimeOptions{
		ConfigPath: writeConfig(t, "storage:\n  in_memory: true\n"),
		Stdout:     &bytes.Buffer{},
		Stderr:     &bytes.Buffer{},
	})
	if err != nil {
		t.Fatalf("NewRuntime: %v", err)
	}
	defer rt.Close()
	// The config watcher cannot watch a directory that is gone.
	rt.ConfigPath = filepath.Join(t.TempDir(), "gone", "config.yaml")

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	handler := shutdown.NewHandler(time.Second)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := startSidecars(ctx, rt, handler, addr); err == nil {
		t.Fatal("startSidecars() expected error")
	}

	client := &http.Client{Transport: &http.Transport{DisableKeepAlives: true}}
	resp, err := client.Get("http://" + addr + "/metrics")
	if err != nil {
		t.Fatalf("metrics server not running before shutdown: %v", err)
	}
	resp.Body.Close()

	if err := handler.Shutdown(); err != nil {
		t.Fatalf("Shutdown() error = %v", err)
	}
	if resp, err := client.Get("http://" + addr + "/metrics"); err == nil {
		resp.Body.Close()
		t.Error("metrics server still serving after shutdown")
	}
}
