package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dutydesk/dutydesk-console/internal/config"
	"github.com/dutydesk/dutydesk-console/internal/logger"
	"github.com/dutydesk/dutydesk-console/internal/session"
	"github.com/golang-jwt/jwt/v5"
)

type harness struct {
	t       *testing.T
	cfg     config.Config
	mux     *http.ServeMux
	token   string
	expired bool
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{t: t}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "admin",
		"role": "admin",
	}).SignedString([]byte("server-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	h.token = token
	mux := http.NewServeMux()
	h.mux = mux
	mux.HandleFunc("POST /api/token", func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]string{"access_token": token, "token_type": "bearer", "role": "admin"})
	})
	mux.HandleFunc("GET /api/stats/advanced", func(w http.ResponseWriter, r *http.Request) {
		if h.expired || r.Header.Get("Authorization") != "Bearer "+token {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Could not validate credentials"}`))
			return
		}
		_, _ = w.Write([]byte(`{"count": 5}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	h.cfg = config.Config{
		AppName:      "dutydesk-console",
		Output:       "json",
		APIOrigin:    srv.URL,
		SessionStore: "bbolt",
		SessionPath:  filepath.Join(t.TempDir(), "session.db"),
	}
	return h
}

func (h *harness) run(args ...string) (string, string, error) {
	h.t.Helper()
	var stdout, stderr bytes.Buffer
	err := Execute(context.Background(), Env{
		Stdout: &stdout,
		Stderr: &stderr,
		LoadConfig: func() (*config.Config, error) {
			cfg := h.cfg
			return &cfg, nil
		},
		Logger: &logger.NopLogger{},
	}, args...)
	return stdout.String(), stderr.String(), err
}

func TestLoginStatsAndExpiry(t *testing.T) {
	h := newHarness(t)

	out, _, err := h.run("login", "-u", "admin", "-p", "admin123")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if !strings.Contains(out, `"logged in"`) {
		t.Fatalf("unexpected login output %q", out)
	}

	out, _, err = h.run("whoami")
	if err != nil {
		t.Fatalf("whoami: %v", err)
	}
	var who whoami
	if err := json.Unmarshal([]byte(out), &who); err != nil {
		t.Fatalf("decode whoami: %v", err)
	}
	if !who.LoggedIn || who.Role != "admin" || who.Claims == nil || who.Claims.Subject != "admin" {
		t.Fatalf("unexpected whoami %#v", who)
	}

	out, _, err = h.run("stats", "--year", "2025")
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	var stats map[string]int
	if err := json.Unmarshal([]byte(out), &stats); err != nil || stats["count"] != 5 {
		t.Fatalf("unexpected stats output %q err=%v", out, err)
	}

	h.expired = true
	_, stderr, err := h.run("stats", "--year", "2025")
	if err == nil {
		t.Fatalf("expected failure after expiry")
	}
	if !strings.Contains(err.Error(), "401") || !strings.Contains(err.Error(), "Could not validate credentials") {
		t.Fatalf("unexpected error %v", err)
	}
	if !strings.Contains(stderr, "session expired") || !strings.Contains(stderr, "returning to /") {
		t.Fatalf("expected expiry notice, got %q", stderr)
	}

	out, _, err = h.run("whoami")
	if err != nil {
		t.Fatalf("whoami after expiry: %v", err)
	}
	if !strings.Contains(out, `"logged_in": false`) {
		t.Fatalf("expected logged out state, got %q", out)
	}
}

func TestFailedCommandReleasesSessionStore(t *testing.T) {
	h := newHarness(t)
	h.expired = true

	if _, _, err := h.run("stats", "--year", "2025"); err == nil {
		t.Fatalf("expected 401 failure")
	}
	if _, _, err := h.run("compensatory", "cancel", "not-a-number"); err == nil {
		t.Fatalf("expected argument failure")
	}

	store, err := session.NewStore("bbolt", session.Options{Path: h.cfg.SessionPath})
	if err != nil {
		t.Fatalf("session store still held after failed commands: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
}

func TestLogout(t *testing.T) {
	h := newHarness(t)
	if _, _, err := h.run("login", "-u", "admin", "-p", "x"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, _, err := h.run("logout"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	_, _, err := h.run("stats", "--year", "2025")
	if err == nil {
		t.Fatalf("expected 401 without session")
	}
}

func TestRoutesYAML(t *testing.T) {
	h := newHarness(t)

	out, _, err := h.run("routes", "/compensatory", "-o", "yaml")
	if err != nil {
		t.Fatalf("routes: %v", err)
	}
	if !strings.Contains(out, "view: Compensatory") || !strings.Contains(out, "path: /compensatory") {
		t.Fatalf("unexpected yaml output %q", out)
	}

	if _, _, err := h.run("routes", "/nowhere"); err == nil {
		t.Fatalf("expected unknown route error")
	}
}

func TestRequestRejectsInvalidJSON(t *testing.T) {
	h := newHarness(t)
	if _, _, err := h.run("request", "POST", "/anything", "-d", "{nope"); err == nil {
		t.Fatalf("expected invalid JSON error")
	}
}

func TestRenderRawNonJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := render(&buf, "yaml", json.RawMessage("plain text")); err != nil {
		t.Fatalf("render: %v", err)
	}
	if buf.String() != "plain text\n" {
		t.Fatalf("unexpected output %q", buf.String())
	}
}
