package cli

import (
	"encoding/json"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func (h *harness) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+h.token {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"detail":"Could not validate credentials"}`))
			return
		}
		next(w, r)
	}
}

func TestScheduleListYAML(t *testing.T) {
	h := newHarness(t)
	var query string
	h.mux.HandleFunc("GET /api/schedules/", h.authed(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		_, _ = w.Write([]byte(`[{"id":7,"date":"2025-05-01","duty_type":"day","staff_name":"Alice","staff_phone":"555","redeemed_count":0}]`))
	}))

	if _, _, err := h.run("login", "-u", "admin", "-p", "x"); err != nil {
		t.Fatalf("login: %v", err)
	}
	out, _, err := h.run("schedule", "list", "--year", "2025", "--month", "5", "-o", "yaml")
	if err != nil {
		t.Fatalf("schedule list: %v", err)
	}
	if query != "month=5&year=2025" {
		t.Fatalf("unexpected query %q", query)
	}
	if !strings.Contains(out, "staff_name: Alice") || !strings.Contains(out, "date: \"2025-05-01\"") {
		t.Fatalf("unexpected yaml output %q", out)
	}

	if _, _, err := h.run("schedule", "list", "--month", "13"); err == nil {
		t.Fatalf("expected invalid month error")
	}
}

func TestScheduleImportSendsFile(t *testing.T) {
	h := newHarness(t)
	var (
		overwrite, filename, content string
	)
	h.mux.HandleFunc("POST /api/schedules/import_excel", h.authed(func(w http.ResponseWriter, r *http.Request) {
		overwrite = r.URL.Query().Get("is_overwrite")
		f, hdr, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer f.Close()
		b, _ := io.ReadAll(f)
		filename, content = hdr.Filename, string(b)
		_, _ = w.Write([]byte(`{"msg":"imported 3 rows"}`))
	}))

	path := filepath.Join(t.TempDir(), "may.xlsx")
	if err := os.WriteFile(path, []byte("sheet"), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, _, err := h.run("login", "-u", "admin", "-p", "x"); err != nil {
		t.Fatalf("login: %v", err)
	}
	out, _, err := h.run("schedule", "import", path, "--append")
	if err != nil {
		t.Fatalf("schedule import: %v", err)
	}
	if overwrite != "false" || filename != "may.xlsx" || content != "sheet" {
		t.Fatalf("unexpected upload overwrite=%q filename=%q content=%q", overwrite, filename, content)
	}
	if !strings.Contains(out, `"imported 3 rows"`) {
		t.Fatalf("unexpected output %q", out)
	}

	if _, _, err := h.run("schedule", "import", filepath.Join(t.TempDir(), "missing.xlsx")); err == nil {
		t.Fatalf("expected missing file error")
	}
}

func TestHolidayMarkFlags(t *testing.T) {
	h := newHarness(t)
	var got map[string]any
	h.mux.HandleFunc("POST /api/holidays/batch", h.authed(func(w http.ResponseWriter, r *http.Request) {
		got = nil
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	}))
	if _, _, err := h.run("login", "-u", "admin", "-p", "x"); err != nil {
		t.Fatalf("login: %v", err)
	}

	if _, _, err := h.run("holiday", "mark", "--from", "2025-10-01", "--to", "2025-10-07", "--type", "holiday", "--name", "National Day"); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if got["update_type"] != true || got["type"] != "holiday" || got["name"] != "National Day" || got["update_guarantee"] != false {
		t.Fatalf("unexpected batch %#v", got)
	}

	if _, _, err := h.run("holiday", "mark", "--from", "2025-10-08", "--clear-type", "--guarantee", "Autumn"); err != nil {
		t.Fatalf("mark clear: %v", err)
	}
	if got["end_date"] != "2025-10-08" || got["update_type"] != true || got["type"] != nil {
		t.Fatalf("expected cleared type over one day, got %#v", got)
	}
	if got["update_guarantee"] != true || got["is_guarantee"] != true || got["guarantee_name"] != "Autumn" {
		t.Fatalf("unexpected guarantee fields %#v", got)
	}

	got = nil
	if _, _, err := h.run("holiday", "mark", "--from", "2025-10-08"); err == nil {
		t.Fatalf("expected error when nothing is changed")
	}
	if got != nil {
		t.Fatalf("request sent for an empty batch: %#v", got)
	}
}

func TestContactDeleteRefused(t *testing.T) {
	h := newHarness(t)
	h.mux.HandleFunc("DELETE /api/contacts/{id}", h.authed(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"contact still has duties"}`))
	}))
	if _, _, err := h.run("login", "-u", "admin", "-p", "x"); err != nil {
		t.Fatalf("login: %v", err)
	}

	_, _, err := h.run("contact", "delete", "3")
	if err == nil || !strings.Contains(err.Error(), "contact still has duties") {
		t.Fatalf("expected backend refusal, got %v", err)
	}
	if _, _, err := h.run("contact", "delete", "abc"); err == nil {
		t.Fatalf("expected invalid id error")
	}

	out, _, err := h.run("whoami")
	if err != nil || !strings.Contains(out, `"logged_in": true`) {
		t.Fatalf("a 400 must keep the session, got %q err=%v", out, err)
	}
}
