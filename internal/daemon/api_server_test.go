package daemon

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"dropspool/internal/api"
	"dropspool/internal/config"
	"dropspool/internal/logging"
)

func newTestDaemon(t *testing.T) *Daemon {
	t.Helper()
	cfg := config.Default()
	cfg.Paths.SpoolRoot = t.TempDir()
	cfg.Paths.LogDir = t.TempDir()
	cfg.Spool.MachineName = "hostA"
	d, err := New(&cfg, logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d
}

func TestAPIServerHealthReflectsRunningState(t *testing.T) {
	d := newTestDaemon(t)

	w := httptest.NewRecorder()
	d.api.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 while stopped, got %d", w.Code)
	}

	d.running.Store(true)
	w = httptest.NewRecorder()
	d.api.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 while running, got %d", w.Code)
	}
	d.running.Store(false)
}

func TestAPIServerStatus(t *testing.T) {
	d := newTestDaemon(t)

	w := httptest.NewRecorder()
	d.api.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("unexpected content type %q", ct)
	}
	var resp api.DaemonStatus
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Machine != "hostA" || resp.Running {
		t.Fatalf("unexpected status %+v", resp)
	}
}

func TestAPIServerMetrics(t *testing.T) {
	d := newTestDaemon(t)
	d.metrics.RecordIteration(t.Context(), "idle", 0, 1)

	w := httptest.NewRecorder()
	d.api.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "spool_iterations_total") {
		t.Fatalf("metrics output missing iterations counter:\n%s", w.Body.String())
	}
}

func TestAPIServerUnknownRoute(t *testing.T) {
	d := newTestDaemon(t)

	w := httptest.NewRecorder()
	d.api.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/nope", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	w = httptest.NewRecorder()
	d.api.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/status", nil))
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}
