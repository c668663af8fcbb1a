package api

import (
	"bufio"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/smazurov/scalerwatch/internal/capture"
	"github.com/smazurov/scalerwatch/internal/events"
	"github.com/smazurov/scalerwatch/internal/monitor"
	"github.com/smazurov/scalerwatch/internal/version"
	"github.com/smazurov/scalerwatch/pkg/ascal"
)

func runningStatus() monitor.Status {
	return monitor.Status{
		State:      monitor.StateRunning.String(),
		Layout:     "ascal",
		Resolution: "640x480",
		Format:     "RGB565LE",
		BitDepth:   16,
		Dominant:   "#000000",
		Cycle:      42,
	}
}

func get(t *testing.T, h http.Handler, path string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestStatusEndpoint(t *testing.T) {
	s := NewServer(Options{Status: runningStatus})

	rec := get(t, s.Handler(), "/api/status", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var body monitor.Status
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode status: %v", err)
	}
	if body.Resolution != "640x480" || body.Cycle != 42 {
		t.Errorf("Unexpected status body: %+v", body)
	}
}

func TestHealthEndpoint(t *testing.T) {
	tests := []struct {
		name   string
		status StatusFunc
		want   string
	}{
		{"running", runningStatus, "ok"},
		{"stopped", func() monitor.Status { return monitor.Status{State: monitor.StateStopped.String()} }, "degraded"},
		{"no monitor", nil, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer(Options{Status: tt.status})
			rec := get(t, s.Handler(), "/api/health", nil)
			if rec.Code != http.StatusOK {
				t.Fatalf("Expected 200, got %d", rec.Code)
			}
			var body HealthData
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("Failed to decode health: %v", err)
			}
			if body.Status != tt.want {
				t.Errorf("Expected status %q, got %q", tt.want, body.Status)
			}
		})
	}
}

func TestVersionEndpoint(t *testing.T) {
	s := NewServer(Options{})

	rec := get(t, s.Handler(), "/api/version", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	var body version.Info
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode version: %v", err)
	}
	if body.Version != version.Version {
		t.Errorf("Expected version %s, got %s", version.Version, body.Version)
	}
}

func TestMetricsEndpointMounted(t *testing.T) {
	metrics := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("scalerwatch_test 1\n"))
	})
	s := NewServer(Options{PrometheusHandler: metrics})

	rec := get(t, s.Handler(), "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "scalerwatch_test") {
		t.Errorf("Expected metrics body, got %q", rec.Body.String())
	}
}

func TestBasicAuth(t *testing.T) {
	s := NewServer(Options{Status: runningStatus, AuthUsername: "admin", AuthPassword: "secret"})
	creds := base64.StdEncoding.EncodeToString([]byte("admin:secret"))
	wrong := base64.StdEncoding.EncodeToString([]byte("admin:nope"))

	tests := []struct {
		name   string
		path   string
		header http.Header
		want   int
	}{
		{"missing credentials", "/api/status", nil, http.StatusUnauthorized},
		{"wrong password", "/api/status", http.Header{"Authorization": {"Basic " + wrong}}, http.StatusUnauthorized},
		{"wrong scheme", "/api/status", http.Header{"Authorization": {"Bearer x"}}, http.StatusUnauthorized},
		{"header credentials", "/api/status", http.Header{"Authorization": {"Basic " + creds}}, http.StatusOK},
		{"query credentials", "/api/status?auth=" + creds, nil, http.StatusOK},
		{"health stays open", "/api/health", nil, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, s.Handler(), tt.path, tt.header)
			if rec.Code != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, rec.Code)
			}
			if tt.want == http.StatusUnauthorized && rec.Header().Get("WWW-Authenticate") == "" {
				t.Error("Expected WWW-Authenticate header")
			}
		})
	}
}

func TestCORSPreflight(t *testing.T) {
	s := NewServer(Options{})

	req := httptest.NewRequest(http.MethodOptions, "/api/status", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", rec.Code)
	}
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("Expected Access-Control-Allow-Origin *, got %q", got)
	}
}

func TestEventsStream(t *testing.T) {
	bus := events.New()
	defer bus.Close()

	s := NewServer(Options{Bus: bus})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/events", nil)
	if err != nil {
		t.Fatal(err)
	}

	// Headers may not arrive until the first event, so connect in the background.
	lines := make(chan string, 16)
	go func() {
		defer close(lines)
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return
		}
		defer resp.Body.Close()
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()

	// The handler subscribes after the response starts; publish until seen.
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case line, ok := <-lines:
			if !ok {
				t.Fatal("Stream closed before any event")
			}
			if line == "event: stale-changed" {
				return
			}
		case <-ticker.C:
			bus.Publish(events.StaleChangedEvent{Stale: true, Unchanged: 12, Timestamp: time.Now()})
		case <-ctx.Done():
			t.Fatal("Timed out waiting for stale-changed event")
		}
	}
}

func TestStopWithoutStart(t *testing.T) {
	s := NewServer(Options{})
	if err := s.Stop(); err != nil {
		t.Errorf("Stop() without Start returned %v", err)
	}
}

func post(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCaptureEndpoint(t *testing.T) {
	var got []string
	s := NewServer(Options{Capture: func(name string) (capture.Result, error) {
		got = append(got, name)
		if name == "" {
			name = capture.DefaultName
		}
		return capture.Result{
			Path:   "/tmp/screenshots/" + name,
			Header: ascal.FrameHeader{Width: 640, Height: 480, Format: ascal.RGB24},
		}, nil
	}})

	rec := post(t, s.Handler(), "/api/capture", `{"name":"shot.png"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body CaptureData
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode capture response: %v", err)
	}
	if body.Path != "/tmp/screenshots/shot.png" || body.Resolution != "640x480" || body.Format != "RGB24" {
		t.Errorf("Unexpected capture body: %+v", body)
	}

	if rec := post(t, s.Handler(), "/api/capture", `{}`); rec.Code != http.StatusOK {
		t.Errorf("Expected 200 for default name, got %d", rec.Code)
	}
	if len(got) != 2 || got[0] != "shot.png" || got[1] != "" {
		t.Errorf("Unexpected names passed to capture: %q", got)
	}

	if rec := post(t, s.Handler(), "/api/capture", `{"name":"../etc/passwd"}`); rec.Code == http.StatusOK {
		t.Error("Expected a name with a path separator to be rejected")
	}
}

func TestCaptureEndpointErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"closed", ascal.ErrClosed, http.StatusServiceUnavailable},
		{"too large", fmt.Errorf("frame: %w", capture.ErrAllocation), http.StatusUnprocessableEntity},
		{"empty", capture.ErrEmptyFrame, http.StatusUnprocessableEntity},
		{"write", errors.New("disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer(Options{Capture: func(string) (capture.Result, error) {
				return capture.Result{}, tt.err
			}})
			if rec := post(t, s.Handler(), "/api/capture", `{}`); rec.Code != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, rec.Code)
			}
		})
	}
}

func TestCaptureEndpointDisabled(t *testing.T) {
	s := NewServer(Options{Status: runningStatus})
	if rec := post(t, s.Handler(), "/api/capture", `{}`); rec.Code == http.StatusOK {
		t.Errorf("Expected capture to be unavailable without a capture func, got %d", rec.Code)
	}
}
