package exporters

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/smazurov/scalerwatch/internal/events"
	"github.com/smazurov/scalerwatch/internal/metrics"
)

func scrape(t *testing.T, srv *httptest.Server) string {
	t.Helper()
	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	return string(body)
}

func TestHTTPHandlerServesRecordedCycles(t *testing.T) {
	bus := events.New()
	defer bus.Close()

	r := metrics.NewRecorder()
	r.Attach(bus)
	defer r.Detach()

	srv := httptest.NewServer(HTTPHandler())
	defer srv.Close()

	bus.Publish(events.FrameSampledEvent{Cycle: 1, Layout: "ascal", Resolution: "320x240", Format: "RGB565LE", Samples: 4800, Changed: true})

	want := `scalerwatch_frame_info{format="RGB565LE",layout="ascal",resolution="320x240"} 1`
	var body string
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		body = scrape(t, srv)
		if strings.Contains(body, want) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if !strings.Contains(body, want) {
		t.Fatalf("Expected %q in scrape output", want)
	}

	for _, name := range []string{
		"scalerwatch_monitor_cycles_total",
		"scalerwatch_monitor_frame_changes_total",
		"promhttp_metric_handler_requests_total",
	} {
		if !strings.Contains(body, name) {
			t.Errorf("Expected %s in scrape output", name)
		}
	}
}
