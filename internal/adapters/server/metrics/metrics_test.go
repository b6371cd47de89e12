package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

// TestInstrumentCountsRequests verifies request counters carry the written status.
func TestInstrumentCountsRequests(t *testing.T) {
	m := New()
	handler := m.Instrument("api", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))

	for _, path := range []string{"/roadmap", "/roadmap", "/missing"} {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	if got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("api", http.MethodGet, "200")); got != 2 {
		t.Fatalf("200 count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.requestsTotal.WithLabelValues("api", http.MethodGet, "404")); got != 1 {
		t.Fatalf("404 count = %v, want 1", got)
	}
}

// TestHandlerExposesDomainMetrics verifies the exposition output.
func TestHandlerExposesDomainMetrics(t *testing.T) {
	m := New()
	m.RecordProgressUpdate("completed")
	m.ObserveGapMatch(66.67)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		`skillroute_progress_updates_total{status="completed"} 1`,
		"skillroute_gap_match_percentage_count 1",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("metrics output missing %q", want)
		}
	}
}
