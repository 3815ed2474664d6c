package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCollectorCounts(t *testing.T) {
	c := NewCollector("gateway", nil)

	c.ObserveRequest("generate_stream", OutcomeOK, 120*time.Millisecond)
	c.ObserveRequest("generate_stream", OutcomeOK, 80*time.Millisecond)
	c.ObserveRequest("generate_subtasks", "malformed_response", time.Second)
	c.AddFragment()
	c.AddFragment()
	c.AddFragment()

	if got := testutil.ToFloat64(c.requestsTotal.WithLabelValues("generate_stream", OutcomeOK)); got != 2 {
		t.Errorf("expected 2 ok stream requests, got %v", got)
	}
	if got := testutil.ToFloat64(c.requestsTotal.WithLabelValues("generate_subtasks", "malformed_response")); got != 1 {
		t.Errorf("expected 1 malformed subtask request, got %v", got)
	}
	if got := testutil.ToFloat64(c.fragmentsTotal); got != 3 {
		t.Errorf("expected 3 fragments, got %v", got)
	}
}

func TestNilCollector(t *testing.T) {
	var c *Collector
	c.ObserveRequest("generate_stream", OutcomeOK, time.Second)
	c.AddFragment()

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 from nil collector handler, got %d", rec.Code)
	}
}

func TestHandlerExposition(t *testing.T) {
	c := NewCollector("gateway", nil)
	c.ObserveRequest("generate_subtasks", OutcomeOK, 10*time.Millisecond)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "gateway_requests_total") {
		t.Errorf("expected gateway_requests_total in exposition, got:\n%s", rec.Body.String())
	}
}
