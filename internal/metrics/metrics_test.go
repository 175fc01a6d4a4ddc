package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Lifecycle(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.Started("analyze")
	m.Started("analyze")
	m.Completed("analyze", "succeeded", 4, 3*time.Second)

	if got := testutil.ToFloat64(m.operationsStarted.WithLabelValues("analyze")); got != 2 {
		t.Errorf("operations_started_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.operationsInFlight.WithLabelValues("analyze")); got != 1 {
		t.Errorf("operations_in_flight = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.operationsCompleted.WithLabelValues("analyze", "succeeded")); got != 1 {
		t.Errorf("operations_completed_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.pollsTotal.WithLabelValues("analyze")); got != 4 {
		t.Errorf("polls_total = %v, want 4", got)
	}
	if got := testutil.CollectAndCount(m.operationDuration); got != 1 {
		t.Errorf("operation_duration_seconds series = %d, want 1", got)
	}
}

func TestMetrics_CallbackPanic(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.CallbackPanic()

	if got := testutil.ToFloat64(m.callbackPanics); got != 1 {
		t.Errorf("callback_panics_total = %v, want 1", got)
	}
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	// should not panic
	m.Started("analyze")
	m.Completed("analyze", "failed", 1, time.Second)
	m.CallbackPanic()
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.Started("build")

	server := httptest.NewServer(Handler(reg))
	defer server.Close()

	resp, err := http.Get(server.URL)
	if err != nil {
		t.Fatalf("GET /metrics error = %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `longrun_tracker_operations_started_total{kind="build"} 1`) {
		t.Errorf("metrics output missing started counter:\n%s", body)
	}
}
