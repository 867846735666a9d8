package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveRequestCounts(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	m.ObserveRequest("GET", "/api/v1/cart/{cartID}", "200", 25*time.Millisecond)
	m.ObserveRequest("GET", "/api/v1/cart/{cartID}", "200", 40*time.Millisecond)
	m.ObserveRequest("", "", "", time.Millisecond)

	if got := testutil.ToFloat64(m.requests.WithLabelValues("GET", "/api/v1/cart/{cartID}", "200")); got != 2 {
		t.Fatalf("expected 2 requests recorded, got %v", got)
	}
	if got := testutil.ToFloat64(m.requests.WithLabelValues("unknown", "unknown", "unknown")); got != 1 {
		t.Fatalf("expected empty labels normalized, got %v", got)
	}
}

func TestNilRegistererIsNoop(t *testing.T) {
	t.Parallel()

	m := NewHTTPMetrics(nil)
	m.ObserveRequest("GET", "/", "200", time.Millisecond)
	m.IncInFlight()
	m.DecInFlight()
}

func TestInFlightGauge(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewHTTPMetrics(reg)

	m.IncInFlight()
	m.IncInFlight()
	m.DecInFlight()

	if got := testutil.ToFloat64(m.inFlight); got != 1 {
		t.Fatalf("expected 1 in-flight request, got %v", got)
	}
}
