package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records the lifecycle of tracked operations.
//
// A nil *Metrics is valid and records nothing, so components can take one
// unconditionally.
type Metrics struct {
	operationsStarted   *prometheus.CounterVec
	operationsCompleted *prometheus.CounterVec
	operationsInFlight  *prometheus.GaugeVec
	operationDuration   *prometheus.HistogramVec
	pollsTotal          *prometheus.CounterVec
	callbackPanics      prometheus.Counter
}

// New registers the collectors with reg. A nil reg uses the default
// registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	factory := promauto.With(reg)

	return &Metrics{
		operationsStarted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "longrun",
			Subsystem: "tracker",
			Name:      "operations_started_total",
			Help:      "Total number of operations started or resumed",
		}, []string{"kind"}),

		operationsCompleted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "longrun",
			Subsystem: "tracker",
			Name:      "operations_completed_total",
			Help:      "Total number of operations that stopped being tracked, by final status",
		}, []string{"kind", "status"}),

		operationsInFlight: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "longrun",
			Subsystem: "tracker",
			Name:      "operations_in_flight",
			Help:      "Number of operations currently being polled",
		}, []string{"kind"}),

		operationDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "longrun",
			Subsystem: "tracker",
			Name:      "operation_duration_seconds",
			Help:      "Time from start to the end of tracking",
			Buckets:   []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800, 3600},
		}, []string{"kind", "status"}),

		pollsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "longrun",
			Subsystem: "tracker",
			Name:      "polls_total",
			Help:      "Total number of status checks",
		}, []string{"kind"}),

		callbackPanics: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "longrun",
			Subsystem: "tracker",
			Name:      "callback_panics_total",
			Help:      "Total number of recovered panics in result callbacks",
		}),
	}
}

// Started records an operation entering the tracker.
func (m *Metrics) Started(kind string) {
	if m == nil {
		return
	}
	m.operationsStarted.WithLabelValues(kind).Inc()
	m.operationsInFlight.WithLabelValues(kind).Inc()
}

// Completed records an operation leaving the tracker. status is the final
// handle status, or a reason such as "timeout" or "error".
func (m *Metrics) Completed(kind, status string, attempts int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.operationsInFlight.WithLabelValues(kind).Dec()
	m.operationsCompleted.WithLabelValues(kind, status).Inc()
	m.operationDuration.WithLabelValues(kind, status).Observe(elapsed.Seconds())
	m.pollsTotal.WithLabelValues(kind).Add(float64(attempts))
}

// CallbackPanic records a recovered callback panic.
func (m *Metrics) CallbackPanic() {
	if m == nil {
		return
	}
	m.callbackPanics.Inc()
}

// Handler returns the /metrics handler for g. A nil g uses the default
// gatherer.
func Handler(g prometheus.Gatherer) http.Handler {
	if g == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
