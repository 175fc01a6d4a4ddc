// Package metrics exposes Prometheus metrics for operations driven by the
// tracker.
package metrics
