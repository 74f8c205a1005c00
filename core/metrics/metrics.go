// Package metrics exposes reconciliation and HTTP metrics in the Prometheus
// format.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"marker-sync/core/reconcile"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "marker_sync"

// Collector owns a registry and every metric of the daemon.
type Collector struct {
	registry *prometheus.Registry

	passes             *prometheus.CounterVec
	passDuration       prometheus.Histogram
	markers            *prometheus.GaugeVec
	skipped            *prometheus.CounterVec
	resolutionFailures *prometheus.CounterVec
	applyFailures      *prometheus.CounterVec
	httpRequests       *prometheus.CounterVec
	httpDuration       *prometheus.HistogramVec
}

// New creates a collector with its own registry, including the Go runtime
// and process collectors.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		passes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "reconcile",
				Name:      "passes_total",
				Help:      "Reconciliation passes by result.",
			},
			[]string{"result"},
		),
		passDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "reconcile",
				Name:      "pass_duration_seconds",
				Help:      "Reconciliation pass duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
		),
		markers: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "reconcile",
				Name:      "markers",
				Help:      "Markers placed by the last pass.",
			},
			[]string{"group"},
		),
		skipped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "reconcile",
				Name:      "markers_skipped_total",
				Help:      "Locations not placed, by reason.",
			},
			[]string{"group", "reason"},
		),
		resolutionFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "reconcile",
				Name:      "resolution_failures_total",
				Help:      "Locations the source could not resolve.",
			},
			[]string{"group"},
		),
		applyFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "reconcile",
				Name:      "apply_failures_total",
				Help:      "Markers the renderer rejected.",
			},
			[]string{"group"},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total HTTP requests.",
			},
			[]string{"method", "path", "status"},
		),
		httpDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "path", "status"},
		),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.passes,
		c.passDuration,
		c.markers,
		c.skipped,
		c.resolutionFailures,
		c.applyFailures,
		c.httpRequests,
		c.httpDuration,
	)
	return c
}

// Registry returns the underlying registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

// ObservePass records a pass summary.
func (c *Collector) ObservePass(s reconcile.Summary) {
	if s.Skipped {
		c.passes.WithLabelValues("skipped").Inc()
		return
	}

	c.passes.WithLabelValues("completed").Inc()
	c.passDuration.Observe(s.Duration.Seconds())

	for group, gs := range s.Groups {
		if gs == nil {
			continue
		}
		c.markers.WithLabelValues(group).Set(float64(gs.Added))
		c.skipped.WithLabelValues(group, "blacklisted").Add(float64(gs.Blacklisted))
		c.skipped.WithLabelValues(group, "capped").Add(float64(gs.Capped))
		c.skipped.WithLabelValues(group, "disabled").Add(boolToFloat(gs.Disabled))

		resolution := gs.Unresolved
		if gs.Panicked {
			resolution++
		}
		c.resolutionFailures.WithLabelValues(group).Add(float64(resolution))
		c.applyFailures.WithLabelValues(group).Add(float64(gs.Failed))
	}
}

// RecordHTTPRequest records one served request.
func (c *Collector) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	statusLabel := strconv.Itoa(status)
	c.httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	c.httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
