// Package metrics holds the Prometheus collectors and the metrics HTTP server.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/provenance-io/p8e-publisher/common"
)

// Broadcast outcomes.
const (
	OutcomeSuccess  = "success"
	OutcomeConflict = "conflict"
	OutcomeRejected = "rejected"
	OutcomeError    = "error"
)

var registry = prometheus.NewRegistry()

var (
	objectsStored = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "objects_stored_total",
		Help: "Artifacts sealed and uploaded, by backend and result.",
	}, []string{"backend", "result"})

	broadcastAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "broadcast_attempts_total",
		Help: "Transaction broadcast attempts, by outcome.",
	}, []string{"outcome"})

	publishRuns = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "publish_runs_total",
		Help: "Publish runs per destination, by result.",
	}, []string{"destination", "result"})

	publishDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "publish_duration_seconds",
		Help:    "Time to publish one destination.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
	}, []string{"destination"})
)

func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		objectsStored,
		broadcastAttempts,
		publishRuns,
		publishDuration,
	)
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordObjectStored counts one upload attempt.
func RecordObjectStored(backend string, err error) {
	objectsStored.WithLabelValues(backend, result(err)).Inc()
}

// RecordBroadcastAttempt counts one broadcast attempt.
func RecordBroadcastAttempt(outcome string) {
	broadcastAttempts.WithLabelValues(outcome).Inc()
}

// RecordPublish counts one destination publish and its duration.
func RecordPublish(destination string, started time.Time, err error) {
	publishRuns.WithLabelValues(destination, result(err)).Inc()
	publishDuration.WithLabelValues(destination).Observe(time.Since(started).Seconds())
}

// Registry exposes the collectors, mainly for tests.
func Registry() *prometheus.Registry {
	return registry
}

// MetricsServer serves /metrics on its own listener.
type MetricsServer struct {
	srv *http.Server
}

// New creates a metrics server and registers a <namespace>_build_info gauge.
func New(namespace, addr string) (*MetricsServer, error) {
	buildInfo := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace:   namespace,
		Name:        "build_info",
		Help:        "Build information.",
		ConstLabels: prometheus.Labels{"version": common.Version},
	})
	if err := registry.Register(buildInfo); err != nil {
		var already prometheus.AlreadyRegisteredError
		if !errors.As(err, &already) {
			return nil, err
		}
	} else {
		buildInfo.Set(1)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	return &MetricsServer{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}, nil
}

// ListenAndServe blocks until the server stops.
func (m *MetricsServer) ListenAndServe() error {
	return m.srv.ListenAndServe()
}

// Shutdown stops the server gracefully.
func (m *MetricsServer) Shutdown(ctx context.Context) error {
	return m.srv.Shutdown(ctx)
}
