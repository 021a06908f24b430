// Package metrics exports ingestion counters to Prometheus.
package metrics

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/agentstation/collectionmap/internal/uploads"
	pkgerrors "github.com/agentstation/collectionmap/pkg/errors"
	"github.com/agentstation/collectionmap/pkg/ingest"
)

const namespace = "collectionmap"

// Metrics holds the ingestion collectors and the registry they live in.
type Metrics struct {
	registry *prometheus.Registry

	mu      sync.Mutex
	pending prometheus.Collector

	uploadsCreated prometheus.Counter
	uploadsExpired prometheus.Counter
	uploadsMapped  prometheus.Counter
	uploadsFailed  *prometheus.CounterVec
	rowsIngested   prometheus.Counter
	rowsSkipped    prometheus.Counter
	recordsCreated *prometheus.CounterVec
	commitDuration prometheus.Histogram
	httpRequests   *prometheus.CounterVec
}

// New creates collectors on a fresh registry that also carries the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		uploadsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "uploads", Name: "created_total",
			Help: "Uploads parsed and stored.",
		}),
		uploadsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "uploads", Name: "expired_total",
			Help: "Uploads reaped before a mapping was committed.",
		}),
		uploadsMapped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "uploads", Name: "mapped_total",
			Help: "Uploads committed through a header mapping.",
		}),
		uploadsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "uploads", Name: "failed_total",
			Help: "Rejected files and failed commits by stage and reason.",
		}, []string{"stage", "reason"}),
		rowsIngested: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "rows", Name: "ingested_total",
			Help: "Rows committed as records.",
		}),
		rowsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "rows", Name: "skipped_total",
			Help: "Rows skipped for missing required values.",
		}),
		recordsCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "records", Name: "created_total",
			Help: "Institutions and collections created by commits.",
		}, []string{"kind"}),
		commitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "uploads", Name: "commit_duration_seconds",
			Help:    "Time to map, resolve and persist an upload.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total",
			Help: "HTTP requests by method and status class.",
		}, []string{"method", "code"}),
	}

	reg.MustRegister(
		m.uploadsCreated, m.uploadsExpired, m.uploadsMapped, m.uploadsFailed,
		m.rowsIngested, m.rowsSkipped, m.recordsCreated, m.commitDuration, m.httpRequests,
	)
	return m
}

// Attach counts the service's upload lifecycle events.
func (m *Metrics) Attach(svc ingest.Service) {
	svc.OnUploadCreated(func(ingest.UploadCreatedEvent) {
		m.uploadsCreated.Inc()
	})
	svc.OnUploadExpired(func(ingest.UploadExpiredEvent) {
		m.uploadsExpired.Inc()
	})
	svc.OnUploadFailed(func(e ingest.UploadFailedEvent) {
		m.uploadsFailed.WithLabelValues(e.Stage, Reason(e.Err)).Inc()
	})
	svc.OnUploadMapped(func(e ingest.UploadMappedEvent) {
		r := e.Result
		m.uploadsMapped.Inc()
		m.rowsIngested.Add(float64(r.RowsTotal - r.RowsSkipped))
		m.rowsSkipped.Add(float64(r.RowsSkipped))
		m.recordsCreated.WithLabelValues("institution").Add(float64(r.InstitutionsCreated))
		m.recordsCreated.WithLabelValues("collection").Add(float64(r.CollectionsCreated))
		m.commitDuration.Observe(e.Duration.Seconds())
	})
}

// WatchPending exports the number of live uploads in store as a gauge.
// A later call replaces the store being watched.
func (m *Metrics) WatchPending(store uploads.Store) {
	gauge := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: "uploads", Name: "pending",
		Help: "Uploads waiting for a mapping.",
	}, func() float64 {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		n, err := store.Len(ctx)
		if err != nil {
			return -1
		}
		return float64(n)
	})

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending != nil {
		m.registry.Unregister(m.pending)
	}
	m.registry.MustRegister(gauge)
	m.pending = gauge
}

// ObserveRequest counts one HTTP response.
func (m *Metrics) ObserveRequest(method string, status int) {
	m.httpRequests.WithLabelValues(method, statusClass(status)).Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Reason classifies an ingestion error into a low-cardinality label.
func Reason(err error) string {
	switch {
	case pkgerrors.IsInvalidFile(err):
		return "invalid_file"
	case pkgerrors.IsNotFound(err):
		return "not_found"
	case pkgerrors.IsInvalidMapping(err):
		return "invalid_mapping"
	case pkgerrors.IsConflict(err):
		return "conflict"
	}
	return "internal"
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	}
	return "2xx"
}
