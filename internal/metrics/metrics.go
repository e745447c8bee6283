// Package metrics holds the Prometheus collectors shared by the pipeline,
// the loader and the HTTP layer. Collectors live on a dedicated registry
// so tests and embedded servers never collide with the global one.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Document results.
const (
	ResultWritten = "written"
	ResultSkipped = "skipped"
	ResultFailed  = "failed"
)

// Metrics is a set of collectors registered on one registry.
type Metrics struct {
	Registry *prometheus.Registry

	Documents        *prometheus.CounterVec
	DocumentDuration prometheus.Histogram
	StudiesLoaded    prometheus.Counter
	HTTPRequests     *prometheus.CounterVec
	HTTPDuration     *prometheus.HistogramVec
}

// New creates and registers every collector on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		Documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ctrake_documents_total",
			Help: "Registry documents processed by the converter, by result.",
		}, []string{"result"}),
		DocumentDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ctrake_document_duration_seconds",
			Help:    "Time spent transforming one document.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 14),
		}),
		StudiesLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ctrake_studies_loaded_total",
			Help: "Canonical study records loaded into the relational store.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ctrake_http_requests_total",
			Help: "HTTP requests served, by route and status code.",
		}, []string{"route", "code"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "ctrake_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
	}

	m.Registry.MustRegister(
		m.Documents,
		m.DocumentDuration,
		m.StudiesLoaded,
		m.HTTPRequests,
		m.HTTPDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{})
}
