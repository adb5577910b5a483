package importer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics bundles Prometheus collectors for the import pipeline.
type Metrics struct {
	Registry             *prometheus.Registry
	ImportsTotal         *prometheus.CounterVec
	ImportDuration       prometheus.Histogram
	CandidateChecksTotal *prometheus.CounterVec
	BooksImportedTotal   prometheus.Counter
}

// NewMetrics constructs and registers all metrics on a dedicated registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()

	imports := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "importer_imports_total",
			Help: "Total import requests by outcome.",
		},
		[]string{"outcome"},
	)
	duration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "importer_import_duration_seconds",
			Help:    "End-to-end import request latency.",
			Buckets: prometheus.DefBuckets,
		},
	)
	candidateChecks := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "importer_candidate_checks_total",
			Help: "Shelf candidate validation calls by result.",
		},
		[]string{"result"},
	)
	books := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "importer_books_imported_total",
			Help: "Total book records returned to callers.",
		},
	)

	registry.MustRegister(imports, duration, candidateChecks, books)

	return &Metrics{
		Registry:             registry,
		ImportsTotal:         imports,
		ImportDuration:       duration,
		CandidateChecksTotal: candidateChecks,
		BooksImportedTotal:   books,
	}
}

// IncImport increments the imports counter for an outcome label.
func (m *Metrics) IncImport(outcome string) {
	if m == nil {
		return
	}
	m.ImportsTotal.WithLabelValues(outcome).Inc()
}

// ObserveDuration records one import request duration.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.ImportDuration.Observe(d.Seconds())
}

// IncCandidateCheck increments the candidate validation counter.
func (m *Metrics) IncCandidateCheck(result string) {
	if m == nil {
		return
	}
	m.CandidateChecksTotal.WithLabelValues(result).Inc()
}

// AddBooks adds to the imported books counter.
func (m *Metrics) AddBooks(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.BooksImportedTotal.Add(float64(n))
}
