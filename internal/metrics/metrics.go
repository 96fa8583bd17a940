// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// RequestTotal counts HTTP requests by method, route pattern and status.
	RequestTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fundsheet_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
	// RequestDuration is the latency of HTTP requests.
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fundsheet_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)
	// OperationsTotal counts ingest, search and export calls by outcome.
	OperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fundsheet_operations_total",
			Help: "Total number of ingest, search and export operations",
		},
		[]string{"operation", "status"},
	)
	// OperationDuration is the latency of ingest, search and export.
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fundsheet_operation_duration_seconds",
			Help:    "Operation latency in seconds",
			Buckets: []float64{.01, .05, .1, .5, 1, 5, 15, 60, 300},
		},
		[]string{"operation"},
	)
	// RowsIngested counts records persisted by ingestion.
	RowsIngested = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fundsheet_rows_ingested_total",
			Help: "Total number of spreadsheet rows persisted",
		},
	)
	// RowsReturned counts records returned by search and export.
	RowsReturned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fundsheet_rows_returned_total",
			Help: "Total number of records returned",
		},
		[]string{"operation"},
	)
	// IngestsInFlight is the number of ingestions holding a limiter slot.
	IngestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "fundsheet_ingests_in_flight",
			Help: "Number of ingestions currently running",
		},
	)
)

// Observe records one operation outcome and its latency.
func Observe(operation string, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	OperationsTotal.WithLabelValues(operation, status).Inc()
	OperationDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
