// Package metrics provides Prometheus metrics for spreadsheet extraction.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Extraction status label values.
const (
	StatusOK         = "ok"
	StatusParseError = "parse_error"
	StatusRejected   = "rejected"
	StatusTimeout    = "timeout"
	StatusError      = "error"
)

var (
	ExtractionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sheetsections_extractions_total",
			Help: "Total number of extraction attempts",
		},
		[]string{"status"},
	)

	ExtractionDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sheetsections_extraction_duration_seconds",
			Help:    "Time taken to extract sections from one upload",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30},
		},
	)

	SectionsExtracted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sheetsections_sections_total",
			Help: "Total number of sections returned",
		},
	)

	ProductsExtracted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sheetsections_products_total",
			Help: "Total number of product rows returned",
		},
	)

	RowsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sheetsections_rows_skipped_total",
			Help: "Rows that were neither terminators nor products",
		},
		[]string{"reason"},
	)

	DanglingProducts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sheetsections_dangling_products_total",
			Help: "Product rows discarded because no Total: row followed them",
		},
	)

	UploadBytes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sheetsections_upload_bytes_total",
			Help: "Bytes read from uploaded files",
		},
	)

	UploadsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "sheetsections_uploads_active",
			Help: "Extractions currently holding an upload slot",
		},
	)
)

// RecordExtraction records the outcome of one extraction attempt.
func RecordExtraction(status string, duration time.Duration) {
	ExtractionsTotal.WithLabelValues(status).Inc()
	ExtractionDuration.Observe(duration.Seconds())
}
