package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	conversionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "byentech",
			Name:      "conversions_total",
			Help:      "Total conversion requests by result (success, validation_error, conversion_error, internal_error, busy)",
		},
		[]string{"result"},
	)

	conversionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "byentech",
			Name:      "conversion_duration_seconds",
			Help:      "Duration of successful batch conversions",
			Buckets:   prometheus.DefBuckets,
		},
	)

	pagesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "byentech",
			Name:      "pages_total",
			Help:      "Total pages emitted into finished documents",
		},
	)

	batchSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "byentech",
			Name:      "batch_size_images",
			Help:      "Number of images per conversion request",
			Buckets:   []float64{1, 2, 5, 10, 20, 35, 50},
		},
	)

	documentBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "byentech",
			Name:      "document_bytes",
			Help:      "Size of finished PDF documents in bytes",
			Buckets:   prometheus.ExponentialBuckets(64*1024, 4, 8),
		},
	)

	rejectedFiles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "byentech",
			Name:      "rejected_files_total",
			Help:      "Uploaded files rejected before or during decode, by reason",
		},
		[]string{"reason"},
	)

	inflight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "byentech",
			Name:      "conversions_inflight",
			Help:      "Conversions currently being processed",
		},
	)
)

// Init registers collectors.
func Init() {
	prometheus.MustRegister(conversionsTotal, conversionDuration, pagesTotal, batchSize, documentBytes, rejectedFiles, inflight)
}

// Handler returns the http.Handler for /metrics
func Handler() http.Handler { return promhttp.Handler() }

func ObserveConversion(result string, dur time.Duration) {
	conversionsTotal.WithLabelValues(result).Inc()
	if result == "success" {
		conversionDuration.Observe(dur.Seconds())
	}
}

func AddPages(n int)             { pagesTotal.Add(float64(n)) }
func ObserveBatchSize(n int)     { batchSize.Observe(float64(n)) }
func ObserveDocumentSize(n int)  { documentBytes.Observe(float64(n)) }
func IncRejected(reason string)  { rejectedFiles.WithLabelValues(reason).Inc() }
func IncInflight()               { inflight.Inc() }
func DecInflight()               { inflight.Dec() }
