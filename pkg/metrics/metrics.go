// Package metrics exposes the pipeline's Prometheus instrumentation.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ScansTotal counts finished scans by verdict band.
	ScansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagewarden_scans_total",
		Help: "Completed scans by verdict band.",
	}, []string{"verdict"})

	// ScanErrors counts scans that aborted before a result existed.
	ScanErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagewarden_scan_errors_total",
		Help: "Scans aborted by a fatal error, by kind.",
	}, []string{"kind"})

	// TierFallbacks counts forward advances through the model chain.
	TierFallbacks = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagewarden_tier_fallbacks_total",
		Help: "Model tier advances, labeled by the tier abandoned.",
	}, []string{"from_tier"})

	// ParseFallbacks counts replies salvaged by the lexical classifier.
	ParseFallbacks = promauto.NewCounter(prometheus.CounterOpts{
		Name: "pagewarden_parse_fallbacks_total",
		Help: "Replies with no usable JSON, classified lexically.",
	})

	// ExtractionStrategy counts which extraction path produced snapshots.
	ExtractionStrategy = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pagewarden_extraction_strategy_total",
		Help: "Snapshots produced, by extraction strategy.",
	}, []string{"strategy"})

	// ScanDuration observes end-to-end scan latency.
	ScanDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "pagewarden_scan_duration_seconds",
		Help:    "End-to-end scan latency.",
		Buckets: []float64{0.5, 1, 2, 5, 10, 20, 40},
	})
)

// Handler returns the scrape endpoint handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
