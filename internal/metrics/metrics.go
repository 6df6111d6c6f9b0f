package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Search coordinator metrics
var (
	SearchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subtitle_searches_total",
			Help: "Total number of subtitle searches by outcome (cache_hit, completed, joined, handed_off, error).",
		},
		[]string{"outcome"},
	)

	UpstreamSearchDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name: "upstream_search_duration_seconds",
			Help: "Wall-clock duration of upstream subtitle searches, including handed-off ones.",
			// Upstream calls take anywhere from seconds to tens of minutes.
			Buckets: prometheus.ExponentialBuckets(0.5, 2, 12),
		},
	)

	SearchesInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "upstream_searches_in_flight",
			Help: "Number of upstream subtitle searches currently running.",
		},
	)
)

// Subtitle download metrics
var (
	SubtitleDownloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "subtitle_downloads_total",
			Help: "Total number of subtitle downloads.",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(
		SearchesTotal,
		UpstreamSearchDuration,
		SearchesInFlight,
		SubtitleDownloadsTotal,
	)
}
