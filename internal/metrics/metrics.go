package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "maru_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "maru_http_request_duration_seconds",
		Help:    "HTTP request duration in seconds",
		Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}, []string{"method", "path"})
)

// Moderation metrics
var (
	ModerationActionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "maru_moderation_actions_total",
		Help: "Total number of applied moderation actions",
	}, []string{"action", "origin"})

	AutoFilterScansTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "maru_autofilter_scans_total",
		Help: "Total number of keyword filter scans on content writes",
	})

	AutoFilterHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "maru_autofilter_hits_total",
		Help: "Total number of content writes auto-blinded by the keyword filter",
	})

	AuditEntriesPrunedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "maru_audit_entries_pruned_total",
		Help: "Total number of audit log entries removed by retention cleanup",
	})
)

// Business metrics (gauges updated periodically by the collector)
var (
	ListingsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "maru_listings_total",
		Help: "Total number of listings, including blocked ones",
	})

	WantedItemsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "maru_wanted_items_total",
		Help: "Total number of wanted ads, including blocked ones",
	})

	BlockedListingsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "maru_blocked_listings_total",
		Help: "Number of listings currently blinded or deleted",
	})

	AuditEntriesTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "maru_audit_entries_total",
		Help: "Total number of audit log entries",
	})
)

// NormalizePath reduces high-cardinality path labels by replacing dynamic
// segments with placeholders. This keeps the metric label space bounded.
func NormalizePath(path string) string {
	segments := splitPath(path)
	if len(segments) < 2 {
		return path
	}

	switch segments[0] {
	case "listings", "wanted":
		if len(segments) == 2 {
			return "/" + segments[0] + "/:id"
		}
		if len(segments) == 3 {
			switch segments[2] {
			case "status", "moderate", "history":
				return "/" + segments[0] + "/:id/" + segments[2]
			}
		}
	case "admin":
		if len(segments) >= 3 {
			switch segments[1] {
			case "listings", "wanted":
				if len(segments) == 4 {
					switch segments[3] {
					case "moderate", "history":
						return "/admin/" + segments[1] + "/:id/" + segments[3]
					}
				}
			}
		}
	}

	return path
}

func splitPath(path string) []string {
	// Skip leading slash
	if len(path) > 0 && path[0] == '/' {
		path = path[1:]
	}
	// Split on /
	var segments []string
	start := 0
	for i := 0; i < len(path); i++ {
		if path[i] == '/' {
			segments = append(segments, path[start:i])
			start = i + 1
		}
	}
	if start < len(path) {
		segments = append(segments, path[start:])
	}
	return segments
}
