package metrics

import "github.com/prometheus/client_golang/prometheus"

// Suggestion Prometheus metrics.
var (
	RemoteSearchRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "geosuggest",
			Name:      "remote_search_requests_total",
			Help:      "Total number of remote search requests",
		},
		[]string{"source", "status"}, // source: "term" / "location"
	)

	RemoteSearchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "geosuggest",
			Name:      "remote_search_duration_seconds",
			Help:      "Remote search request duration in seconds",
			Buckets:   []float64{0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"source"},
	)

	RemoteSearchErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "geosuggest",
			Name:      "remote_search_errors_total",
			Help:      "Total remote search errors",
		},
		[]string{"source", "error_type"},
	)

	StaleResponsesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "geosuggest",
			Name:      "stale_responses_total",
			Help:      "Responses discarded because a newer query superseded them",
		},
		[]string{"source"},
	)

	LocationCascadesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "geosuggest",
			Name:      "location_cascades_total",
			Help:      "Location searches issued after a short term-search result",
		},
	)

	CallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "geosuggest",
			Name:      "callbacks_total",
			Help:      "Suggestion callbacks delivered to callers",
		},
		[]string{"final"},
	)

	MalformedRecordsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "geosuggest",
			Name:      "malformed_records_total",
			Help:      "Records dropped because they could not be keyed or projected",
		},
	)

	SearchCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "geosuggest",
			Name:      "search_cache_total",
			Help:      "Search response cache hits and misses",
		},
		[]string{"source", "result"}, // "hit" / "miss"
	)

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "geosuggest",
			Name:      "active_sessions",
			Help:      "Number of open typing sessions",
		},
	)
)

var suggestMetricsRegistered bool

// RegisterSuggestMetrics registers Prometheus suggestion metrics. Must be called once from main.
func RegisterSuggestMetrics() {
	if suggestMetricsRegistered {
		return
	}
	prometheus.MustRegister(RemoteSearchRequestsTotal)
	prometheus.MustRegister(RemoteSearchDuration)
	prometheus.MustRegister(RemoteSearchErrorsTotal)
	prometheus.MustRegister(StaleResponsesTotal)
	prometheus.MustRegister(LocationCascadesTotal)
	prometheus.MustRegister(CallbacksTotal)
	prometheus.MustRegister(MalformedRecordsTotal)
	prometheus.MustRegister(SearchCacheTotal)
	prometheus.MustRegister(ActiveSessions)
	suggestMetricsRegistered = true
}
