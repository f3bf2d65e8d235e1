package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

var httpLabels = []string{"method", "route", "status"}

var (
	httpRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "geosuggest",
			Name:      "http_request_duration_seconds",
			Help:      "Time from request start until the handler returns, streams included",
			Buckets:   []float64{0.005, 0.025, 0.1, 0.25, 0.5, 1, 2, 4, 8, 16},
		},
		httpLabels,
	)

	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "geosuggest",
			Name:      "http_requests_total",
			Help:      "Completed HTTP requests",
		},
		httpLabels,
	)

	httpResponseBytes = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "geosuggest",
			Name:      "http_response_bytes",
			Help:      "Response body size",
			Buckets:   prometheus.ExponentialBuckets(64, 4, 8),
		},
		httpLabels,
	)

	httpInFlight = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "geosuggest",
			Name:      "http_requests_in_flight",
			Help:      "Requests currently being served, by method",
		},
		[]string{"method"},
	)

	httpFlushesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "geosuggest",
			Name:      "http_stream_flushes_total",
			Help:      "Explicit flushes of streamed responses",
		},
		[]string{"route"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestDuration,
		httpRequestsTotal,
		httpResponseBytes,
		httpInFlight,
		httpFlushesTotal,
	)
}

// Middleware instruments every request routed by chi: latency, response size,
// in-flight count and stream flushes.
func Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			inFlight := httpInFlight.WithLabelValues(r.Method)
			inFlight.Inc()
			defer inFlight.Dec()

			start := time.Now()
			rec := &recorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			// The route pattern is only complete once chi has matched the request.
			route := routeLabel(r)
			labels := []string{r.Method, route, strconv.Itoa(rec.status)}
			httpRequestDuration.WithLabelValues(labels...).Observe(time.Since(start).Seconds())
			httpRequestsTotal.WithLabelValues(labels...).Inc()
			httpResponseBytes.WithLabelValues(labels...).Observe(float64(rec.bytes))
			if rec.flushes > 0 {
				httpFlushesTotal.WithLabelValues(route).Add(float64(rec.flushes))
			}
		})
	}
}

// routeLabel keeps label cardinality bounded: unmatched paths collapse to one value.
func routeLabel(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return "unmatched"
	}
	if p := rctx.RoutePattern(); p != "" {
		return p
	}
	return "unmatched"
}

// recorder tracks what the handler sent without altering it.
type recorder struct {
	http.ResponseWriter
	status      int
	bytes       int
	flushes     int
	wroteHeader bool
}

func (w *recorder) WriteHeader(status int) {
	if !w.wroteHeader {
		w.status = status
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *recorder) Write(b []byte) (int, error) {
	w.wroteHeader = true
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err //nolint:wrapcheck // delegating to underlying ResponseWriter
}

// FlushError counts the flush and forwards it; http.ResponseController prefers
// this method over Unwrap.
func (w *recorder) FlushError() error {
	w.flushes++
	return http.NewResponseController(w.ResponseWriter).Flush() //nolint:wrapcheck // delegating
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (w *recorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
