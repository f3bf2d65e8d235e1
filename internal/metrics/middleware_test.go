package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsMiddleware_RecordsDurationAndCount(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/api/test", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	req := httptest.NewRequest("GET", "/api/test", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != 200 {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	requestsVal := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/api/test", "200"))
	if requestsVal < 1 {
		t.Errorf("expected http_requests_total >= 1, got %f", requestsVal)
	}

	durationCount := testutil.CollectAndCount(httpRequestDuration)
	if durationCount == 0 {
		t.Error("expected http_request_duration_seconds to have observations")
	}
}

func TestMetricsMiddleware_DifferentStatusCodes(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())

	r.Get("/ok", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/notfound", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	r.Get("/error", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	tests := []struct {
		path           string
		expectedStatus string
	}{
		{"/ok", "200"},
		{"/notfound", "404"},
		{"/error", "500"},
	}

	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			req := httptest.NewRequest("GET", tc.path, http.NoBody)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			val := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", tc.path, tc.expectedStatus))
			if val < 1 {
				t.Errorf("expected requests_total for %s with status %s >= 1, got %f", tc.path, tc.expectedStatus, val)
			}
		})
	}
}

func TestMetricsMiddleware_DifferentMethods(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())

	r.Get("/resource", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("get"))
	})
	r.Post("/resource", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("post"))
	})
	r.Delete("/resource", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("delete"))
	})

	methods := []string{"GET", "POST", "DELETE"}

	for _, method := range methods {
		t.Run(method, func(t *testing.T) {
			req := httptest.NewRequest(method, "/resource", http.NoBody)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)

			val := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(method, "/resource", "200"))
			if val < 1 {
				t.Errorf("expected requests_total for %s >= 1, got %f", method, val)
			}
		})
	}
}

func TestRouteLabel(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/v1/sessions/{session}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	for _, path := range []string{"/v1/sessions/a", "/v1/sessions/b"} {
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest("GET", path, http.NoBody))
	}
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/nowhere/at/all", http.NoBody))

	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/v1/sessions/{session}", "204")); got < 2 {
		t.Errorf("expected both sessions under one route label, got %f", got)
	}
	if got := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "unmatched", "404")); got < 1 {
		t.Errorf("expected unmatched label for unknown path, got %f", got)
	}

	bare := httptest.NewRequest("GET", "/x", http.NoBody)
	if got := routeLabel(bare); got != "unmatched" {
		t.Errorf("routeLabel without chi context = %q, want unmatched", got)
	}
}

func TestMetricsMiddleware_InFlight(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})

	r := chi.NewRouter()
	r.Use(Middleware())
	r.Put("/slow", func(w http.ResponseWriter, r *http.Request) {
		close(entered)
		<-release
	})

	before := testutil.ToFloat64(httpInFlight.WithLabelValues("PUT"))
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("PUT", "/slow", http.NoBody))
	}()

	<-entered
	if got := testutil.ToFloat64(httpInFlight.WithLabelValues("PUT")); got != before+1 {
		t.Errorf("in-flight during request = %f, want %f", got, before+1)
	}
	close(release)
	<-done
	if got := testutil.ToFloat64(httpInFlight.WithLabelValues("PUT")); got != before {
		t.Errorf("in-flight after request = %f, want %f", got, before)
	}
}

func TestMetricsMiddleware_ResponseBytes(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/sized", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 100)))
		_, _ = w.Write([]byte(strings.Repeat("y", 28)))
	})

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest("GET", "/sized", http.NoBody))

	if rr.Body.Len() != 128 {
		t.Fatalf("expected body to pass through, got %d bytes", rr.Body.Len())
	}
	if n := testutil.CollectAndCount(httpResponseBytes); n == 0 {
		t.Error("expected http_response_bytes to have observations")
	}
}

func TestMetricsMiddleware_StreamingFlush(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware())
	r.Get("/v1/suggest", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{}\n"))
		if err := http.NewResponseController(w).Flush(); err != nil {
			t.Errorf("flush through metrics writer: %v", err)
		}
	})

	req := httptest.NewRequest("GET", "/v1/suggest", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if !rr.Flushed {
		t.Fatal("expected response to be flushed")
	}
	if got := testutil.ToFloat64(httpFlushesTotal.WithLabelValues("/v1/suggest")); got < 1 {
		t.Errorf("expected stream flush to be counted, got %f", got)
	}
	val := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("GET", "/v1/suggest", "200"))
	if val < 1 {
		t.Errorf("expected requests_total for streaming route >= 1, got %f", val)
	}
}

func TestMetricsHandler_ViaPromhttp(t *testing.T) {
	RegisterSuggestMetrics()
	CallbacksTotal.WithLabelValues("true").Inc()

	r := chi.NewRouter()
	r.Handle("/metrics", promhttp.Handler())

	req := httptest.NewRequest("GET", "/metrics", http.NoBody)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	if rr.Code != 200 {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	body, err := io.ReadAll(rr.Body)
	if err != nil {
		t.Fatalf("failed to read body: %v", err)
	}

	if !strings.Contains(string(body), "geosuggest_callbacks_total") {
		t.Error("expected geosuggest_callbacks_total in metrics output")
	}
}

func TestRegisterSuggestMetrics_Idempotent(t *testing.T) {
	RegisterSuggestMetrics()
	RegisterSuggestMetrics()
}
