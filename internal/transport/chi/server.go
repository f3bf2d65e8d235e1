package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/geosuggest/internal/domain"
	"github.com/kailas-cloud/geosuggest/internal/domain/suggestion"
	"github.com/kailas-cloud/geosuggest/internal/logger"
	healthuc "github.com/kailas-cloud/geosuggest/internal/usecase/health"
	sessionuc "github.com/kailas-cloud/geosuggest/internal/usecase/session"
)

// ndjsonContentType is the media type of suggestion streams.
const ndjsonContentType = "application/x-ndjson"

// SessionHeader carries the session ID of a suggestion stream.
const SessionHeader = "X-Session-ID"

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error) bool

// Server serves the suggestion HTTP API.
type Server struct {
	sessions      *sessionuc.Registry
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(sessions *sessionuc.Registry, health *healthuc.Service, logger *zap.Logger) *Server {
	s := &Server{
		sessions: sessions,
		health:   health,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, ErrorCodeValidationFailed),
		sentinelHandler(domain.ErrSessionLimit, http.StatusTooManyRequests, ErrorCodeSessionLimit),
	}
	return s
}

// Routes registers the API on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/v1/suggest", s.Suggest)
	r.Delete("/v1/sessions/{session}", s.CloseSession)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// Suggest handles GET /v1/suggest. It submits q on the caller's session and
// streams one NDJSON line per delivered callback until the lookup settles.
// A stream superseded by a newer request on the same session ends early.
func (s *Server) Suggest(w http.ResponseWriter, r *http.Request) {
	params, err := bindSuggestParams(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeBadRequest, err.Error())
		return
	}
	at, err := params.coordinate()
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}
	filter, err := params.filter()
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrorCodeValidationFailed, err.Error())
		return
	}

	id, svc, err := s.sessions.Acquire(params.session())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.Header().Set("Content-Type", ndjsonContentType)
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set(SessionHeader, id)
	w.WriteHeader(http.StatusOK)

	ctx := logger.WithSession(r.Context(), id)
	log := logger.FromContext(ctx)
	query := suggestion.NewQuery(params.query()).Text()

	// At most two callbacks per submission, so the buffer never blocks the guard.
	lines := make(chan SuggestLine, 2)
	done := make(chan struct{})
	go func() {
		defer close(done)
		rc := http.NewResponseController(w)
		enc := json.NewEncoder(w)
		for line := range lines {
			if err := enc.Encode(line); err != nil {
				log.Debug("Failed to write suggestion line", zap.Error(err))
				continue
			}
			if err := rc.Flush(); err != nil {
				log.Debug("Failed to flush suggestion line", zap.Error(err))
			}
		}
	}()

	svc.SubmitWait(ctx, params.query(), at, filter, func(results []suggestion.Result, final bool) {
		lines <- suggestLine(id, query, at, final, results)
	})
	close(lines)
	<-done

	if active := svc.ActiveQuery(); active != query {
		log.Debug("Suggestion stream superseded", zap.String("active", active))
	}
}

// CloseSession handles DELETE /v1/sessions/{session}.
func (s *Server) CloseSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "session")
	if !s.sessions.Close(id) {
		writeError(w, http.StatusNotFound, ErrorCodeNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, err.Error())
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	for _, h := range s.errorHandlers {
		if h(w, err) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
