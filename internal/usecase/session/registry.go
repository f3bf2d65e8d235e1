package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/geosuggest/internal/domain"
	"github.com/kailas-cloud/geosuggest/internal/metrics"
	"github.com/kailas-cloud/geosuggest/internal/usecase/suggest"
)

// Defaults applied when Config fields are non-positive.
const (
	DefaultIdleTTL     = 5 * time.Minute
	DefaultMaxSessions = 10_000
)

// maxIDLength bounds client-supplied session IDs.
const maxIDLength = 64

// Factory builds the aggregator owned by a new session.
type Factory func() *suggest.Service

// Config holds the registry settings.
type Config struct {
	IdleTTL     time.Duration
	MaxSessions int
}

type entry struct {
	svc      *suggest.Service
	lastSeen time.Time
}

// Registry maps typing sessions to their aggregators so that staleness is scoped per client.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*entry
	factory  Factory
	idleTTL  time.Duration
	max      int
	now      func() time.Time
	logger   *zap.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(factory Factory, cfg Config, logger *zap.Logger) *Registry {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = DefaultIdleTTL
	}
	if cfg.MaxSessions <= 0 {
		cfg.MaxSessions = DefaultMaxSessions
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		sessions: make(map[string]*entry),
		factory:  factory,
		idleTTL:  cfg.IdleTTL,
		max:      cfg.MaxSessions,
		now:      time.Now,
		logger:   logger,
	}
}

// Acquire returns the aggregator of session id, opening the session if needed.
// An empty id opens a new session under a generated ID.
func (r *Registry) Acquire(id string) (string, *suggest.Service, error) {
	if len(id) > maxIDLength {
		return "", nil, fmt.Errorf("%w: session id longer than %d bytes", domain.ErrInvalidQuery, maxIDLength)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if id != "" {
		if e, ok := r.sessions[id]; ok {
			e.lastSeen = now
			return id, e.svc, nil
		}
	} else {
		id = uuid.NewString()
	}

	if len(r.sessions) >= r.max {
		r.sweepLocked(now)
		if len(r.sessions) >= r.max {
			return "", nil, domain.ErrSessionLimit
		}
	}

	e := &entry{svc: r.factory(), lastSeen: now}
	r.sessions[id] = e
	metrics.ActiveSessions.Set(float64(len(r.sessions)))
	r.logger.Debug("Session opened", zap.String("session", id))
	return id, e.svc, nil
}

// Close drops a session. It reports whether the session existed.
func (r *Registry) Close(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return false
	}
	delete(r.sessions, id)
	metrics.ActiveSessions.Set(float64(len(r.sessions)))
	return true
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep drops sessions idle for longer than the idle TTL and returns how many were dropped.
func (r *Registry) Sweep() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sweepLocked(r.now())
}

func (r *Registry) sweepLocked(now time.Time) int {
	n := 0
	for id, e := range r.sessions {
		if now.Sub(e.lastSeen) > r.idleTTL {
			delete(r.sessions, id)
			n++
		}
	}
	if n > 0 {
		metrics.ActiveSessions.Set(float64(len(r.sessions)))
		r.logger.Debug("Expired idle sessions", zap.Int("count", n), zap.Int("remaining", len(r.sessions)))
	}
	return n
}

// Run sweeps idle sessions every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = r.idleTTL / 2
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep()
		}
	}
}
