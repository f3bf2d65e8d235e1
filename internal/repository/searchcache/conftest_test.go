package searchcache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kailas-cloud/geosuggest/internal/db"
	"github.com/kailas-cloud/geosuggest/internal/domain"
	"github.com/kailas-cloud/geosuggest/internal/domain/geo"
	"github.com/kailas-cloud/geosuggest/internal/domain/suggestion"
)

var testSite = suggestion.MustParseSite("https://en.wikipedia.org")

// mockKVStore is an in-memory store with optional failure hooks.
type mockKVStore struct {
	mu    sync.Mutex
	data  map[string][]byte
	ttls  map[string]time.Duration
	getFn func(ctx context.Context, key string) ([]byte, error)
	setFn func(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

func newMockKVStore() *mockKVStore {
	return &mockKVStore{data: make(map[string][]byte), ttls: make(map[string]time.Duration)}
}

func (m *mockKVStore) Get(ctx context.Context, key string) ([]byte, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	return v, nil
}

func (m *mockKVStore) SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value, ttl)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	m.ttls[key] = ttl
	return nil
}

func (m *mockKVStore) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data)
}

type mockTerm struct {
	mu    sync.Mutex
	resp  domain.TermResponse
	err   error
	calls int
	gate  chan struct{}
}

func (m *mockTerm) SearchTerm(ctx context.Context, _ domain.TermRequest) (domain.TermResponse, error) {
	m.mu.Lock()
	m.calls++
	gate := m.gate
	m.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return domain.TermResponse{}, ctx.Err()
		}
	}
	return m.resp, m.err
}

func (m *mockTerm) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type mockLocation struct {
	resp  domain.LocationResponse
	err   error
	calls int
}

func (m *mockLocation) SearchLocation(_ context.Context, _ domain.LocationRequest) (domain.LocationResponse, error) {
	m.calls++
	return m.resp, m.err
}

func newCacheTotal() *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_search_cache_total"}, []string{"source", "result"})
}

func paris() suggestion.Record {
	dim := 10_000.0
	return suggestion.Record{
		PageID:      1,
		Title:       "Paris",
		Description: "Capital of France",
		Coordinate:  &geo.Coordinate{Latitude: 48.8567, Longitude: 2.3508},
		Dimension:   &dim,
	}
}

func termReq(term string) domain.TermRequest {
	return domain.TermRequest{Term: term, Site: testSite, Limit: 24}
}

func newTestTermCache(t *testing.T, inner *mockTerm) (*TermCache, *mockKVStore, *prometheus.CounterVec) {
	t.Helper()
	ms := newMockKVStore()
	total := newCacheTotal()
	return NewTermCache(inner, ms, Options{TTL: time.Minute, CacheTotal: total}), ms, total
}
