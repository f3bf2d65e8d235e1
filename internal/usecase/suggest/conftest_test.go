package suggest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/geosuggest/internal/domain"
	"github.com/kailas-cloud/geosuggest/internal/domain/geo"
	"github.com/kailas-cloud/geosuggest/internal/domain/suggestion"
)

var (
	testSite  = suggestion.MustParseSite("https://en.wikipedia.org")
	userCoord = geo.Coordinate{Latitude: 52.52, Longitude: 13.405}
)

// --- Fake ports ---

type fakeTerm struct {
	mu        sync.Mutex
	responses map[string]domain.TermResponse
	errs      map[string]error
	gates     map[string]chan struct{}
	calls     []domain.TermRequest
	started   chan string
}

func newFakeTerm() *fakeTerm {
	return &fakeTerm{
		responses: make(map[string]domain.TermResponse),
		errs:      make(map[string]error),
		gates:     make(map[string]chan struct{}),
		started:   make(chan string, 16),
	}
}

// hold blocks the lookup of term until the returned release func is called.
func (f *fakeTerm) hold(term string) (release func()) {
	gate := make(chan struct{})
	f.mu.Lock()
	f.gates[term] = gate
	f.mu.Unlock()
	return func() { close(gate) }
}

func (f *fakeTerm) SearchTerm(ctx context.Context, req domain.TermRequest) (domain.TermResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	gate := f.gates[req.Term]
	resp, err := f.responses[req.Term], f.errs[req.Term]
	f.mu.Unlock()

	f.started <- req.Term
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return domain.TermResponse{}, ctx.Err()
		}
	}
	return resp, err
}

func (f *fakeTerm) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type fakeLocation struct {
	mu        sync.Mutex
	responses map[string]domain.LocationResponse
	errs      map[string]error
	gates     map[string]chan struct{}
	calls     []domain.LocationRequest
	started   chan string
}

func newFakeLocation() *fakeLocation {
	return &fakeLocation{
		responses: make(map[string]domain.LocationResponse),
		errs:      make(map[string]error),
		gates:     make(map[string]chan struct{}),
		started:   make(chan string, 16),
	}
}

func (f *fakeLocation) hold(term string) (release func()) {
	gate := make(chan struct{})
	f.mu.Lock()
	f.gates[term] = gate
	f.mu.Unlock()
	return func() { close(gate) }
}

func (f *fakeLocation) SearchLocation(
	ctx context.Context, req domain.LocationRequest,
) (domain.LocationResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	gate := f.gates[req.Term]
	resp, err := f.responses[req.Term], f.errs[req.Term]
	f.mu.Unlock()

	f.started <- req.Term
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return domain.LocationResponse{}, ctx.Err()
		}
	}
	return resp, err
}

func (f *fakeLocation) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// --- Callback recorder ---

type delivery struct {
	results []suggestion.Result
	final   bool
}

type recorder struct {
	mu    sync.Mutex
	calls []delivery
	ch    chan delivery
}

func newRecorder() *recorder {
	return &recorder{ch: make(chan delivery, 8)}
}

func (r *recorder) callback() Callback {
	return func(results []suggestion.Result, final bool) {
		r.mu.Lock()
		r.calls = append(r.calls, delivery{results: results, final: final})
		r.mu.Unlock()
		r.ch <- delivery{results: results, final: final}
	}
}

func (r *recorder) snapshot() []delivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]delivery, len(r.calls))
	copy(out, r.calls)
	return out
}

func (r *recorder) next(t *testing.T) delivery {
	t.Helper()
	select {
	case d := <-r.ch:
		return d
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for callback")
		return delivery{}
	}
}

// --- Builders ---

func newTestService(term *fakeTerm, loc *fakeLocation) *Service {
	return New(term, loc, testSite, zap.NewNop())
}

func place(title string, lat, lon float64) suggestion.Record {
	dim := 1_000.0
	return suggestion.Record{
		Title:        title,
		DisplayTitle: title,
		Coordinate:   &geo.Coordinate{Latitude: lat, Longitude: lon},
		Dimension:    &dim,
	}
}

func places(prefix string, n int) []suggestion.Record {
	out := make([]suggestion.Record, n)
	for i := range out {
		out[i] = place(fmt.Sprintf("%s %d", prefix, i), float64(i), float64(i))
	}
	return out
}

func keysOf(results []suggestion.Result) []string {
	keys := make([]string, len(results))
	for i, r := range results {
		keys[i] = r.Key
	}
	return keys
}

func waitStarted(t *testing.T, ch <-chan string, want string) {
	t.Helper()
	select {
	case got := <-ch:
		if got != want {
			t.Fatalf("expected lookup for %q, got %q", want, got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for lookup of %q", want)
	}
}
