package chi

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kailas-cloud/geosuggest/internal/domain"
	"github.com/kailas-cloud/geosuggest/internal/domain/geo"
	"github.com/kailas-cloud/geosuggest/internal/domain/suggestion"
	healthuc "github.com/kailas-cloud/geosuggest/internal/usecase/health"
	sessionuc "github.com/kailas-cloud/geosuggest/internal/usecase/session"
	"github.com/kailas-cloud/geosuggest/internal/usecase/suggest"
)

var testSite = suggestion.MustParseSite("https://en.wikipedia.org")

// fakeWiki serves both search ports and the health check from canned data.
type fakeWiki struct {
	mu        sync.Mutex
	term      map[string][]suggestion.Record
	location  map[string][]suggestion.Record
	healthErr error
	termCalls int
	locCalls  int
}

func newFakeWiki() *fakeWiki {
	return &fakeWiki{
		term:     make(map[string][]suggestion.Record),
		location: make(map[string][]suggestion.Record),
	}
}

func (f *fakeWiki) SearchTerm(_ context.Context, req domain.TermRequest) (domain.TermResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.termCalls++
	return domain.TermResponse{Records: f.term[req.Term]}, nil
}

func (f *fakeWiki) SearchLocation(_ context.Context, req domain.LocationRequest) (domain.LocationResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.locCalls++
	return domain.LocationResponse{Records: f.location[req.Term]}, nil
}

func (f *fakeWiki) HealthCheck(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.healthErr
}

func (f *fakeWiki) calls() (term, location int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.termCalls, f.locCalls
}

func place(title string, lat, lon float64) suggestion.Record {
	dim := 1_000.0
	return suggestion.Record{
		Title:      title,
		Coordinate: &geo.Coordinate{Latitude: lat, Longitude: lon},
		Dimension:  &dim,
	}
}

type testEnv struct {
	wiki     *fakeWiki
	sessions *sessionuc.Registry
	srv      *httptest.Server
}

func newTestEnv(t *testing.T, cfg sessionuc.Config, apiKeys ...string) *testEnv {
	t.Helper()
	wiki := newFakeWiki()
	sessions := sessionuc.NewRegistry(func() *suggest.Service {
		return suggest.New(wiki, wiki, testSite, zap.NewNop())
	}, cfg, zap.NewNop())
	server := NewServer(sessions, healthuc.New(nil, wiki), zap.NewNop())
	srv := httptest.NewServer(NewRouter(server, apiKeys, zap.NewNop()))
	t.Cleanup(srv.Close)
	return &testEnv{wiki: wiki, sessions: sessions, srv: srv}
}

func (e *testEnv) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(e.srv.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func readLines(t *testing.T, resp *http.Response) []SuggestLine {
	t.Helper()
	var lines []SuggestLine
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		var line SuggestLine
		require.NoError(t, json.Unmarshal(sc.Bytes(), &line))
		lines = append(lines, line)
	}
	require.NoError(t, sc.Err())
	return lines
}

func decodeError(t *testing.T, resp *http.Response) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&e))
	return e
}

func decodeJSON(resp *http.Response, v any) error {
	return json.NewDecoder(resp.Body).Decode(v)
}
