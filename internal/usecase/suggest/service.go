package suggest

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/geosuggest/internal/domain"
	"github.com/kailas-cloud/geosuggest/internal/domain/geo"
	"github.com/kailas-cloud/geosuggest/internal/domain/suggestion"
	"github.com/kailas-cloud/geosuggest/internal/logger"
	"github.com/kailas-cloud/geosuggest/internal/metrics"
)

const (
	// LocationCascadeThreshold is the number of term-search results at or above
	// which the location search is skipped.
	LocationCascadeThreshold = 10
	// WorldRadiusMeters sizes the location search so that it covers the whole globe.
	WorldRadiusMeters = geo.EarthCircumferenceMeters
	// DefaultResultLimit is the per-lookup result limit.
	DefaultResultLimit = 24
)

// Callback receives suggestions. It is called at most twice per submission:
// first with the term-search results (final=false), then, when the location
// search ran and found something, with the merged set (final=true).
// Callbacks run while the Service's guard is held, the synchronous empty-query
// answer included, so a callback may only resubmit from another goroutine.
type Callback func(results []suggestion.Result, final bool)

// Service aggregates term and location lookups for one stream of typed queries.
type Service struct {
	term     domain.TermSearcher
	location domain.LocationSearcher
	site     suggestion.Site
	limit    int
	guard    Guard
	logger   *zap.Logger
}

// New creates an aggregator for site.
func New(
	term domain.TermSearcher, location domain.LocationSearcher,
	site suggestion.Site, log *zap.Logger,
) *Service {
	return &Service{
		term:     term,
		location: location,
		site:     site,
		limit:    DefaultResultLimit,
		logger:   log,
	}
}

// WithResultLimit sets the per-lookup result limit (ignored if n <= 0).
func (s *Service) WithResultLimit(n int) *Service {
	if n > 0 {
		s.limit = n
	}
	return s
}

// ActiveQuery returns the normalized text of the latest submission.
func (s *Service) ActiveQuery() string {
	return s.guard.Active()
}

// Submit makes raw the active query and looks it up in the background.
// Earlier submissions still in flight are never delivered afterwards.
// An empty query is answered synchronously with an empty, non-final result set
// and never reaches the network.
func (s *Service) Submit(
	ctx context.Context, raw string, at geo.Coordinate,
	filter suggestion.FilterKind, cb Callback,
) {
	q, gen, ok := s.begin(raw, cb)
	if !ok {
		return
	}
	go s.run(ctx, q, gen, at, filter, cb)
}

// SubmitWait is Submit that runs the lookup chain on the calling goroutine and
// returns once it settles, whether or not anything was delivered.
func (s *Service) SubmitWait(
	ctx context.Context, raw string, at geo.Coordinate,
	filter suggestion.FilterKind, cb Callback,
) {
	q, gen, ok := s.begin(raw, cb)
	if !ok {
		return
	}
	s.run(ctx, q, gen, at, filter, cb)
}

func (s *Service) begin(raw string, cb Callback) (suggestion.Query, uint64, bool) {
	q := suggestion.NewQuery(raw)
	gen := s.guard.Advance(q.Text())
	if q.IsEmpty() {
		s.deliver(gen, cb, []suggestion.Result{}, false)
		return q, gen, false
	}
	return q, gen, true
}

func (s *Service) run(
	ctx context.Context, q suggestion.Query, gen uint64,
	at geo.Coordinate, filter suggestion.FilterKind, cb Callback,
) {
	log := s.logger.With(
		zap.String("query", q.Text()),
		zap.String("raw", q.Raw()),
		zap.Uint64("generation", gen),
	)
	if id := logger.SessionID(ctx); id != "" {
		log = log.With(zap.String("session", id))
	}
	cls := suggestion.Classification{
		Filter:    filter,
		Origin:    suggestion.OriginUser,
		SortStyle: suggestion.SortLinks,
	}

	start := time.Now()
	termResp, err := s.term.SearchTerm(ctx, domain.TermRequest{
		Term:  q.Text(),
		Site:  s.site,
		Limit: s.limit,
	})
	if !s.guard.IsActive(gen) {
		s.discard(log, "term")
		return
	}
	if err != nil {
		log.Warn("Term search failed", zap.Duration("duration", time.Since(start)), zap.Error(err))
		termResp = domain.TermResponse{}
	}
	if termResp.Suggestion != "" {
		log.Debug("Term search suggestion", zap.String("suggestion", termResp.Suggestion))
	}

	partial, termDropped := dedupe(termResp.Records, s.site, cls)
	s.countMalformed(termDropped)
	if !s.deliver(gen, cb, partial, false) {
		s.discard(log, "term")
		return
	}
	if len(partial) >= LocationCascadeThreshold {
		return
	}

	metrics.LocationCascadesTotal.Inc()
	locResp, err := s.location.SearchLocation(ctx, domain.LocationRequest{
		Site:      s.site,
		Area:      geo.Circle{Center: at, RadiusMeters: WorldRadiusMeters},
		Term:      q.Text(),
		SortStyle: suggestion.SortLinks,
		Limit:     s.limit,
	})
	if !s.guard.IsActive(gen) {
		s.discard(log, "location")
		return
	}
	if err != nil {
		log.Warn("Location search failed", zap.Duration("duration", time.Since(start)), zap.Error(err))
		return
	}
	if len(locResp.Records) == 0 {
		return
	}

	combined := make([]suggestion.Record, 0, len(termResp.Records)+len(locResp.Records))
	combined = append(combined, termResp.Records...)
	combined = append(combined, locResp.Records...)

	merged, dropped := dedupe(combined, s.site, cls)
	s.countMalformed(dropped - termDropped)
	if !s.deliver(gen, cb, merged, true) {
		s.discard(log, "location")
		return
	}

	log.Debug("Suggestions settled",
		zap.Int("term_results", len(partial)),
		zap.Int("merged_results", len(merged)),
		zap.Duration("duration", time.Since(start)),
	)
}

func (s *Service) deliver(gen uint64, cb Callback, results []suggestion.Result, final bool) bool {
	ok := s.guard.Deliver(gen, func() { cb(results, final) })
	if ok {
		metrics.CallbacksTotal.WithLabelValues(strconv.FormatBool(final)).Inc()
	}
	return ok
}

func (s *Service) discard(log *zap.Logger, source string) {
	metrics.StaleResponsesTotal.WithLabelValues(source).Inc()
	log.Debug("Discarding stale response", zap.String("source", source))
}

func (s *Service) countMalformed(n int) {
	if n > 0 {
		metrics.MalformedRecordsTotal.Add(float64(n))
	}
}
