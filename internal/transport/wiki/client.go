package wiki

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/geosuggest/internal/domain"
	"github.com/kailas-cloud/geosuggest/internal/domain/suggestion"
	"github.com/kailas-cloud/geosuggest/internal/metrics"
)

// maxResponseBytes caps how much of an API response is read.
const maxResponseBytes = 4 << 20

// Compile-time checks: Client serves both remote search ports.
var (
	_ domain.TermSearcher     = (*Client)(nil)
	_ domain.LocationSearcher = (*Client)(nil)
	_ domain.HealthChecker    = (*Client)(nil)
)

// Config holds the MediaWiki client settings.
type Config struct {
	// Endpoint overrides the Action API URL derived from the request site (tests, mirrors).
	Endpoint   string
	UserAgent  string
	Timeout    time.Duration
	HealthSite suggestion.Site
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// Client is a search provider backed by the MediaWiki Action API.
type Client struct {
	http       *http.Client
	endpoint   string
	userAgent  string
	healthSite suggestion.Site
	logger     *zap.Logger
}

// NewClient creates a MediaWiki API client.
func NewClient(cfg *Config) *Client {
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		http:       hc,
		endpoint:   cfg.Endpoint,
		userAgent:  cfg.UserAgent,
		healthSite: cfg.HealthSite,
		logger:     logger,
	}
}

// SearchTerm implements domain.TermSearcher with a prefix search. When the prefix
// search finds nothing it retries as a full-text search to pick up a spelling suggestion.
func (c *Client) SearchTerm(ctx context.Context, req domain.TermRequest) (domain.TermResponse, error) {
	params := pageParams(req.Limit)
	params.Set("generator", "prefixsearch")
	params.Set("gpssearch", req.Term)
	params.Set("gpslimit", strconv.Itoa(req.Limit))
	params.Set("gpsnamespace", "0")

	resp, err := c.query(ctx, "term", req.Site, params)
	if err != nil {
		return domain.TermResponse{}, err
	}
	if recs := resp.records(); len(recs) > 0 {
		return domain.TermResponse{Records: recs}, nil
	}

	params = pageParams(req.Limit)
	params.Set("generator", "search")
	params.Set("gsrsearch", req.Term)
	params.Set("gsrlimit", strconv.Itoa(req.Limit))
	params.Set("gsrnamespace", "0")
	params.Set("gsrwhat", "text")
	params.Set("gsrinfo", "suggestion")

	resp, err = c.query(ctx, "term", req.Site, params)
	if err != nil {
		return domain.TermResponse{}, err
	}
	return domain.TermResponse{Records: resp.records(), Suggestion: resp.suggestion()}, nil
}

// SearchLocation implements domain.LocationSearcher via CirrusSearch nearcoord.
func (c *Client) SearchLocation(
	ctx context.Context, req domain.LocationRequest,
) (domain.LocationResponse, error) {
	if err := req.Area.Center.Validate(); err != nil {
		return domain.LocationResponse{}, fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)
	}

	params := pageParams(req.Limit)
	params.Set("generator", "search")
	params.Set("gsrsearch", nearcoordQuery(req))
	params.Set("gsrlimit", strconv.Itoa(req.Limit))
	params.Set("gsrnamespace", "0")
	params.Set("gsrsort", sortParam(req.SortStyle))

	resp, err := c.query(ctx, "location", req.Site, params)
	if err != nil {
		return domain.LocationResponse{}, err
	}
	return domain.LocationResponse{Records: resp.records()}, nil
}

// HealthCheck verifies API availability via a siteinfo request.
func (c *Client) HealthCheck(ctx context.Context) error {
	params := url.Values{}
	params.Set("meta", "siteinfo")
	params.Set("siprop", "general")
	if _, err := c.do(ctx, c.healthSite, params); err != nil {
		return fmt.Errorf("siteinfo: %w", err)
	}
	return nil
}

// pageParams are the page properties shared by every lookup.
func pageParams(limit int) url.Values {
	v := url.Values{}
	v.Set("prop", "coordinates|description|pageprops")
	v.Set("coprop", "type|dim|globe")
	v.Set("colimit", strconv.Itoa(max(limit, 1)))
	v.Set("ppprop", "displaytitle")
	v.Set("redirects", "1")
	return v
}

func nearcoordQuery(req domain.LocationRequest) string {
	km := req.Area.RadiusMeters / 1000
	q := fmt.Sprintf("nearcoord:%.0fkm,%f,%f", km, req.Area.Center.Latitude, req.Area.Center.Longitude)
	if req.Term != "" {
		q += " " + req.Term
	}
	return q
}

func sortParam(s suggestion.SortStyle) string {
	if s == suggestion.SortLinks {
		return "incoming_links_desc"
	}
	return "relevance"
}

// query runs an instrumented action=query request.
func (c *Client) query(
	ctx context.Context, source string, site suggestion.Site, params url.Values,
) (*apiResponse, error) {
	start := time.Now()
	resp, err := c.do(ctx, site, params)
	duration := time.Since(start)

	if err != nil {
		metrics.RemoteSearchRequestsTotal.WithLabelValues(source, "error").Inc()
		metrics.RemoteSearchErrorsTotal.WithLabelValues(source, errorType(ctx, err)).Inc()
		c.logger.Debug("MediaWiki request failed",
			zap.String("source", source),
			zap.Duration("duration", duration),
			zap.Error(err),
		)
		return nil, err
	}

	metrics.RemoteSearchRequestsTotal.WithLabelValues(source, "success").Inc()
	metrics.RemoteSearchDuration.WithLabelValues(source).Observe(duration.Seconds())
	return resp, nil
}

func (c *Client) do(ctx context.Context, site suggestion.Site, params url.Values) (*apiResponse, error) {
	endpoint := c.endpoint
	if endpoint == "" {
		endpoint = site.APIEndpoint()
	}

	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("formatversion", "2")

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		httpReq.Header.Set("User-Agent", c.userAgent)
	}

	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("mediawiki request failed: %w: %w", domain.ErrUpstream, err)
	}
	defer func() { _ = httpResp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read mediawiki response: %w: %w", domain.ErrUpstream, err)
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode > 299 {
		return nil, fmt.Errorf("mediawiki API status %d: %w", httpResp.StatusCode, domain.ErrUpstream)
	}

	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode mediawiki response: %w: %w", domain.ErrUpstream, err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("mediawiki API error %s: %s: %w",
			parsed.Error.Code, parsed.Error.Info, domain.ErrUpstream)
	}
	return &parsed, nil
}

func errorType(ctx context.Context, err error) string {
	if ctx.Err() != nil {
		return "canceled"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	return "api_error"
}
