package chi

import (
	"fmt"
	"net/http"

	"github.com/oapi-codegen/runtime"

	"github.com/kailas-cloud/geosuggest/internal/domain/geo"
	"github.com/kailas-cloud/geosuggest/internal/domain/suggestion"
)

// SuggestParams are the query parameters of GET /v1/suggest.
type SuggestParams struct {
	Session *string
	Q       *string
	Lat     float64
	Lon     float64
	Filter  *string
}

func bindSuggestParams(r *http.Request) (SuggestParams, error) {
	var p SuggestParams
	q := r.URL.Query()

	if err := runtime.BindQueryParameter("form", true, false, "session", q, &p.Session); err != nil {
		return p, fmt.Errorf("invalid format for parameter session: %w", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "q", q, &p.Q); err != nil {
		return p, fmt.Errorf("invalid format for parameter q: %w", err)
	}
	if err := runtime.BindQueryParameter("form", true, true, "lat", q, &p.Lat); err != nil {
		return p, fmt.Errorf("invalid format for parameter lat: %w", err)
	}
	if err := runtime.BindQueryParameter("form", true, true, "lon", q, &p.Lon); err != nil {
		return p, fmt.Errorf("invalid format for parameter lon: %w", err)
	}
	if err := runtime.BindQueryParameter("form", true, false, "filter", q, &p.Filter); err != nil {
		return p, fmt.Errorf("invalid format for parameter filter: %w", err)
	}
	return p, nil
}

func (p SuggestParams) query() string {
	if p.Q == nil {
		return ""
	}
	return *p.Q
}

func (p SuggestParams) session() string {
	if p.Session == nil {
		return ""
	}
	return *p.Session
}

func (p SuggestParams) coordinate() (geo.Coordinate, error) {
	c := geo.Coordinate{Latitude: p.Lat, Longitude: p.Lon}
	if err := c.Validate(); err != nil {
		return geo.Coordinate{}, err
	}
	return c, nil
}

func (p SuggestParams) filter() (suggestion.FilterKind, error) {
	if p.Filter == nil || *p.Filter == "" {
		return suggestion.FilterTop, nil
	}
	f := suggestion.FilterKind(*p.Filter)
	if !f.IsValid() {
		return "", fmt.Errorf("filter must be %q or %q, got %q", suggestion.FilterTop, suggestion.FilterSaved, *p.Filter)
	}
	return f, nil
}
