package domain

import (
	"context"

	"github.com/kailas-cloud/geosuggest/internal/domain/geo"
	"github.com/kailas-cloud/geosuggest/internal/domain/suggestion"
)

// TermSearcher is the text lookup contract shared between layers.
type TermSearcher interface {
	SearchTerm(ctx context.Context, req TermRequest) (TermResponse, error)
}

// LocationSearcher is the geographic lookup contract shared between layers.
type LocationSearcher interface {
	SearchLocation(ctx context.Context, req LocationRequest) (LocationResponse, error)
}

// HealthChecker verifies provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// TermRequest asks for articles matching a search term.
type TermRequest struct {
	Term  string
	Site  suggestion.Site
	Limit int
}

// TermResponse carries the hits of a term search and an optional spelling suggestion.
type TermResponse struct {
	Records    []suggestion.Record `json:"records"`
	Suggestion string              `json:"suggestion,omitempty"`
}

// LocationRequest asks for geotagged articles inside a circular area.
type LocationRequest struct {
	Site      suggestion.Site
	Area      geo.Circle
	Term      string
	SortStyle suggestion.SortStyle
	Limit     int
}

// LocationResponse carries the hits of a location search.
type LocationResponse struct {
	Records []suggestion.Record `json:"records"`
}
