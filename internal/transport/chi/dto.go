package chi

import (
	"github.com/kailas-cloud/geosuggest/internal/domain/geo"
	"github.com/kailas-cloud/geosuggest/internal/domain/suggestion"
)

// ErrorCode is a machine-readable API error code.
type ErrorCode string

// API error codes.
const (
	ErrorCodeBadRequest       ErrorCode = "bad_request"
	ErrorCodeUnauthorized     ErrorCode = "unauthorized"
	ErrorCodeValidationFailed ErrorCode = "validation_failed"
	ErrorCodeNotFound         ErrorCode = "not_found"
	ErrorCodeSessionLimit     ErrorCode = "session_limit"
	ErrorCodeInternalError    ErrorCode = "internal_error"
)

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// SuggestLine is one NDJSON line of a suggestion stream, one per callback.
type SuggestLine struct {
	Session string          `json:"session"`
	Query   string          `json:"query"`
	Final   bool            `json:"final"`
	Results []SuggestResult `json:"results"`
}

// SuggestResult is the wire form of a suggestion.
type SuggestResult struct {
	Key         string     `json:"key"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	PageID      int64      `json:"page_id,omitempty"`
	Filter      string     `json:"filter"`
	Origin      string     `json:"origin"`
	Sort        string     `json:"sort"`
	Region      geo.Region `json:"region"`
	// DistanceMeters is the great-circle distance from the caller to the region center.
	DistanceMeters float64 `json:"distance_m"`
	// ContainsCaller is set when the caller stands inside the region.
	ContainsCaller bool `json:"contains_caller,omitempty"`
}

func suggestLine(session, query string, at geo.Coordinate, final bool, results []suggestion.Result) SuggestLine {
	out := make([]SuggestResult, len(results))
	for i, r := range results {
		out[i] = SuggestResult{
			Key:            r.Key,
			Title:          r.Description,
			Description:    r.Record.Description,
			PageID:         r.Record.PageID,
			Filter:         string(r.Classification.Filter),
			Origin:         string(r.Classification.Origin),
			Sort:           string(r.Classification.SortStyle),
			Region:         r.Region,
			DistanceMeters: at.DistanceTo(r.Region.Center),
			ContainsCaller: r.Region.Contains(at),
		}
	}
	return SuggestLine{Session: session, Query: query, Final: final, Results: out}
}
