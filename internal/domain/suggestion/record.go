package suggestion

import "github.com/kailas-cloud/geosuggest/internal/domain/geo"

// Record is a raw article hit returned by a remote search.
type Record struct {
	PageID       int64           `json:"page_id,omitempty"`
	Title        string          `json:"title"`
	DisplayTitle string          `json:"display_title,omitempty"`
	Description  string          `json:"description,omitempty"`
	Coordinate   *geo.Coordinate `json:"coordinate,omitempty"`
	// Dimension is the approximate size of the subject in meters.
	Dimension *float64 `json:"dimension,omitempty"`
}

// Label returns the display title, falling back to the canonical title.
func (r *Record) Label() string {
	if r.DisplayTitle != "" {
		return r.DisplayTitle
	}
	return r.Title
}

// Locatable reports whether the record carries both a position and a dimension.
func (r *Record) Locatable() bool {
	return r.Coordinate != nil && r.Dimension != nil
}
