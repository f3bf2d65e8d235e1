package suggestion

import "github.com/kailas-cloud/geosuggest/internal/domain/geo"

// Classification is the caller-supplied labelling copied onto every result.
type Classification struct {
	Filter    FilterKind
	Origin    Origin
	SortStyle SortStyle
}

// Result is a deduplicated, caller-facing suggestion.
type Result struct {
	Key            string
	Classification Classification
	Region         geo.Region
	Description    string
	Record         Record
}
