package suggestion

// FilterKind is the caller's place filter, carried through unchanged.
type FilterKind string

// Filter kinds.
const (
	FilterTop   FilterKind = "top"
	FilterSaved FilterKind = "saved"
)

// IsValid checks if the filter is one of the supported values.
func (f FilterKind) IsValid() bool {
	return f == FilterTop || f == FilterSaved
}

// Origin tells where a suggestion came from. Typed queries are the only origin.
type Origin string

// OriginUser marks suggestions produced from user input.
const OriginUser Origin = "user"

// SortStyle is the ordering requested from a location search.
type SortStyle string

// Sort styles.
const (
	SortRelevance SortStyle = "relevance"
	// SortLinks orders by the number of incoming links.
	SortLinks SortStyle = "links"
)

// IsValid checks if the sort style is one of the supported values.
func (s SortStyle) IsValid() bool {
	return s == SortRelevance || s == SortLinks
}
