package suggestion

import "strings"

// Query is a single user submission.
type Query struct {
	raw  string
	text string
}

// NewQuery normalizes raw by trimming surrounding whitespace and newlines.
func NewQuery(raw string) Query {
	return Query{raw: raw, text: strings.TrimSpace(raw)}
}

// Raw returns the text exactly as submitted.
func (q Query) Raw() string { return q.raw }

// Text returns the normalized text.
func (q Query) Text() string { return q.text }

// IsEmpty reports whether nothing is left after normalization.
func (q Query) IsEmpty() bool { return q.text == "" }
