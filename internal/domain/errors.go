package domain

import "errors"

var (
	// ErrInvalidQuery signals a malformed suggestion request.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrUpstream signals a failure of a remote search provider.
	ErrUpstream = errors.New("upstream search error")
	// ErrSessionLimit signals that no more typing sessions can be opened.
	ErrSessionLimit = errors.New("session limit reached")
)
