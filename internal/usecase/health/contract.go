package health

import "context"

// CachePinger checks response cache availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}

// SearchChecker checks search provider availability.
type SearchChecker interface {
	HealthCheck(ctx context.Context) error
}
