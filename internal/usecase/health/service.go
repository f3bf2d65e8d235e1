package health

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates the cache failed while search still works.
	Degraded Status = "degraded"
	// Unhealthy indicates the search provider is unreachable.
	Unhealthy Status = "error"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Component names used as Report.Checks keys.
const (
	ComponentCache = "cache"
	ComponentWiki  = "wiki"
)

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	cache  CachePinger
	search SearchChecker
}

// New creates a Service. cache can be nil when caching is disabled.
func New(cache CachePinger, search SearchChecker) *Service {
	return &Service{cache: cache, search: search}
}

// Check runs health checks against all components concurrently.
func (s *Service) Check(ctx context.Context) Report {
	var mu sync.Mutex
	checks := make(map[string]CheckResult)
	record := func(name string, err error) {
		res := CheckOK
		if err != nil {
			res = CheckError
		}
		mu.Lock()
		checks[name] = res
		mu.Unlock()
	}

	var g errgroup.Group
	g.Go(func() error {
		record(ComponentWiki, s.search.HealthCheck(ctx))
		return nil
	})
	if s.cache != nil {
		g.Go(func() error {
			record(ComponentCache, s.cache.Ping(ctx))
			return nil
		})
	}
	_ = g.Wait()

	status := Healthy
	switch {
	case checks[ComponentWiki] == CheckError:
		status = Unhealthy
	case checks[ComponentCache] == CheckError:
		status = Degraded
	}

	return Report{Status: status, Checks: checks}
}
