package suggest

import "sync"

// Guard tracks which submission is current. Every submission bumps a generation
// counter; responses carry the generation they were issued under and are dropped
// once it is no longer current. Nothing in flight is ever aborted.
type Guard struct {
	mu   sync.Mutex
	gen  uint64
	text string
}

// Advance makes text the active query and returns its generation.
func (g *Guard) Advance(text string) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.gen++
	g.text = text
	return g.gen
}

// IsActive reports whether gen is still the latest submission.
func (g *Guard) IsActive(gen uint64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.gen == gen
}

// Active returns the normalized text of the latest submission.
func (g *Guard) Active() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.text
}

// Deliver runs fn only if gen is still active, holding the guard while fn runs
// so that no newer submission can slip in between the check and the delivery.
// fn must not call Advance.
func (g *Guard) Deliver(gen uint64, fn func()) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.gen != gen {
		return false
	}
	fn()
	return true
}
