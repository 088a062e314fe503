package jobs

import "sync"

// Expansion tracks which jobs are expanded. Jobs start collapsed. A nil
// *Expansion reports every job as collapsed.
type Expansion struct {
	mu  sync.RWMutex
	ids map[string]struct{}
}

// NewExpansion returns an empty set.
func NewExpansion() *Expansion {
	return &Expansion{ids: make(map[string]struct{})}
}

// Toggle flips id and returns its new state.
func (e *Expansion) Toggle(id string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.ids[id]; ok {
		delete(e.ids, id)
		return false
	}
	e.ids[id] = struct{}{}
	return true
}

// IsExpanded reports whether id is expanded.
func (e *Expansion) IsExpanded(id string) bool {
	if e == nil {
		return false
	}
	e.mu.RLock()
	defer e.mu.RUnlock()

	_, ok := e.ids[id]
	return ok
}

// Reset collapses everything.
func (e *Expansion) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ids = make(map[string]struct{})
}
