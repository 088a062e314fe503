package state

import "sync"

// Registry maps user ids to their state containers.
type Registry[T any] struct {
	mu      sync.Mutex
	entries map[string]*T
	create  func() *T
}

// NewRegistry creates containers with create on first use.
func NewRegistry[T any](create func() *T) *Registry[T] {
	return &Registry[T]{entries: make(map[string]*T), create: create}
}

// NewProfileRegistry returns a registry of ProfileStates.
func NewProfileRegistry() *Registry[ProfileState] {
	return NewRegistry(NewProfileState)
}

// For returns userID's container, creating it if needed.
func (r *Registry[T]) For(userID string) *T {
	r.mu.Lock()
	defer r.mu.Unlock()

	if v, ok := r.entries[userID]; ok {
		return v
	}
	v := r.create()
	r.entries[userID] = v
	return v
}

// Peek returns userID's container without creating one.
func (r *Registry[T]) Peek(userID string) (*T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.entries[userID]
	return v, ok
}

// Drop forgets userID.
func (r *Registry[T]) Drop(userID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, userID)
}

// Len is the number of tracked users.
func (r *Registry[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
