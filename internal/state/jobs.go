package state

import (
	"slices"
	"sync"
	"time"

	"github.com/Activ8Auto/ProAutoFill/internal/domain"
)

// JobsSnapshot is the latest applied poll result for one user.
type JobsSnapshot struct {
	Jobs       []domain.Job
	Generation uint64
	UpdatedAt  time.Time
}

// JobsState caches polled jobs per user. Only results with a newer
// generation than the stored one are applied.
type JobsState struct {
	mu      sync.RWMutex
	entries map[string]JobsSnapshot
}

// NewJobsState returns an empty cache.
func NewJobsState() *JobsState {
	return &JobsState{entries: make(map[string]JobsSnapshot)}
}

// Apply stores jobs for userID if generation is newer than what is held.
// It reports whether the result was applied.
func (s *JobsState) Apply(userID string, generation uint64, jobs []domain.Job, at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.entries[userID]; ok && generation <= cur.Generation {
		return false
	}
	s.entries[userID] = JobsSnapshot{Jobs: slices.Clone(jobs), Generation: generation, UpdatedAt: at}
	return true
}

// Get returns userID's cached jobs.
func (s *JobsState) Get(userID string) (JobsSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap, ok := s.entries[userID]
	if !ok {
		return JobsSnapshot{}, false
	}
	snap.Jobs = slices.Clone(snap.Jobs)
	return snap, true
}

// Drop forgets userID.
func (s *JobsState) Drop(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, userID)
}
