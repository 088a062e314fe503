// Package state holds per-user client state: the automation profile list
// with its selection pointer, and the latest polled jobs. Readers get
// immutable snapshots; every mutation publishes a new one.
package state

import (
	"errors"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/Activ8Auto/ProAutoFill/internal/domain"
)

// ErrProfileNotFound is returned when selecting an unknown profile.
var ErrProfileNotFound = errors.New("profile not found")

// ProfileSnapshot is an immutable view of one user's profiles.
type ProfileSnapshot struct {
	profiles   []domain.AutomationProfile
	selectedID string
	version    uint64
}

// Profiles returns a copy of the profile list.
func (s *ProfileSnapshot) Profiles() []domain.AutomationProfile {
	return slices.Clone(s.profiles)
}

// SelectedID is the selected profile id, or "".
func (s *ProfileSnapshot) SelectedID() string { return s.selectedID }

// Version increases with every mutation.
func (s *ProfileSnapshot) Version() uint64 { return s.version }

// Len is the number of profiles.
func (s *ProfileSnapshot) Len() int { return len(s.profiles) }

// Find returns the profile with id.
func (s *ProfileSnapshot) Find(id string) (domain.AutomationProfile, bool) {
	for _, p := range s.profiles {
		if p.ID == id {
			return p, true
		}
	}
	return domain.AutomationProfile{}, false
}

// ProfileState is one user's profile container.
type ProfileState struct {
	mu      sync.Mutex // serializes writers
	current atomic.Pointer[ProfileSnapshot]
}

// NewProfileState starts empty at version zero.
func NewProfileState() *ProfileState {
	ps := &ProfileState{}
	ps.current.Store(&ProfileSnapshot{})
	return ps
}

// Snapshot returns the current snapshot.
func (ps *ProfileState) Snapshot() *ProfileSnapshot {
	return ps.current.Load()
}

func (ps *ProfileState) publish(mutate func(prev *ProfileSnapshot) (*ProfileSnapshot, error)) (*ProfileSnapshot, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	prev := ps.current.Load()
	next, err := mutate(prev)
	if err != nil {
		return prev, err
	}
	next.version = prev.version + 1
	ps.current.Store(next)
	return next, nil
}

// Replace swaps in a freshly fetched list. The selection survives if the
// selected profile is still present.
func (ps *ProfileState) Replace(profiles []domain.AutomationProfile) *ProfileSnapshot {
	snap, _ := ps.publish(func(prev *ProfileSnapshot) (*ProfileSnapshot, error) {
		next := &ProfileSnapshot{profiles: slices.Clone(profiles)}
		for _, p := range profiles {
			if p.ID == prev.selectedID {
				next.selectedID = prev.selectedID
				break
			}
		}
		return next, nil
	})
	return snap
}

// Add appends p.
func (ps *ProfileState) Add(p domain.AutomationProfile) *ProfileSnapshot {
	snap, _ := ps.publish(func(prev *ProfileSnapshot) (*ProfileSnapshot, error) {
		profiles := make([]domain.AutomationProfile, 0, len(prev.profiles)+1)
		profiles = append(profiles, prev.profiles...)
		profiles = append(profiles, p)
		return &ProfileSnapshot{profiles: profiles, selectedID: prev.selectedID}, nil
	})
	return snap
}

// Remove drops the profile with id and clears the selection if it pointed there.
// Put replaces the profile with p's id, or appends p if there is none.
func (ps *ProfileState) Put(p domain.AutomationProfile) *ProfileSnapshot {
	snap, _ := ps.publish(func(prev *ProfileSnapshot) (*ProfileSnapshot, error) {
		profiles := make([]domain.AutomationProfile, 0, len(prev.profiles)+1)
		replaced := false
		for _, cur := range prev.profiles {
			if cur.ID == p.ID {
				cur, replaced = p, true
			}
			profiles = append(profiles, cur)
		}
		if !replaced {
			profiles = append(profiles, p)
		}
		return &ProfileSnapshot{profiles: profiles, selectedID: prev.selectedID}, nil
	})
	return snap
}

// Remove drops profile id and clears the selection if it pointed there.
func (ps *ProfileState) Remove(id string) *ProfileSnapshot {
	snap, _ := ps.publish(func(prev *ProfileSnapshot) (*ProfileSnapshot, error) {
		next := &ProfileSnapshot{
			profiles: slices.DeleteFunc(slices.Clone(prev.profiles), func(p domain.AutomationProfile) bool {
				return p.ID == id
			}),
			selectedID: prev.selectedID,
		}
		if next.selectedID == id {
			next.selectedID = ""
		}
		return next, nil
	})
	return snap
}

// Select points the selection at id.
func (ps *ProfileState) Select(id string) (*ProfileSnapshot, error) {
	return ps.publish(func(prev *ProfileSnapshot) (*ProfileSnapshot, error) {
		if _, ok := prev.Find(id); !ok {
			return nil, ErrProfileNotFound
		}
		return &ProfileSnapshot{profiles: prev.profiles, selectedID: id}, nil
	})
}

// Selected returns the selected profile.
func (ps *ProfileState) Selected() (domain.AutomationProfile, bool) {
	snap := ps.Snapshot()
	if snap.selectedID == "" {
		return domain.AutomationProfile{}, false
	}
	return snap.Find(snap.selectedID)
}
