// Package state holds the observable application state. A single Surface
// instance is shared between the service layer (writer) and any number of
// readers; readers get immutable snapshots and can subscribe to changes.
package state

import (
	"sync"

	"github.com/sakif/playmate/internal/model"
)

// Snapshot is one consistent view of the application state. Slices and
// pointers inside a Snapshot are never mutated after publication, so a
// Snapshot is safe to read without synchronization.
type Snapshot struct {
	Profile        *model.Profile          `json:"profile,omitempty"`
	Games          []model.Game            `json:"games,omitempty"`
	Stats          *model.StatsSnapshot    `json:"stats,omitempty"`
	Matches        []model.MatchRecord     `json:"matches,omitempty"`
	Warnings       []model.PlaytimeWarning `json:"warnings,omitempty"`
	RecentSearches []string                `json:"recentSearches,omitempty"`
	CurrentUser    *model.UserAccount      `json:"currentUser,omitempty"`
	ServerStatus   model.ServerStatus      `json:"serverStatus"`
	Loading        bool                    `json:"loading"`
	Err            string                  `json:"error,omitempty"`
}

// Surface is the shared state container. All writes go through Update,
// which publishes a fresh snapshot and notifies subscribers.
type Surface struct {
	mu   sync.RWMutex
	snap Snapshot

	subMu sync.Mutex
	subs  map[chan Snapshot]struct{}
}

func NewSurface() *Surface {
	return &Surface{
		subs: make(map[chan Snapshot]struct{}),
	}
}

// Snapshot returns the current state. The returned value shares its slices
// with the published snapshot; callers must not mutate them.
func (s *Surface) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Update applies fn to a copy of the current snapshot and publishes the
// result. fn must replace slices it wants to change rather than appending
// in place, since prior snapshots may still be read concurrently.
func (s *Surface) Update(fn func(*Snapshot)) {
	s.mu.Lock()
	next := s.snap
	fn(&next)
	s.snap = next
	s.mu.Unlock()

	s.notify(next)
}

// Reset clears everything except ServerStatus. Used on sign-out.
func (s *Surface) Reset() {
	s.Update(func(snap *Snapshot) {
		status := snap.ServerStatus
		*snap = Snapshot{ServerStatus: status}
	})
}

// Subscribe returns a channel that receives every published snapshot and a
// cancel function that must be called to release the subscription. The
// channel is buffered by one and slow readers only ever miss intermediate
// states, never the latest one: a pending stale snapshot is dropped and
// replaced when a newer one arrives.
func (s *Surface) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	s.subMu.Lock()
	s.subs[ch] = struct{}{}
	s.subMu.Unlock()

	cancel := func() {
		s.subMu.Lock()
		if _, ok := s.subs[ch]; ok {
			delete(s.subs, ch)
			close(ch)
		}
		s.subMu.Unlock()
	}
	return ch, cancel
}

func (s *Surface) notify(snap Snapshot) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for ch := range s.subs {
		select {
		case ch <- snap:
		default:
			// Drop the stale pending value and replace it.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- snap:
			default:
			}
		}
	}
}
