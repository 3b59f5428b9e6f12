package app

import "github.com/nshein/duet/internal/core"

// exclusionStore records, per connection, the peers it asked to avoid in
// future matches. Entries are one-directional by origin but checked
// symmetrically when pairing. Not safe for concurrent use; the coordinator
// serializes access.
type exclusionStore struct {
	sets map[core.ConnID]map[core.ConnID]struct{}
}

func newExclusionStore() *exclusionStore {
	return &exclusionStore{sets: make(map[core.ConnID]map[core.ConnID]struct{})}
}

func (s *exclusionStore) Add(owner, target core.ConnID) {
	set, ok := s.sets[owner]
	if !ok {
		set = make(map[core.ConnID]struct{})
		s.sets[owner] = set
	}
	set[target] = struct{}{}
}

func (s *exclusionStore) Excludes(owner, target core.ConnID) bool {
	_, ok := s.sets[owner][target]
	return ok
}

// Blocked reports whether a and b may not be paired: either side excluding
// the other blocks the pairing.
func (s *exclusionStore) Blocked(a, b core.ConnID) bool {
	return s.Excludes(a, b) || s.Excludes(b, a)
}

// Purge drops the connection's own set and removes it from every other
// connection's set (disconnect cleanup).
func (s *exclusionStore) Purge(id core.ConnID) {
	delete(s.sets, id)
	for owner, set := range s.sets {
		delete(set, id)
		if len(set) == 0 {
			delete(s.sets, owner)
		}
	}
}
