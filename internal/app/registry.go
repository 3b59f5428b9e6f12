package app

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/nshein/duet/internal/core"
	"github.com/nshein/duet/internal/domain"
)

// Connection is one live transport session and the display snapshot it
// announced. The registry owns the record; every other component refers to
// it by ID only.
type Connection struct {
	ID        core.ConnID
	Profile   domain.Profile
	CreatedAt time.Time

	signal core.SignalConnection
}

func (c *Connection) Signal() core.SignalConnection { return c.signal }

// Registry tracks every open connection and the identity it belongs to.
// An identity may hold several connections at once (multi-tab).
type Registry struct {
	mu     sync.RWMutex
	conns  map[core.ConnID]*Connection
	byUser map[domain.UserID]map[core.ConnID]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		conns:  make(map[core.ConnID]*Connection),
		byUser: make(map[domain.UserID]map[core.ConnID]struct{}),
	}
}

// Register creates (or, for the same id, overwrites) a connection record and
// indexes it under its identity. Re-registration refreshes the profile
// snapshot without duplicating the identity index entry.
func (r *Registry) Register(id core.ConnID, profile domain.Profile, sig core.SignalConnection) *Connection {
	r.mu.Lock()
	defer r.mu.Unlock()

	if prev, ok := r.conns[id]; ok && prev.Profile.UserID != profile.UserID {
		r.dropIndex(prev.Profile.UserID, id)
	}

	conn := &Connection{ID: id, Profile: profile, CreatedAt: time.Now(), signal: sig}
	r.conns[id] = conn

	set, ok := r.byUser[profile.UserID]
	if !ok {
		set = make(map[core.ConnID]struct{})
		r.byUser[profile.UserID] = set
	}
	set[id] = struct{}{}

	log.Info().Str("module", "app.registry").Str("conn", string(id)).Str("user", string(profile.UserID)).Msg("registered connection")
	return conn
}

// Unregister removes the connection and its identity index entry. It returns
// the owning identity so the disconnect supervisor can react. Unknown ids
// are a no-op.
func (r *Registry) Unregister(id core.ConnID) (domain.UserID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	conn, ok := r.conns[id]
	if !ok {
		return "", false
	}
	delete(r.conns, id)
	r.dropIndex(conn.Profile.UserID, id)

	log.Info().Str("module", "app.registry").Str("conn", string(id)).Str("user", string(conn.Profile.UserID)).Msg("unregistered connection")
	return conn.Profile.UserID, true
}

func (r *Registry) dropIndex(uid domain.UserID, id core.ConnID) {
	if set, ok := r.byUser[uid]; ok {
		delete(set, id)
		if len(set) == 0 {
			delete(r.byUser, uid)
		}
	}
}

func (r *Registry) Lookup(id core.ConnID) (*Connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[id]
	return conn, ok
}

// ConnectionsOf returns every open connection id of an identity; empty if
// the identity has none.
func (r *Registry) ConnectionsOf(uid domain.UserID) []core.ConnID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.ConnID, 0, len(r.byUser[uid]))
	for id := range r.byUser[uid] {
		out = append(out, id)
	}
	return out
}

func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// Snapshot is the full presence list broadcast to every client.
func (r *Registry) Snapshot() []core.StatusEntry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]core.StatusEntry, 0, len(r.conns))
	for id, conn := range r.conns {
		out = append(out, core.StatusEntry{SocketID: id, Profile: conn.Profile})
	}
	return out
}

// All returns the live connection records for fan-out.
func (r *Registry) All() []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Connection, 0, len(r.conns))
	for _, conn := range r.conns {
		out = append(out, conn)
	}
	return out
}
