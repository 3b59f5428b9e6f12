// Package app holds the coordination core: presence, matchmaking, friend
// calls, relay and disconnect supervision. All pairing state is owned by a
// single Coordinator instance so tests can build isolated ones.
package app

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog/log"

	"github.com/nshein/duet/internal/core"
	"github.com/nshein/duet/internal/domain"
)

// Timings are the deadline knobs; business code never hardcodes them.
type Timings struct {
	MatchConfirmTimeout time.Duration
	CallRingTimeout     time.Duration
}

// Coordinator serializes every mutation of the pool, pairing table,
// exclusion store and call table through one mutex. The transport adapters
// call into it from connection goroutines; timer callbacks re-enter through
// the same lock and re-validate generation tokens before acting.
type Coordinator struct {
	registry *Registry
	clock    clock.Clock
	timings  Timings
	metrics  *Metrics

	mu         sync.Mutex
	pool       *waitingPool
	pairs      *pairTable
	excl       *exclusionStore
	calls      map[core.ConnID]*callRequest
	attempting map[core.ConnID]struct{}
	genSeq     uint64
}

func NewCoordinator(reg *Registry, clk clock.Clock, t Timings, m *Metrics) *Coordinator {
	return &Coordinator{
		registry:   reg,
		clock:      clk,
		timings:    t,
		metrics:    m,
		pool:       newWaitingPool(),
		pairs:      newPairTable(),
		excl:       newExclusionStore(),
		calls:      make(map[core.ConnID]*callRequest),
		attempting: make(map[core.ConnID]struct{}),
	}
}

func (c *Coordinator) Registry() *Registry { return c.registry }

func (c *Coordinator) nextGen() uint64 {
	c.genSeq++
	return c.genSeq
}

// UserOnline registers (or refreshes) a connection and broadcasts presence.
func (c *Coordinator) UserOnline(id core.ConnID, profile domain.Profile, sig core.SignalConnection) {
	c.registry.Register(id, profile, sig)
	c.metrics.Online.Set(float64(c.registry.Count()))
	c.broadcastPresence()
}

// broadcastPresence pushes the aggregate count and the full status list to
// every connection. This is how clients learn of departures before any
// pairing-specific notice arrives.
func (c *Coordinator) broadcastPresence() {
	conns := c.registry.All()
	count := core.ActiveUserCount{Type: core.EvActiveUserCount, Count: len(conns)}
	list := core.FriendStatusUpdate{Type: core.EvFriendStatusUpdate, Users: c.registry.Snapshot()}
	for _, conn := range conns {
		c.sendConn(conn, count)
		c.sendConn(conn, list)
	}
}

func (c *Coordinator) send(id core.ConnID, v any) {
	conn, ok := c.registry.Lookup(id)
	if !ok {
		return
	}
	c.sendConn(conn, v)
}

func (c *Coordinator) sendConn(conn *Connection, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "app.coordinator").Msg("marshal outbound event")
		return
	}
	if err := conn.Signal().TrySend(core.Frame(b)); err != nil {
		// Slow or closing consumer; presence refreshes are re-sent anyway.
		log.Debug().Err(err).Str("module", "app.coordinator").Str("conn", string(conn.ID)).Msg("drop outbound frame")
	}
}

func (c *Coordinator) syncQueueGauge() {
	c.metrics.QueueDepth.Set(float64(c.pool.Len()))
}
