package app

import (
	"github.com/rs/zerolog/log"

	"github.com/nshein/duet/internal/core"
	"github.com/nshein/duet/internal/domain"
)

type dissolveReason string

const (
	reasonDecline    dissolveReason = "declined"
	reasonSkip       dissolveReason = "skipped"
	reasonTimeout    dissolveReason = "timeout"
	reasonLeave      dissolveReason = "left"
	reasonDisconnect dissolveReason = "peer-disconnected"
)

// JoinQueue appends the connection to the waiting pool and immediately
// attempts a pairing. Already-queued and already-paired connections are
// ignored.
func (c *Coordinator) JoinQueue(id core.ConnID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pairs.Paired(id) {
		return
	}
	if _, ok := c.registry.Lookup(id); !ok {
		return
	}
	if c.pool.Add(id) {
		c.syncQueueGauge()
		c.attemptLocked(id)
	}
}

// LeaveQueue removes the connection from the pool; if it holds a pairing,
// the pairing is dissolved and the peer requeued.
func (c *Coordinator) LeaveQueue(id core.ConnID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pool.Remove(id)
	c.syncQueueGauge()
	if p, ok := c.pairs.Get(id); ok {
		c.dissolveLocked(p, reasonLeave, id)
	}
}

// attemptLocked scans the pool in arrival order for the first compatible
// peer: not self, not paired, neither side excluding the other. The
// attempting marker guards against re-entrant attempts for the same
// connection triggered from another pairing's cleanup.
func (c *Coordinator) attemptLocked(id core.ConnID) {
	if !c.pool.Contains(id) || c.pairs.Paired(id) {
		return
	}
	if _, busy := c.attempting[id]; busy {
		return
	}
	c.attempting[id] = struct{}{}
	defer delete(c.attempting, id)

	self, ok := c.registry.Lookup(id)
	if !ok {
		c.pool.Remove(id)
		c.syncQueueGauge()
		return
	}

	for _, peerID := range c.pool.Members() {
		if peerID == id {
			continue
		}
		if c.pairs.Paired(id) {
			break
		}
		if c.pairs.Paired(peerID) {
			continue
		}
		if c.excl.Blocked(id, peerID) {
			continue
		}
		peer, ok := c.registry.Lookup(peerID)
		if !ok {
			c.pool.Remove(peerID)
			continue
		}
		c.proposeLocked(self, peer)
		return
	}
	// no compatible peer yet; stay queued
}

// proposeLocked moves both connections from the pool into a proposed
// pairing, notifies each side and arms the confirmation deadline.
func (c *Coordinator) proposeLocked(a, b *Connection) {
	c.pool.Remove(a.ID)
	c.pool.Remove(b.ID)
	c.syncQueueGauge()

	p := &Pairing{
		A: a.ID, B: b.ID,
		State:    StateProposed,
		accepted: make(map[core.ConnID]bool, 2),
		gen:      c.nextGen(),
	}
	c.pairs.Put(p)

	c.sendConn(a, core.MatchFound{Type: core.EvMatchFound, PartnerSocket: b.ID, PartnerData: b.Profile})
	c.sendConn(b, core.MatchFound{Type: core.EvMatchFound, PartnerSocket: a.ID, PartnerData: a.Profile})

	gen := p.gen
	aID, bID := a.ID, b.ID
	p.timer = c.clock.AfterFunc(c.timings.MatchConfirmTimeout, func() {
		c.onConfirmTimeout(aID, bID, gen)
	})

	c.metrics.PairingsProposed.Inc()
	log.Info().Str("module", "app.matchmaker").
		Str("a", string(a.ID)).Str("b", string(b.ID)).
		Msg("pairing proposed")
}

// onConfirmTimeout fires when a proposed pairing outlives its confirmation
// window. A stale timer (pairing already confirmed, dissolved or replaced)
// re-checks the generation token and backs off.
func (c *Coordinator) onConfirmTimeout(a, b core.ConnID, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.pairs.Get(a)
	if !ok || p.gen != gen || p.State != StateProposed || !p.Has(b) {
		return
	}

	msg := core.InfoEvent{Type: core.EvMatchTimeout, Message: "Match timed out (no accept)."}
	c.send(a, msg)
	c.send(b, msg)

	c.pairs.Delete(p)
	p.stopTimer()
	c.metrics.PairingsDissolved.WithLabelValues(string(reasonTimeout)).Inc()
	log.Info().Str("module", "app.matchmaker").Str("a", string(a)).Str("b", string(b)).Msg("pairing confirm timeout")

	c.requeueLocked(a)
	c.requeueLocked(b)
	c.attemptLocked(a)
	c.attemptLocked(b)
}

// Accept marks one side of a proposed pairing as accepted; when both sides
// have accepted, the pairing is confirmed. Accepting with no live proposed
// pairing is an expected race and is dropped.
func (c *Coordinator) Accept(id core.ConnID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.pairs.Get(id)
	if !ok || p.State != StateProposed {
		log.Debug().Str("module", "app.matchmaker").Str("conn", string(id)).Msg("accept without proposed pairing")
		return
	}
	partnerID, _ := p.Partner(id)

	self, selfOK := c.registry.Lookup(id)
	partner, partnerOK := c.registry.Lookup(partnerID)
	if !selfOK || !partnerOK {
		// Raced a disconnect; roll back whoever is still here.
		c.pairs.Delete(p)
		p.stopTimer()
		c.metrics.PairingsDissolved.WithLabelValues(string(reasonDisconnect)).Inc()
		c.requeueLocked(id)
		c.attemptLocked(id)
		return
	}

	p.markAccepted(id)
	c.sendConn(partner, core.UserEvent{Type: core.EvPartnerAccepted, User: self.Profile})

	if p.bothAccepted() {
		c.confirmLocked(p, self, partner)
	}
}

// confirmLocked finalizes a pairing: state flips to confirmed, the deadline
// is cleared and both sides receive the partner record they will use to
// address relayed frames.
func (c *Coordinator) confirmLocked(p *Pairing, a, b *Connection) {
	p.State = StateConfirmed
	p.stopTimer()

	c.sendConn(a, core.MatchConfirmed{Type: core.EvMatchConfirmed, Partner: core.PartnerInfo{SocketID: b.ID, Profile: b.Profile}})
	c.sendConn(b, core.MatchConfirmed{Type: core.EvMatchConfirmed, Partner: core.PartnerInfo{SocketID: a.ID, Profile: a.Profile}})

	c.metrics.PairingsConfirmed.Inc()
	log.Info().Str("module", "app.matchmaker").Str("a", string(a.ID)).Str("b", string(b.ID)).Msg("pairing confirmed")
}

// Decline dissolves the connection's proposed pairing; both sides return to
// the pool so neither is left idle.
func (c *Coordinator) Decline(id core.ConnID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pairs.Get(id)
	if !ok {
		log.Debug().Str("module", "app.matchmaker").Str("conn", string(id)).Msg("decline without pairing")
		return
	}
	c.dissolveLocked(p, reasonDecline, id)
}

// Skip ends the current session by disengagement: same cleanup as decline,
// with both sides notified and requeued. A skip with no pairing just makes
// sure the connection is queued.
func (c *Coordinator) Skip(id core.ConnID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.pairs.Get(id)
	if !ok {
		c.requeueLocked(id)
		c.attemptLocked(id)
		return
	}
	c.dissolveLocked(p, reasonSkip, id)
}

// ExcludeNext records that id does not want to meet target again. If they
// are currently paired, the pairing is dissolved on the spot; otherwise the
// exclusion only shapes future pool scans.
func (c *Coordinator) ExcludeNext(id, target core.ConnID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.excl.Add(id, target)

	if p, ok := c.pairs.Get(id); ok {
		if partner, _ := p.Partner(id); partner == target {
			c.dissolveLocked(p, reasonSkip, id)
			return
		}
		return
	}
	c.attemptLocked(id)
}

// dissolveLocked tears a pairing down on behalf of `by`, notifies the peer
// (and, for skips, the actor), requeues the still-registered members and
// immediately re-attempts pairing for them.
func (c *Coordinator) dissolveLocked(p *Pairing, reason dissolveReason, by core.ConnID) {
	peerID, _ := p.Partner(by)

	c.pairs.Delete(p)
	p.stopTimer()

	byConn, byOK := c.registry.Lookup(by)
	peerConn, peerOK := c.registry.Lookup(peerID)

	var byProfile domain.Profile
	if byOK {
		byProfile = byConn.Profile
	}

	switch reason {
	case reasonSkip:
		if peerOK {
			c.sendConn(peerConn, core.UserEvent{Type: core.EvPartnerSkipped, User: byProfile})
		}
		if byOK && peerOK {
			c.sendConn(byConn, core.UserEvent{Type: core.EvSkippedPartner, User: peerConn.Profile})
		}
	case reasonDecline:
		if peerOK {
			c.sendConn(peerConn, core.UserEvent{Type: core.EvPartnerDecline, User: byProfile})
		}
	case reasonLeave, reasonDisconnect:
		if peerOK {
			c.sendConn(peerConn, core.UserEvent{Type: core.EvPartnerDisconnect, User: byProfile})
		}
	}

	c.metrics.PairingsDissolved.WithLabelValues(string(reason)).Inc()
	log.Info().Str("module", "app.matchmaker").
		Str("by", string(by)).Str("peer", string(peerID)).Str("reason", string(reason)).
		Msg("pairing dissolved")

	// The leaver/disconnector asked out; only the peer goes back to the pool.
	if reason == reasonSkip || reason == reasonDecline {
		c.requeueLocked(by)
	}
	c.requeueLocked(peerID)
	c.attemptLocked(peerID)
	if reason == reasonSkip || reason == reasonDecline {
		c.attemptLocked(by)
	}
}

// requeueLocked returns a connection to the pool if it is still registered
// and not paired.
func (c *Coordinator) requeueLocked(id core.ConnID) {
	if c.pairs.Paired(id) {
		return
	}
	if _, ok := c.registry.Lookup(id); !ok {
		return
	}
	if c.pool.Add(id) {
		c.syncQueueGauge()
	}
}
