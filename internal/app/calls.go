package app

import (
	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog/log"

	"github.com/nshein/duet/internal/core"
	"github.com/nshein/duet/internal/domain"
)

// callRequest is one outstanding friend call, keyed by the calling
// connection. The ring deadline carries a generation token so a timer that
// lost the race against accept/reject is a no-op.
type callRequest struct {
	caller core.ConnID
	target domain.UserID
	gen    uint64
	timer  *clock.Timer
}

func (cr *callRequest) stopTimer() {
	if cr.timer != nil {
		cr.timer.Stop()
		cr.timer = nil
	}
}

// PlaceCall rings every open connection of the target identity and arms the
// ring deadline. Fails fast if the caller is already paired, already has a
// call outstanding, or the target has no open connections.
func (c *Coordinator) PlaceCall(caller core.ConnID, target domain.UserID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	callerConn, ok := c.registry.Lookup(caller)
	if !ok {
		return
	}
	if c.pairs.Paired(caller) {
		c.sendConn(callerConn, core.InfoEvent{Type: core.EvFriendCallFailed, Message: "You are currently in a match."})
		return
	}
	if _, pending := c.calls[caller]; pending {
		c.sendConn(callerConn, core.InfoEvent{Type: core.EvFriendCallFailed, Message: "You already have a call ringing."})
		return
	}

	targets := c.registry.ConnectionsOf(target)
	if len(targets) == 0 {
		c.sendConn(callerConn, core.InfoEvent{Type: core.EvFriendCallFailed, Message: "User is not available."})
		return
	}

	ring := core.MessageEvent{Type: core.EvIncomingFriendCall, From: caller, User: callerConn.Profile}
	for _, id := range targets {
		c.send(id, ring)
	}

	cr := &callRequest{caller: caller, target: target, gen: c.nextGen()}
	c.calls[caller] = cr
	gen := cr.gen
	cr.timer = c.clock.AfterFunc(c.timings.CallRingTimeout, func() {
		c.onRingTimeout(caller, gen)
	})

	c.metrics.CallsPlaced.Inc()
	log.Info().Str("module", "app.calls").Str("caller", string(caller)).Str("target", string(target)).Msg("friend call placed")
}

// onRingTimeout notifies the caller that nobody picked up. The callee side
// never committed, so no peer notification is needed.
func (c *Coordinator) onRingTimeout(caller core.ConnID, gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	cr, ok := c.calls[caller]
	if !ok || cr.gen != gen {
		return
	}
	delete(c.calls, caller)
	c.send(caller, core.InfoEvent{Type: core.EvFriendCallTimeout, Message: "Call timed out."})
	log.Info().Str("module", "app.calls").Str("caller", string(caller)).Msg("friend call timeout")
}

// AcceptCall converts a ringing call into a confirmed pairing between the
// caller connection and the accepting connection. The ring already served
// as the confirmation step, so the proposed state is bypassed.
func (c *Coordinator) AcceptCall(target, caller core.ConnID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	targetConn, ok := c.registry.Lookup(target)
	if !ok {
		return
	}
	callerConn, ok := c.registry.Lookup(caller)
	if !ok {
		c.sendConn(targetConn, core.InfoEvent{Type: core.EvFriendCallFailed, Message: "Caller is no longer available."})
		return
	}
	cr, ok := c.calls[caller]
	if !ok || cr.target != targetConn.Profile.UserID {
		// Ring already resolved (timeout, another tab, reject).
		c.sendConn(targetConn, core.InfoEvent{Type: core.EvFriendCallFailed, Message: "Call is no longer active."})
		return
	}
	if c.pairs.Paired(target) || c.pairs.Paired(caller) {
		// Double-booking guard: a sibling tab may have accepted first.
		c.sendConn(targetConn, core.InfoEvent{Type: core.EvFriendCallFailed, Message: "Already in a session."})
		return
	}

	cr.stopTimer()
	delete(c.calls, caller)

	// Calls bypass the pool, but either side may still be queued from before.
	c.pool.Remove(caller)
	c.pool.Remove(target)
	c.syncQueueGauge()

	p := &Pairing{
		A: caller, B: target,
		State:    StateConfirmed,
		accepted: map[core.ConnID]bool{caller: true, target: true},
		gen:      c.nextGen(),
	}
	c.pairs.Put(p)

	c.metrics.CallsAccepted.Inc()
	c.confirmLocked(p, callerConn, targetConn)
}

// RejectCall resolves the ring with a rejection notice to the caller.
func (c *Coordinator) RejectCall(target, caller core.ConnID) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if cr, ok := c.calls[caller]; ok {
		cr.stopTimer()
		delete(c.calls, caller)
	}
	targetConn, ok := c.registry.Lookup(target)
	if !ok {
		return
	}
	c.send(caller, core.UserEvent{Type: core.EvFriendCallRejected, User: targetConn.Profile})
	log.Info().Str("module", "app.calls").Str("caller", string(caller)).Str("target", string(target)).Msg("friend call rejected")
}
