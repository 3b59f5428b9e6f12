package app

import (
	"github.com/rs/zerolog/log"

	"github.com/nshein/duet/internal/core"
	"github.com/nshein/duet/internal/domain"
)

// Disconnect tears down everything a lost connection held: its registry
// record, ring timer, pool slot, pairing and exclusion entries (in both
// directions). The counterpart of a dissolved pairing is notified and
// requeued; the lost connection itself is discarded.
func (c *Coordinator) Disconnect(id core.ConnID) {
	// Capture the profile before the record disappears so the peer notice
	// still carries a display name.
	var profile domain.Profile
	if conn, ok := c.registry.Lookup(id); ok {
		profile = conn.Profile
	}

	uid, known := c.registry.Unregister(id)
	if !known {
		return
	}

	c.mu.Lock()

	if cr, ok := c.calls[id]; ok {
		cr.stopTimer()
		delete(c.calls, id)
	}

	c.pool.Remove(id)
	c.syncQueueGauge()

	if p, ok := c.pairs.Get(id); ok {
		peerID, _ := p.Partner(id)
		c.pairs.Delete(p)
		p.stopTimer()

		if peerConn, ok := c.registry.Lookup(peerID); ok {
			c.sendConn(peerConn, core.UserEvent{Type: core.EvPartnerDisconnect, User: profile})
			c.requeueLocked(peerID)
			c.attemptLocked(peerID)
		}
		c.metrics.PairingsDissolved.WithLabelValues(string(reasonDisconnect)).Inc()
	}

	c.excl.Purge(id)
	delete(c.attempting, id)

	c.mu.Unlock()

	c.metrics.Online.Set(float64(c.registry.Count()))
	c.broadcastPresence()

	log.Info().Str("module", "app.coordinator").Str("conn", string(id)).Str("user", string(uid)).Msg("connection cleaned up")
}
