package app

import (
	"github.com/benbjohnson/clock"

	"github.com/nshein/duet/internal/core"
)

type PairState int

const (
	// StateProposed: both sides notified, neither-or-one has accepted,
	// confirmation deadline running.
	StateProposed PairState = iota
	// StateConfirmed: both accepted, deadline cleared, relay traffic flows.
	StateConfirmed
)

func (s PairState) String() string {
	if s == StateConfirmed {
		return "confirmed"
	}
	return "proposed"
}

// Pairing is a two-party session coordination record. Acceptance lives here,
// not on the connection, so the state machine is testable without transport.
type Pairing struct {
	A, B  core.ConnID
	State PairState

	accepted map[core.ConnID]bool

	// gen is the generation token captured by the confirmation timer; a
	// stale timer firing after dissolution re-checks it and backs off.
	gen   uint64
	timer *clock.Timer
}

func (p *Pairing) Partner(id core.ConnID) (core.ConnID, bool) {
	switch id {
	case p.A:
		return p.B, true
	case p.B:
		return p.A, true
	}
	return "", false
}

func (p *Pairing) Has(id core.ConnID) bool {
	return id == p.A || id == p.B
}

func (p *Pairing) markAccepted(id core.ConnID) {
	p.accepted[id] = true
}

func (p *Pairing) Accepted(id core.ConnID) bool {
	return p.accepted[id]
}

func (p *Pairing) bothAccepted() bool {
	return p.accepted[p.A] && p.accepted[p.B]
}

func (p *Pairing) stopTimer() {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
}

// pairTable maps connection ids to the one pairing each may hold. Not safe
// for concurrent use; the coordinator serializes access.
type pairTable struct {
	byConn map[core.ConnID]*Pairing
}

func newPairTable() *pairTable {
	return &pairTable{byConn: make(map[core.ConnID]*Pairing)}
}

func (t *pairTable) Get(id core.ConnID) (*Pairing, bool) {
	p, ok := t.byConn[id]
	return p, ok
}

func (t *pairTable) Paired(id core.ConnID) bool {
	_, ok := t.byConn[id]
	return ok
}

func (t *pairTable) Put(p *Pairing) {
	t.byConn[p.A] = p
	t.byConn[p.B] = p
}

func (t *pairTable) Delete(p *Pairing) {
	delete(t.byConn, p.A)
	delete(t.byConn, p.B)
}
