package app

import "github.com/nshein/duet/internal/core"

// waitingPool is the insertion-ordered set of connections awaiting a random
// match. Not safe for concurrent use; the coordinator serializes access.
type waitingPool struct {
	order  []core.ConnID
	member map[core.ConnID]struct{}
}

func newWaitingPool() *waitingPool {
	return &waitingPool{member: make(map[core.ConnID]struct{})}
}

func (p *waitingPool) Add(id core.ConnID) bool {
	if _, ok := p.member[id]; ok {
		return false
	}
	p.member[id] = struct{}{}
	p.order = append(p.order, id)
	return true
}

func (p *waitingPool) Remove(id core.ConnID) bool {
	if _, ok := p.member[id]; !ok {
		return false
	}
	delete(p.member, id)
	for i, v := range p.order {
		if v == id {
			p.order = append(p.order[:i], p.order[i+1:]...)
			break
		}
	}
	return true
}

func (p *waitingPool) Contains(id core.ConnID) bool {
	_, ok := p.member[id]
	return ok
}

// Members returns the pool in arrival order. Callers must not mutate the
// pool while iterating the returned slice; take a copy when they do.
func (p *waitingPool) Members() []core.ConnID {
	out := make([]core.ConnID, len(p.order))
	copy(out, p.order)
	return out
}

func (p *waitingPool) Len() int { return len(p.order) }
