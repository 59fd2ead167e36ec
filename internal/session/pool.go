package session

import (
	"slices"

	"git.home.luguber.info/inful/zephyrforge/internal/board"
)

// Pool is the per-session arena of hardware bus instances. Take hands out
// instances in board declaration order and never fails; an exhausted pool
// reports ok=false so the caller can fall back. Instances are not returned
// within a session.
type Pool struct {
	free  map[board.BusKind][]string
	taken map[board.BusKind][]string
}

// NewPool seeds the arena from the board's hardware controllers.
func NewPool(d *board.Descriptor) *Pool {
	return &Pool{
		free: map[board.BusKind][]string{
			board.BusI2C: slices.Clone(d.HardwareI2C),
		},
		taken: make(map[board.BusKind][]string),
	}
}

// Take allocates the next free instance of kind.
func (p *Pool) Take(kind board.BusKind) (string, bool) {
	free := p.free[kind]
	if len(free) == 0 {
		return "", false
	}
	inst := free[0]
	p.free[kind] = free[1:]
	p.taken[kind] = append(p.taken[kind], inst)
	return inst, true
}

// Remaining counts instances still free.
func (p *Pool) Remaining(kind board.BusKind) int { return len(p.free[kind]) }

// Allocated lists instances handed out so far, in allocation order.
func (p *Pool) Allocated(kind board.BusKind) []string { return slices.Clone(p.taken[kind]) }
