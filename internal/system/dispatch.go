package system

import (
	"time"

	"github.com/l1jgo/doregistry/internal/core/event"
	coresys "github.com/l1jgo/doregistry/internal/core/system"
)

// DispatchSystem delivers the events emitted since the last swap.
// Phase 1 (Dispatch).
type DispatchSystem struct {
	bus        *event.Bus
	dispatched int
}

func NewDispatchSystem(bus *event.Bus) *DispatchSystem {
	return &DispatchSystem{bus: bus}
}

func (s *DispatchSystem) Phase() coresys.Phase { return coresys.PhaseDispatch }

func (s *DispatchSystem) Update(_ time.Duration) {
	s.bus.SwapBuffers()
	s.dispatched += s.bus.DispatchAll()
}

// Dispatched returns the total number of delivered events.
func (s *DispatchSystem) Dispatched() int { return s.dispatched }
