package system

import (
	"time"

	"go.uber.org/zap"

	"github.com/l1jgo/doregistry/internal/core/event"
	coresys "github.com/l1jgo/doregistry/internal/core/system"
	"github.com/l1jgo/doregistry/internal/data"
)

// ReplaySystem feeds one scenario tick per game tick into the event bus.
// Phase 0 (Input).
type ReplaySystem struct {
	scenario *data.Scenario
	bus      *event.Bus
	next     int
	log      *zap.Logger
}

func NewReplaySystem(scenario *data.Scenario, bus *event.Bus, log *zap.Logger) *ReplaySystem {
	return &ReplaySystem{scenario: scenario, bus: bus, log: log}
}

func (s *ReplaySystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *ReplaySystem) Update(_ time.Duration) {
	if s.Done() {
		return
	}
	tick := s.scenario.Ticks[s.next]
	s.next++

	n := 0
	for _, ev := range tick.Events() {
		switch e := ev.(type) {
		case event.ObjectGenerate:
			event.Emit(s.bus, e)
		case event.ObjectLocation:
			event.Emit(s.bus, e)
		case event.ObjectDelete:
			event.Emit(s.bus, e)
		default:
			s.log.Warn("unknown scenario event", zap.Any("event", ev))
			continue
		}
		n++
	}
	s.log.Debug("replayed tick", zap.Int("tick", s.next), zap.Int("events", n))
}

// Done reports whether every scenario tick has been emitted.
func (s *ReplaySystem) Done() bool { return s.next >= s.scenario.Count() }

// Replayed returns how many scenario ticks have been emitted.
func (s *ReplaySystem) Replayed() int { return s.next }
