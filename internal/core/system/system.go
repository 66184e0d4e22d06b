package system

import "time"

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseInput    Phase = iota // 0: feed decoded events into the bus
	PhaseDispatch              // 1: deliver last tick's events to the registry
	PhaseUpdate                // 2: game logic
	PhaseCleanup               // 3: flush deferred removals
)

// System is the interface every tick system implements.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
