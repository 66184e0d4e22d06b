package system

import (
	"time"

	"go.uber.org/zap"

	coresys "github.com/l1jgo/doregistry/internal/core/system"
	"github.com/l1jgo/doregistry/internal/world"
)

// CleanupSystem flushes objects marked for deletion at tick end.
// Phase 3 (Cleanup).
type CleanupSystem struct {
	reg *world.Collection
	log *zap.Logger
}

func NewCleanupSystem(reg *world.Collection, log *zap.Logger) *CleanupSystem {
	return &CleanupSystem{reg: reg, log: log}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	if n := s.reg.FlushDeletions(); n > 0 {
		s.log.Debug("flushed deletions", zap.Int("count", n))
	}
}
