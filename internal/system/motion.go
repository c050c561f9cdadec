package system

import (
	coresys "github.com/cartload/server/internal/core/system"
	"github.com/cartload/server/internal/sim"
)

// MotionSystem moves the simulated carts and updates the movement cursor.
// Phase 0 (Sense).
type MotionSystem struct {
	host *sim.Host
}

func NewMotionSystem(host *sim.Host) *MotionSystem {
	return &MotionSystem{host: host}
}

func (s *MotionSystem) Phase() coresys.Phase { return coresys.PhaseSense }

func (s *MotionSystem) Update(tick int64) {
	s.host.Step(tick)
}
