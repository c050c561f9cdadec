package system

import (
	"context"

	coresys "github.com/cartload/server/internal/core/system"
	"github.com/cartload/server/internal/retention"
)

// WorldSource lists the worlds the host currently has loaded.
type WorldSource interface {
	Worlds() []string
}

// RetentionSystem runs acquire, sweep and the save cadence for every loaded
// world. Phase 1 (Retain).
type RetentionSystem struct {
	engine *retention.Engine
	worlds WorldSource
}

func NewRetentionSystem(engine *retention.Engine, worlds WorldSource) *RetentionSystem {
	return &RetentionSystem{engine: engine, worlds: worlds}
}

func (s *RetentionSystem) Phase() coresys.Phase { return coresys.PhaseRetain }

func (s *RetentionSystem) Update(tick int64) {
	s.engine.Tick(context.Background(), s.worlds.Worlds(), tick)
}
