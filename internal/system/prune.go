package system

import (
	"github.com/cartload/server/internal/core/event"
	coresys "github.com/cartload/server/internal/core/system"
	"github.com/cartload/server/internal/sim"
	"go.uber.org/zap"
)

// PruneSystem drops movement history of despawned carts. It counts
// CartDespawned events and prunes on the next interval boundary after one
// arrives. Phase 3 (Cleanup).
type PruneSystem struct {
	host      *sim.Host
	log       *zap.Logger
	despawned int
	tickCount int
	interval  int
}

func NewPruneSystem(host *sim.Host, bus *event.Bus, log *zap.Logger, intervalTicks int) *PruneSystem {
	s := &PruneSystem{host: host, log: log, interval: intervalTicks}
	event.Subscribe(bus, func(event.CartDespawned) { s.despawned++ })
	return s
}

func (s *PruneSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *PruneSystem) Update(_ int64) {
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	if s.despawned == 0 {
		return
	}
	s.despawned = 0
	if n := s.host.PruneCursor(); n > 0 {
		s.log.Debug("pruned movement cursor", zap.Int("carts", n))
	}
}
