package system

import (
	"github.com/cartload/server/internal/core/event"
	coresys "github.com/cartload/server/internal/core/system"
)

// EventSystem delivers the events emitted during this tick. Phase 2 (Publish).
type EventSystem struct {
	bus *event.Bus
}

func NewEventSystem(bus *event.Bus) *EventSystem {
	return &EventSystem{bus: bus}
}

func (s *EventSystem) Phase() coresys.Phase { return coresys.PhasePublish }

func (s *EventSystem) Update(_ int64) {
	s.bus.Swap()
	s.bus.Dispatch()
}
