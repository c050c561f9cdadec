package retention

import (
	"context"

	"github.com/cartload/server/internal/region"
)

// TickSource supplies the host clock. It is monotonic within a process run
// and restarts at zero after every restart.
type TickSource interface {
	CurrentTick() int64
}

// Actuator keeps regions externally active. The engine calls Activate only on
// a fresh insertion and Deactivate only on removal.
type Actuator interface {
	Activate(world string, r region.ID) error
	Deactivate(world string, r region.ID) error
}

// Tracked is one entity the host reports for a world.
// LastMoved is nil when the entity has never been seen moving.
type Tracked struct {
	ID        string
	Kind      string
	Region    region.ID
	Position  region.Vec2
	Velocity  region.Vec2
	LastMoved *int64
}

// Observer reports the tracked entities of a world for the current tick.
type Observer interface {
	TrackedEntities(world string) []Tracked
}

// Storage reads and writes the persisted retention state of one world.
// Read returns nil data and a nil error when nothing is stored.
type Storage interface {
	Read(ctx context.Context, world string) ([]byte, error)
	Write(ctx context.Context, world string, data []byte) error
	Delete(ctx context.Context, world string) error
}
