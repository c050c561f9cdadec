package event

import "github.com/cartload/server/internal/region"

// RegionForced is emitted when the host starts keeping a region active.
type RegionForced struct {
	World  string
	Region region.ID
}

// RegionReleased is emitted when the host stops keeping a region active.
type RegionReleased struct {
	World  string
	Region region.ID
}

// CartDespawned is emitted when a tracked cart leaves its world for good.
type CartDespawned struct {
	World string
	Cart  string
}
