package retention

import "github.com/cartload/server/internal/region"

// Record is the retention state of one forced region.
// ExpiryTick is absolute in the current clock epoch. SavedAtTick is the tick
// of the last durable write and only matters when reconciling a load.
type Record struct {
	Region      region.ID
	ExpiryTick  int64
	SavedAtTick int64
}

// Remaining returns the ticks left before expiry as seen at the last save.
func (r Record) Remaining() int64 {
	return r.ExpiryTick - r.SavedAtTick
}
