package sim

import (
	"sort"
	"sync"

	"github.com/cartload/server/internal/core/event"
	"github.com/cartload/server/internal/region"
)

// ForceMap is the simulated host primitive that keeps regions active.
// It reports every change on the event bus.
type ForceMap struct {
	mu     sync.RWMutex
	forced map[string]map[region.ID]struct{}
	bus    *event.Bus
}

func NewForceMap(bus *event.Bus) *ForceMap {
	return &ForceMap{
		forced: make(map[string]map[region.ID]struct{}),
		bus:    bus,
	}
}

// Activate forces r. Activating a region that is already forced is a no-op
// and emits nothing, which happens when a world is reopened after Close.
func (f *ForceMap) Activate(world string, r region.ID) error {
	f.mu.Lock()
	set := f.forced[world]
	if set == nil {
		set = make(map[region.ID]struct{})
		f.forced[world] = set
	}
	_, held := set[r]
	set[r] = struct{}{}
	f.mu.Unlock()
	if !held && f.bus != nil {
		event.Emit(f.bus, event.RegionForced{World: world, Region: r})
	}
	return nil
}

// Deactivate releases r. Releasing a region that is not forced emits nothing.
func (f *ForceMap) Deactivate(world string, r region.ID) error {
	f.mu.Lock()
	_, held := f.forced[world][r]
	if held {
		delete(f.forced[world], r)
		if len(f.forced[world]) == 0 {
			delete(f.forced, world)
		}
	}
	f.mu.Unlock()
	if held && f.bus != nil {
		event.Emit(f.bus, event.RegionReleased{World: world, Region: r})
	}
	return nil
}

func (f *ForceMap) IsForced(world string, r region.ID) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	_, ok := f.forced[world][r]
	return ok
}

// Forced lists the forced regions of a world ordered by region.
func (f *ForceMap) Forced(world string) []region.ID {
	f.mu.RLock()
	out := make([]region.ID, 0, len(f.forced[world]))
	for r := range f.forced[world] {
		out = append(out, r)
	}
	f.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return region.Less(out[i], out[j]) })
	return out
}
