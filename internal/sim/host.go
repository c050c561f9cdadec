package sim

import (
	"github.com/cartload/server/internal/core/event"
	"github.com/cartload/server/internal/data"
	"github.com/cartload/server/internal/region"
	"github.com/cartload/server/internal/retention"
)

// Cart is one simulated vehicle. TicksLeft counts remaining moving ticks;
// a negative value rolls forever.
type Cart struct {
	ID        CartID
	Name      string
	Kind      string
	Pos       region.Vec2
	Vel       region.Vec2
	TicksLeft int64
}

// World holds the carts of one simulated world.
type World struct {
	ID    string
	carts []*Cart
}

// Host is a minimal stand-in for the game server: it owns worlds and carts,
// moves them every tick and reports them to the retention engine.
type Host struct {
	pool   *CartPool
	cursor *Cursor
	bus    *event.Bus
	worlds []*World
	byID   map[string]*World
}

func NewHost(bus *event.Bus) *Host {
	return &Host{
		pool:   NewCartPool(),
		cursor: NewCursor(),
		bus:    bus,
		byID:   make(map[string]*World),
	}
}

// NewHostFromTable spawns every cart listed in the table.
func NewHostFromTable(table *data.CartTable, bus *event.Bus) *Host {
	h := NewHost(bus)
	for _, w := range table.Worlds() {
		h.AddWorld(w.ID)
		for _, c := range w.Carts {
			h.Spawn(w.ID, c)
		}
	}
	return h
}

// AddWorld registers an empty world; existing worlds are left alone.
func (h *Host) AddWorld(id string) *World {
	if w, ok := h.byID[id]; ok {
		return w
	}
	w := &World{ID: id}
	h.worlds = append(h.worlds, w)
	h.byID[id] = w
	return w
}

func (h *Host) Spawn(world string, s data.CartSpawn) *Cart {
	w := h.AddWorld(world)
	ticks := s.Ticks
	if ticks <= 0 {
		ticks = -1
	}
	c := &Cart{
		ID:        h.pool.Create(),
		Name:      s.ID,
		Kind:      s.Kind,
		Pos:       region.Vec2{X: s.X, Z: s.Z},
		Vel:       region.Vec2{X: s.VX, Z: s.VZ},
		TicksLeft: ticks,
	}
	w.carts = append(w.carts, c)
	return c
}

// Despawn removes a cart by name. Its cursor entry lingers until PruneCursor.
func (h *Host) Despawn(world, name string) bool {
	w, ok := h.byID[world]
	if !ok {
		return false
	}
	for i, c := range w.carts {
		if c.Name != name {
			continue
		}
		h.pool.Destroy(c.ID)
		w.carts = append(w.carts[:i], w.carts[i+1:]...)
		if h.bus != nil {
			event.Emit(h.bus, event.CartDespawned{World: world, Cart: name})
		}
		return true
	}
	return false
}

func (h *Host) Cart(world, name string) (*Cart, bool) {
	w, ok := h.byID[world]
	if !ok {
		return nil, false
	}
	for _, c := range w.carts {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// Step advances every cart by one tick and records movement.
func (h *Host) Step(tick int64) {
	for _, w := range h.worlds {
		for _, c := range w.carts {
			if c.TicksLeft == 0 {
				c.Vel = region.Vec2{}
			}
			h.cursor.Observe(c.ID, tick, c.Vel)
			c.Pos = c.Pos.Add(c.Vel)
			if c.TicksLeft > 0 {
				c.TicksLeft--
			}
		}
	}
}

// Worlds lists world ids in registration order.
func (h *Host) Worlds() []string {
	out := make([]string, len(h.worlds))
	for i, w := range h.worlds {
		out[i] = w.ID
	}
	return out
}

func (h *Host) TrackedEntities(world string) []retention.Tracked {
	w, ok := h.byID[world]
	if !ok {
		return nil
	}
	out := make([]retention.Tracked, 0, len(w.carts))
	for _, c := range w.carts {
		out = append(out, retention.Tracked{
			ID:        c.Name,
			Kind:      c.Kind,
			Region:    region.FromPosition(c.Pos),
			Position:  c.Pos,
			Velocity:  c.Vel,
			LastMoved: h.cursor.LastMoved(c.ID),
		})
	}
	return out
}

// PruneCursor drops movement history of despawned carts.
func (h *Host) PruneCursor() int {
	return h.cursor.Prune(h.pool.Alive)
}

func (h *Host) Cursor() *Cursor { return h.cursor }
