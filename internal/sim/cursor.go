package sim

import "github.com/cartload/server/internal/region"

// movingThreshold is the squared speed above which a cart counts as moving.
const movingThreshold = 1e-6

// Cursor remembers the last tick each cart was seen moving. Entries are never
// dropped implicitly; the owner calls Prune with the cart pool.
type Cursor struct {
	lastMoved map[CartID]int64
}

func NewCursor() *Cursor {
	return &Cursor{lastMoved: make(map[CartID]int64)}
}

// Observe records tick as the cart's last movement when vel is non-trivial.
func (c *Cursor) Observe(id CartID, tick int64, vel region.Vec2) {
	if vel.LengthSquared() > movingThreshold {
		c.lastMoved[id] = tick
	}
}

// LastMoved returns nil for a cart never seen moving.
func (c *Cursor) LastMoved(id CartID) *int64 {
	t, ok := c.lastMoved[id]
	if !ok {
		return nil
	}
	return &t
}

// Prune drops every entry whose cart is no longer alive and returns how many went.
func (c *Cursor) Prune(alive func(CartID) bool) int {
	n := 0
	for id := range c.lastMoved {
		if !alive(id) {
			delete(c.lastMoved, id)
			n++
		}
	}
	return n
}

func (c *Cursor) Len() int { return len(c.lastMoved) }
