package sim

import "sync/atomic"

// Clock is the host tick counter. It starts at zero on every process start
// and may be read from other goroutines while the tick loop advances it.
type Clock struct {
	tick atomic.Int64
}

func (c *Clock) CurrentTick() int64 { return c.tick.Load() }

// Advance moves to the next tick and returns it.
func (c *Clock) Advance() int64 {
	return c.tick.Add(1)
}
