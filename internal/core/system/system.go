package system

// Phase defines execution ordering within a single tick.
type Phase int

const (
	PhaseSense   Phase = iota // 0: host moves entities, movement cursor updated
	PhaseRetain               // 1: acquire, sweep, save cadence per world
	PhasePublish              // 2: diagnostics snapshot
	PhaseCleanup              // 3: prune stale entity ids
)

// System is the interface every tick system implements.
type System interface {
	Phase() Phase
	Update(tick int64)
}
