package retention

import (
	"context"

	"github.com/cartload/server/internal/region"
	"go.uber.org/zap"
)

// Settings are the retention policy knobs, all in ticks.
type Settings struct {
	RetentionWindowTicks   int64 // how long a region stays forced after its last acquire
	MovementDuration       int64 // how long a stopped entity still qualifies; ignored with AlwaysRetain
	AlwaysRetain           bool
	DirectionalAcquisition bool // current + predicted region instead of a 3x3 block
	SaveIntervalTicks      int64
}

// DefaultSettings matches a 20 tick/s host: 30s window, 10s movement grace, save every 5s.
func DefaultSettings() Settings {
	return Settings{
		RetentionWindowTicks: 30 * 20,
		MovementDuration:     10 * 20,
		SaveIntervalTicks:    5 * 20,
	}
}

// Engine runs the per-world retention passes once per tick: acquire, sweep, persist.
type Engine struct {
	settings Settings
	registry *Registry
	observer Observer
	actuator Actuator
	eligible func(world string, tr Tracked) bool
	verbose  bool
	log      *zap.Logger
}

type Option func(*Engine)

// WithEligibility filters which tracked entities may acquire regions at all.
func WithEligibility(fn func(world string, tr Tracked) bool) Option {
	return func(e *Engine) { e.eligible = fn }
}

// WithVerbose logs every force and release at info level.
func WithVerbose(v bool) Option {
	return func(e *Engine) { e.verbose = v }
}

func NewEngine(settings Settings, registry *Registry, observer Observer, actuator Actuator, log *zap.Logger, opts ...Option) *Engine {
	e := &Engine{
		settings: settings,
		registry: registry,
		observer: observer,
		actuator: actuator,
		log:      log,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Settings() Settings  { return e.settings }
func (e *Engine) Registry() *Registry { return e.registry }

// Tick runs every world in order for tick now.
func (e *Engine) Tick(ctx context.Context, worlds []string, now int64) {
	for _, w := range worlds {
		e.TickWorld(ctx, w, now)
	}
}

// TickWorld runs acquire, sweep and the save cadence for one world.
// Acquire precedes sweep so a region re-acquired on its last tick survives.
func (e *Engine) TickWorld(ctx context.Context, world string, now int64) {
	ws := e.registry.open(ctx, world, now)
	e.acquire(world, ws.table, now)
	e.sweep(world, ws.table, now)

	if now-ws.lastSaved < e.settings.SaveIntervalTicks {
		return
	}
	ws.lastSaved = now
	n, err := e.registry.codec.Save(ctx, world, ws.table, now)
	if err != nil {
		// the next cadence retries
		e.log.Error("save retained regions failed", zap.String("world", world), zap.Error(err))
		return
	}
	e.trace("saved retained regions", zap.String("world", world), zap.Int("count", n))
}

// Flush saves every opened world now.
func (e *Engine) Flush(ctx context.Context, now int64) error {
	return e.registry.SaveAll(ctx, now)
}

// qualifies checks the movement window before the eligibility filter, which
// may call into Lua.
func (e *Engine) qualifies(world string, tr Tracked, now int64) bool {
	if !e.settings.AlwaysRetain {
		if tr.LastMoved == nil || now-*tr.LastMoved > e.settings.MovementDuration {
			return false
		}
	}
	return e.eligible == nil || e.eligible(world, tr)
}

// regionsFor returns the regions an entity claims this tick.
func (e *Engine) regionsFor(tr Tracked) []region.ID {
	if e.settings.DirectionalAcquisition {
		return []region.ID{tr.Region, region.Predict(tr.Position, tr.Velocity)}
	}
	return region.Block3x3(tr.Region)
}

func (e *Engine) acquire(world string, t *Table, now int64) int {
	expiry := now + e.settings.RetentionWindowTicks
	activated := 0
	for _, tr := range e.observer.TrackedEntities(world) {
		if !e.qualifies(world, tr, now) {
			continue
		}
		for _, r := range e.regionsFor(tr) {
			if _, existed := t.UpsertExtend(r, expiry); existed {
				continue
			}
			activated++
			if err := e.actuator.Activate(world, r); err != nil {
				e.log.Warn("activate region failed", zap.String("world", world),
					zap.Int32("x", r.X), zap.Int32("z", r.Z), zap.Error(err))
				continue
			}
			e.trace("region forced", zap.String("world", world), zap.String("entity", tr.ID),
				zap.String("kind", tr.Kind), zap.Int32("x", r.X), zap.Int32("z", r.Z))
		}
	}
	return activated
}

func (e *Engine) sweep(world string, t *Table, now int64) int {
	expired := t.Expired(now)
	for _, rec := range expired {
		// removed even if the actuator fails
		if err := e.actuator.Deactivate(world, rec.Region); err != nil {
			e.log.Warn("deactivate region failed", zap.String("world", world),
				zap.Int32("x", rec.Region.X), zap.Int32("z", rec.Region.Z), zap.Error(err))
		}
		t.Remove(rec.Region)
		e.trace("region released", zap.String("world", world),
			zap.Int32("x", rec.Region.X), zap.Int32("z", rec.Region.Z))
	}
	return len(expired)
}

func (e *Engine) trace(msg string, fields ...zap.Field) {
	if e.verbose {
		e.log.Info(msg, fields...)
		return
	}
	e.log.Debug(msg, fields...)
}
