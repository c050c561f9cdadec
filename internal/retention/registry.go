package retention

import (
	"context"
	"errors"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// worldState is the retention state owned by one world.
type worldState struct {
	table     *Table
	lastSaved int64
}

// Registry owns one Table per world, keyed by a stable world identifier.
// Open and Close follow the host's world load and unload events; Engine opens
// worlds lazily on their first tick.
type Registry struct {
	mu     sync.RWMutex
	worlds map[string]*worldState
	codec  *Codec
	log    *zap.Logger
}

func NewRegistry(codec *Codec, log *zap.Logger) *Registry {
	return &Registry{
		worlds: make(map[string]*worldState),
		codec:  codec,
		log:    log,
	}
}

// Open returns the table of world, loading persisted state on first use.
// Load failures are logged and leave the world with an empty table.
func (r *Registry) Open(ctx context.Context, world string, now int64) *Table {
	return r.open(ctx, world, now).table
}

func (r *Registry) open(ctx context.Context, world string, now int64) *worldState {
	r.mu.RLock()
	ws, ok := r.worlds[world]
	r.mu.RUnlock()
	if ok {
		return ws
	}

	t, err := r.codec.Load(ctx, world, now)
	if err != nil {
		r.log.Error("load retained regions failed, continuing empty", zap.String("world", world), zap.Error(err))
	}
	r.log.Info("loaded retained regions", zap.String("world", world), zap.Int("count", t.Len()))

	ws = &worldState{table: t, lastSaved: now}
	r.mu.Lock()
	r.worlds[world] = ws
	r.mu.Unlock()
	return ws
}

// Close saves world one last time and forgets its table. Its regions are not
// released: the host drops them with the unloaded world. The next Open
// restores them from storage and calls Activate again for each, so actuators
// must treat activating an already active region as a no-op.
func (r *Registry) Close(ctx context.Context, world string, now int64) error {
	r.mu.Lock()
	ws, ok := r.worlds[world]
	delete(r.worlds, world)
	r.mu.Unlock()
	if !ok {
		return nil
	}
	_, err := r.codec.Save(ctx, world, ws.table, now)
	return err
}

// Table returns the table of an opened world.
func (r *Registry) Table(world string) (*Table, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ws, ok := r.worlds[world]
	if !ok {
		return nil, false
	}
	return ws.table, true
}

// Worlds lists opened worlds in sorted order.
func (r *Registry) Worlds() []string {
	r.mu.RLock()
	out := make([]string, 0, len(r.worlds))
	for w := range r.worlds {
		out = append(out, w)
	}
	r.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Snapshot copies every opened world's records. Safe to call from any goroutine.
func (r *Registry) Snapshot() map[string][]Record {
	r.mu.RLock()
	tables := make(map[string]*Table, len(r.worlds))
	for w, ws := range r.worlds {
		tables[w] = ws.table
	}
	r.mu.RUnlock()

	out := make(map[string][]Record, len(tables))
	for w, t := range tables {
		out[w] = t.Snapshot()
	}
	return out
}

// SaveAll saves every opened world immediately, used at shutdown.
func (r *Registry) SaveAll(ctx context.Context, now int64) error {
	var errs []error
	for _, w := range r.Worlds() {
		r.mu.RLock()
		ws := r.worlds[w]
		r.mu.RUnlock()
		if ws == nil {
			continue
		}
		n, err := r.codec.Save(ctx, w, ws.table, now)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		ws.lastSaved = now
		r.log.Info("saved retained regions", zap.String("world", w), zap.Int("count", n))
	}
	return errors.Join(errs...)
}
