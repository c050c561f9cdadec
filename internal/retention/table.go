package retention

import (
	"sort"
	"sync"

	"github.com/cartload/server/internal/region"
)

// Table maps forced regions of one world to their retention record.
// Mutated only from the owning world's tick; readers from other goroutines
// (diagnostics) go through the read lock and receive copies.
type Table struct {
	mu      sync.RWMutex
	records map[region.ID]Record
}

func NewTable() *Table {
	return &Table{records: make(map[region.ID]Record)}
}

func (t *Table) Get(r region.ID) (Record, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	rec, ok := t.records[r]
	return rec, ok
}

// UpsertExtend inserts a record expiring at expiry, or raises the expiry of an
// existing record to max(existing, expiry). existed is false on a fresh insert.
func (t *Table) UpsertExtend(r region.ID, expiry int64) (prev Record, existed bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	prev, existed = t.records[r]
	if !existed {
		t.records[r] = Record{Region: r, ExpiryTick: expiry}
		return prev, false
	}
	if expiry > prev.ExpiryTick {
		next := prev
		next.ExpiryTick = expiry
		t.records[r] = next
	}
	return prev, true
}

func (t *Table) Remove(r region.ID) (Record, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.records[r]
	if ok {
		delete(t.records, r)
	}
	return rec, ok
}

func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.records)
}

// Snapshot returns a copy of every record ordered by region.
func (t *Table) Snapshot() []Record {
	t.mu.RLock()
	out := make([]Record, 0, len(t.records))
	for _, rec := range t.records {
		out = append(out, rec)
	}
	t.mu.RUnlock()
	sortRecords(out)
	return out
}

// Expired returns the records with ExpiryTick strictly before now, ordered by region.
func (t *Table) Expired(now int64) []Record {
	t.mu.RLock()
	var out []Record
	for _, rec := range t.records {
		if rec.ExpiryTick < now {
			out = append(out, rec)
		}
	}
	t.mu.RUnlock()
	sortRecords(out)
	return out
}

// MarkSaved stamps every record with the tick of the save in progress.
func (t *Table) MarkSaved(now int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for r, rec := range t.records {
		rec.SavedAtTick = now
		t.records[r] = rec
	}
}

// restore inserts a reconciled record. Duplicate regions keep the later expiry.
func (t *Table) restore(rec Record) (fresh bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	prev, ok := t.records[rec.Region]
	if ok && prev.ExpiryTick >= rec.ExpiryTick {
		return false
	}
	t.records[rec.Region] = rec
	return !ok
}

func sortRecords(recs []Record) {
	sort.Slice(recs, func(i, j int) bool {
		return region.Less(recs[i].Region, recs[j].Region)
	})
}
