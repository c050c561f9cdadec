package retention

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cartload/server/internal/region"
	"go.uber.org/zap"
)

// persistedRecord is the on-disk shape of one record.
type persistedRecord struct {
	RegionX     int32 `json:"regionX"`
	RegionZ     int32 `json:"regionZ"`
	ExpiryTick  int64 `json:"expiryTick"`
	SavedAtTick int64 `json:"savedAtTick"`
}

// Codec saves and loads world tables, reconciling expiry ticks across clock resets.
type Codec struct {
	storage  Storage
	actuator Actuator
	log      *zap.Logger
}

func NewCodec(storage Storage, actuator Actuator, log *zap.Logger) *Codec {
	return &Codec{storage: storage, actuator: actuator, log: log}
}

// Encode serialises records in the persisted layout.
func Encode(recs []Record) ([]byte, error) {
	out := make([]persistedRecord, 0, len(recs))
	for _, rec := range recs {
		out = append(out, persistedRecord{
			RegionX:     rec.Region.X,
			RegionZ:     rec.Region.Z,
			ExpiryTick:  rec.ExpiryTick,
			SavedAtTick: rec.SavedAtTick,
		})
	}
	return json.MarshalIndent(out, "", "  ")
}

// Decode parses the persisted layout. Records are returned as stored, not reconciled.
func Decode(data []byte) ([]Record, error) {
	var in []persistedRecord
	if err := json.Unmarshal(data, &in); err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(in))
	for _, p := range in {
		out = append(out, Record{
			Region:      region.ID{X: p.RegionX, Z: p.RegionZ},
			ExpiryTick:  p.ExpiryTick,
			SavedAtTick: p.SavedAtTick,
		})
	}
	return out, nil
}

// Save writes every record of t stamped with SavedAtTick = now.
// An empty table deletes whatever was stored for the world.
// Returns the number of records written.
func (c *Codec) Save(ctx context.Context, world string, t *Table, now int64) (int, error) {
	t.MarkSaved(now)
	recs := t.Snapshot()
	if len(recs) == 0 {
		if err := c.storage.Delete(ctx, world); err != nil {
			return 0, fmt.Errorf("%w: delete world %s: %w", ErrStorageWrite, world, err)
		}
		return 0, nil
	}
	data, err := Encode(recs)
	if err != nil {
		return 0, fmt.Errorf("%w: encode world %s: %w", ErrStorageWrite, world, err)
	}
	if err := c.storage.Write(ctx, world, data); err != nil {
		return 0, fmt.Errorf("%w: write world %s: %w", ErrStorageWrite, world, err)
	}
	return len(recs), nil
}

// Load reads the persisted state of world and rebases each record onto the
// current epoch: expiry = now + (persisted expiry - persisted savedAt).
// Records with no time remaining are dropped. Every restored region is
// activated before Load returns.
//
// The returned table is never nil. A read or parse failure yields an empty
// table together with an error wrapping ErrStorageRead or ErrStorageParse.
func (c *Codec) Load(ctx context.Context, world string, now int64) (*Table, error) {
	t := NewTable()
	data, err := c.storage.Read(ctx, world)
	if err != nil {
		return t, fmt.Errorf("%w: world %s: %w", ErrStorageRead, world, err)
	}
	if data == nil {
		return t, nil
	}
	recs, err := Decode(data)
	if err != nil {
		return t, fmt.Errorf("%w: world %s: %w", ErrStorageParse, world, err)
	}

	for _, rec := range recs {
		remaining := rec.Remaining()
		if remaining <= 0 {
			continue
		}
		restored := Record{
			Region:      rec.Region,
			ExpiryTick:  now + remaining,
			SavedAtTick: now,
		}
		if !t.restore(restored) {
			continue
		}
		if err := c.actuator.Activate(world, rec.Region); err != nil {
			c.log.Warn("restore activate failed",
				zap.String("world", world),
				zap.Int32("x", rec.Region.X), zap.Int32("z", rec.Region.Z),
				zap.Error(err))
		}
	}
	return t, nil
}
