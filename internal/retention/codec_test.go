package retention

import (
	"context"
	"testing"

	"github.com/cartload/server/internal/region"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestSaveLoadStableClock(t *testing.T) {
	ctx := context.Background()
	store := newMemStorage()
	act := &recordingActuator{}
	codec := NewCodec(store, act, zap.NewNop())

	tbl := NewTable()
	tbl.UpsertExtend(region.ID{X: 0, Z: 0}, 700)
	tbl.UpsertExtend(region.ID{X: -3, Z: 9}, 450)

	n, err := codec.Save(ctx, "overworld", tbl, 400)
	require.NoError(t, err)
	require.Equal(t, 2, n)

	loaded, err := codec.Load(ctx, "overworld", 400)
	require.NoError(t, err)
	for _, want := range tbl.Snapshot() {
		got, ok := loaded.Get(want.Region)
		require.True(t, ok)
		require.Equal(t, want.ExpiryTick, got.ExpiryTick)
	}
	require.Equal(t, 1, act.count(region.ID{X: 0, Z: 0}, true))
	require.Equal(t, 1, act.count(region.ID{X: -3, Z: 9}, true))
}

func TestLoadReconcilesAcrossClockReset(t *testing.T) {
	ctx := context.Background()
	store := newMemStorage()
	live := region.ID{X: 4, Z: 4}
	dead := region.ID{X: 5, Z: 5}
	data, err := Encode([]Record{
		{Region: live, ExpiryTick: 500, SavedAtTick: 300},
		{Region: dead, ExpiryTick: 300, SavedAtTick: 300},
	})
	require.NoError(t, err)
	require.NoError(t, store.Write(ctx, "overworld", data))

	act := &recordingActuator{}
	loaded, err := NewCodec(store, act, zap.NewNop()).Load(ctx, "overworld", 1)
	require.NoError(t, err)

	rec, ok := loaded.Get(live)
	require.True(t, ok)
	require.Equal(t, int64(201), rec.ExpiryTick)

	_, ok = loaded.Get(dead)
	require.False(t, ok)
	require.Equal(t, 0, act.count(dead, true))
	require.Equal(t, 1, act.count(live, true))
}

func TestSaveEmptyDeletes(t *testing.T) {
	ctx := context.Background()
	store := newMemStorage()
	codec := NewCodec(store, &recordingActuator{}, zap.NewNop())

	tbl := NewTable()
	tbl.UpsertExtend(region.ID{X: 1, Z: 2}, 50)
	_, err := codec.Save(ctx, "nether", tbl, 10)
	require.NoError(t, err)
	require.True(t, store.has("nether"))

	tbl.Remove(region.ID{X: 1, Z: 2})
	n, err := codec.Save(ctx, "nether", tbl, 20)
	require.NoError(t, err)
	require.Zero(t, n)
	require.False(t, store.has("nether"))

	loaded, err := codec.Load(ctx, "nether", 30)
	require.NoError(t, err)
	require.Zero(t, loaded.Len())
}

func TestSaveStampsSavedAt(t *testing.T) {
	ctx := context.Background()
	store := newMemStorage()
	codec := NewCodec(store, &recordingActuator{}, zap.NewNop())

	tbl := NewTable()
	tbl.UpsertExtend(region.ID{X: 0, Z: 1}, 90)
	_, err := codec.Save(ctx, "end", tbl, 42)
	require.NoError(t, err)

	raw, _ := store.Read(ctx, "end")
	recs, err := Decode(raw)
	require.NoError(t, err)
	require.Equal(t, []Record{{Region: region.ID{X: 0, Z: 1}, ExpiryTick: 90, SavedAtTick: 42}}, recs)
	require.Contains(t, string(raw), `"regionX"`)
	require.Contains(t, string(raw), `"savedAtTick": 42`)
}

func TestLoadCorruptYieldsEmpty(t *testing.T) {
	ctx := context.Background()
	store := newMemStorage()
	require.NoError(t, store.Write(ctx, "overworld", []byte("{not json")))

	act := &recordingActuator{}
	loaded, err := NewCodec(store, act, zap.NewNop()).Load(ctx, "overworld", 5)
	require.ErrorIs(t, err, ErrStorageParse)
	require.ErrorContains(t, err, "overworld")
	require.NotNil(t, loaded)
	require.Zero(t, loaded.Len())
	require.Empty(t, act.calls)
}

func TestLoadReadFailureYieldsEmpty(t *testing.T) {
	store := newMemStorage()
	store.readErr = errDisk
	loaded, err := NewCodec(store, &recordingActuator{}, zap.NewNop()).Load(context.Background(), "overworld", 5)
	require.ErrorIs(t, err, ErrStorageRead)
	require.ErrorIs(t, err, errDisk)
	require.Zero(t, loaded.Len())
}

func TestLoadDuplicateRegionsActivateOnce(t *testing.T) {
	ctx := context.Background()
	store := newMemStorage()
	r := region.ID{X: 7, Z: 7}
	data, err := Encode([]Record{
		{Region: r, ExpiryTick: 150, SavedAtTick: 100},
		{Region: r, ExpiryTick: 180, SavedAtTick: 100},
	})
	require.NoError(t, err)
	require.NoError(t, store.Write(ctx, "w", data))

	act := &recordingActuator{}
	loaded, err := NewCodec(store, act, zap.NewNop()).Load(ctx, "w", 0)
	require.NoError(t, err)
	rec, _ := loaded.Get(r)
	require.Equal(t, int64(80), rec.ExpiryTick)
	require.Equal(t, 1, act.count(r, true))
}

func TestSaveWriteFailure(t *testing.T) {
	store := newMemStorage()
	store.writeErr = errDisk
	tbl := NewTable()
	tbl.UpsertExtend(region.ID{X: 0, Z: 0}, 10)

	_, err := NewCodec(store, &recordingActuator{}, zap.NewNop()).Save(context.Background(), "w", tbl, 1)
	require.ErrorIs(t, err, ErrStorageWrite)
	require.Equal(t, 1, tbl.Len())
}
