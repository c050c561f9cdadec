package retention

import (
	"context"
	"testing"

	"github.com/cartload/server/internal/region"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRegistryOpenIsLazyAndCached(t *testing.T) {
	ctx := context.Background()
	store := newMemStorage()
	reg := NewRegistry(NewCodec(store, &recordingActuator{}, zap.NewNop()), zap.NewNop())

	_, ok := reg.Table("w")
	require.False(t, ok)

	a := reg.Open(ctx, "w", 0)
	b := reg.Open(ctx, "w", 5)
	require.Same(t, a, b)
	require.Equal(t, []string{"w"}, reg.Worlds())
}

func TestRegistryCloseSavesAndForgets(t *testing.T) {
	ctx := context.Background()
	store := newMemStorage()
	act := &recordingActuator{}
	reg := NewRegistry(NewCodec(store, act, zap.NewNop()), zap.NewNop())

	reg.Open(ctx, "w", 0).UpsertExtend(region.ID{X: 1, Z: 1}, 60)
	require.NoError(t, reg.Close(ctx, "w", 10))
	require.True(t, store.has("w"))
	require.Empty(t, reg.Worlds())

	act.reset()
	tbl := reg.Open(ctx, "w", 0)
	rec, ok := tbl.Get(region.ID{X: 1, Z: 1})
	require.True(t, ok)
	require.Equal(t, int64(50), rec.ExpiryTick)
	require.Equal(t, 1, act.count(region.ID{X: 1, Z: 1}, true))

	require.NoError(t, reg.Close(ctx, "missing", 0))
}

func TestRegistryCorruptFileOpensEmpty(t *testing.T) {
	ctx := context.Background()
	store := newMemStorage()
	require.NoError(t, store.Write(ctx, "bad", []byte("[{]")))
	reg := NewRegistry(NewCodec(store, &recordingActuator{}, zap.NewNop()), zap.NewNop())

	require.Zero(t, reg.Open(ctx, "bad", 0).Len())
	require.Zero(t, reg.Open(ctx, "good", 0).Len())
}

func TestRegistrySnapshotAndSaveAll(t *testing.T) {
	ctx := context.Background()
	store := newMemStorage()
	reg := NewRegistry(NewCodec(store, &recordingActuator{}, zap.NewNop()), zap.NewNop())
	reg.Open(ctx, "a", 0).UpsertExtend(region.ID{X: 1}, 10)
	reg.Open(ctx, "b", 0)

	snap := reg.Snapshot()
	require.Len(t, snap["a"], 1)
	require.Empty(t, snap["b"])

	require.NoError(t, reg.SaveAll(ctx, 3))
	require.True(t, store.has("a"))
	require.False(t, store.has("b"))

	store.writeErr = errDisk
	require.ErrorIs(t, reg.SaveAll(ctx, 4), ErrStorageWrite)
}
