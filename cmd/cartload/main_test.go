package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/cartload/server/internal/config"
	"github.com/cartload/server/internal/data"
	"github.com/cartload/server/internal/persist"
	"github.com/cartload/server/internal/region"
	"github.com/cartload/server/internal/retention"
	"github.com/cartload/server/internal/scripting"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRetainFilter(t *testing.T) {
	carts, err := data.LoadCartTable(filepath.Join("..", "..", "data", "yaml", "cart_list.yaml"))
	require.NoError(t, err)
	scripts, err := scripting.NewEngine(filepath.Join("..", "..", "scripts"), zap.NewNop())
	require.NoError(t, err)
	defer scripts.Close()

	allow := retainFilter(carts, scripts)
	slow := retention.Tracked{ID: "a", Kind: "minecart", Velocity: region.Vec2{X: 1}}
	require.True(t, allow("minecraft:overworld", slow))

	tnt := slow
	tnt.Kind = "tnt"
	require.False(t, allow("minecraft:overworld", tnt))

	fast := slow
	fast.Velocity = region.Vec2{X: 10}
	require.False(t, allow("minecraft:overworld", fast))
}

func TestOpenStorage(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Root = t.TempDir()

	s, closeFn, err := openStorage(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer closeFn()
	require.IsType(t, &persist.FileStorage{}, s)

	cfg.Storage.Backend = "s3"
	_, _, err = openStorage(context.Background(), cfg, zap.NewNop())
	require.ErrorContains(t, err, "unknown storage backend")
}

func TestNewLogger(t *testing.T) {
	log, err := newLogger(config.LoggingConfig{Level: "debug", Format: "json"})
	require.NoError(t, err)
	require.True(t, log.Core().Enabled(zap.DebugLevel))

	log, err = newLogger(config.LoggingConfig{Level: "nonsense", Format: "console"})
	require.NoError(t, err)
	require.False(t, log.Core().Enabled(zap.DebugLevel))
}
