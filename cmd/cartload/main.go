package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/cartload/server/internal/config"
	"github.com/cartload/server/internal/core/event"
	coresys "github.com/cartload/server/internal/core/system"
	"github.com/cartload/server/internal/data"
	"github.com/cartload/server/internal/diag"
	"github.com/cartload/server/internal/persist"
	"github.com/cartload/server/internal/retention"
	"github.com/cartload/server/internal/scripting"
	"github.com/cartload/server/internal/sim"
	"github.com/cartload/server/internal/system"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(name string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m              cartload  v0.1.0             \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m       cart-driven region retention        \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mserver:\033[0m %s\n\n", name)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main server logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/server.toml"
	if p := os.Getenv("CARTLOAD_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name)

	// 3. Storage
	printSection("storage")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	backing, closeStorage, err := openStorage(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer closeStorage()
	writer := persist.NewAsyncWriter(backing, cfg.Storage.QueueWorlds, log)
	defer writer.Close()
	printOK(fmt.Sprintf("%s backend ready", cfg.Storage.Backend))
	fmt.Println()

	// 4. Host data and scripts
	printSection("data")
	carts, err := data.LoadCartTable(cfg.Sim.CartList)
	if err != nil {
		return fmt.Errorf("load cart table: %w", err)
	}
	printStat("worlds", len(carts.Worlds()))
	printStat("carts", carts.Count())

	scripts, err := scripting.NewEngine(cfg.Scripting.Dir, log)
	if err != nil {
		return fmt.Errorf("scripting: %w", err)
	}
	defer scripts.Close()
	if scripts.HasRetainHook() {
		printOK("lua should_retain hook loaded")
	}
	fmt.Println()

	// 5. Host simulation, retention engine
	bus := event.NewBus()
	clock := &sim.Clock{}
	host := sim.NewHostFromTable(carts, bus)
	forces := sim.NewForceMap(bus)

	codec := retention.NewCodec(writer, forces, log)
	registry := retention.NewRegistry(codec, log)
	engine := retention.NewEngine(cfg.Settings(), registry, host, forces, log,
		retention.WithEligibility(retainFilter(carts, scripts)),
		retention.WithVerbose(cfg.Logging.Verbose),
	)

	// 6. Systems
	runner := coresys.NewRunner()
	runner.Register(system.NewMotionSystem(host))
	if cfg.Server.Enabled {
		runner.Register(system.NewRetentionSystem(engine, host))
	} else {
		log.Warn("retention disabled by server.enabled = false")
	}
	runner.Register(system.NewEventSystem(bus))
	runner.Register(system.NewPruneSystem(host, bus, log, int(engine.Settings().SaveIntervalTicks)))

	// 7. Diagnostics feed
	printSection("ready")
	if cfg.Diag.Enabled {
		feed := diag.NewServer(registry, clock, cfg.Diag.PushInterval, log)
		feed.Subscribe(bus, clock)
		addr, err := feed.ListenAndServe(cfg.Diag.BindAddress)
		if err != nil {
			return fmt.Errorf("diag: %w", err)
		}
		defer feed.Close()
		printReady(fmt.Sprintf("diagnostics ws://%s/retention", addr))
	}

	// 8. Tick loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Server.TickRate)
	defer ticker.Stop()

	s := engine.Settings()
	printReady(fmt.Sprintf("tick loop started (tick: %s)", cfg.Server.TickRate))
	printReady(fmt.Sprintf("window %d ticks, movement %d ticks, save every %d ticks",
		s.RetentionWindowTicks, s.MovementDuration, s.SaveIntervalTicks))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			runner.Tick(clock.Advance())
		case sig := <-shutdownCh:
			log.Info("shutdown signal", zap.String("signal", sig.String()))
			shutdown(engine, writer, clock.CurrentTick(), cfg.Server.Enabled, log)
			log.Info("server stopped")
			return nil
		}
	}
}

// shutdown saves every opened world and waits for the writer to drain.
func shutdown(engine *retention.Engine, writer *persist.AsyncWriter, tick int64, enabled bool, log *zap.Logger) {
	if !enabled {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := engine.Flush(ctx, tick); err != nil {
		log.Error("final save failed", zap.Error(err))
	}
	if err := writer.Flush(ctx); err != nil {
		log.Error("flush retention writes failed", zap.Error(err))
	}
}

// openStorage returns the configured backend and its cleanup.
func openStorage(ctx context.Context, cfg *config.Config, log *zap.Logger) (retention.Storage, func(), error) {
	switch cfg.Storage.Backend {
	case "", "file":
		return persist.NewFileStorage(cfg.Storage.Root), func() {}, nil
	case "postgres":
		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			return nil, nil, fmt.Errorf("database: %w", err)
		}
		if err := persist.RunMigrations(ctx, db); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrations: %w", err)
		}
		return persist.NewRetentionRepo(db), db.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// retainFilter admits a cart when its kind is enabled and the Lua hook agrees.
func retainFilter(carts *data.CartTable, scripts *scripting.Engine) func(string, retention.Tracked) bool {
	return func(world string, tr retention.Tracked) bool {
		if !carts.Retains(tr.Kind) {
			return false
		}
		return scripts.ShouldRetain(scripting.CartContext{
			World: world,
			ID:    tr.ID,
			Kind:  tr.Kind,
			X:     tr.Position.X,
			Z:     tr.Position.Z,
			VX:    tr.Velocity.X,
			VZ:    tr.Velocity.Z,
		})
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
