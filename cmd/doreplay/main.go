package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/l1jgo/doregistry/internal/config"
	"github.com/l1jgo/doregistry/internal/core/event"
	coresys "github.com/l1jgo/doregistry/internal/core/system"
	"github.com/l1jgo/doregistry/internal/data"
	"github.com/l1jgo/doregistry/internal/scripting"
	"github.com/l1jgo/doregistry/internal/system"
	"github.com/l1jgo/doregistry/internal/world"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(scenario string) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m        doreplay · object registry         \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mscenario:\033[0m %s\n\n", scenario)
}

func printSection(title string) {
	lineLen := max(46-len(title)-1, 3)
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := max(42-len(label)-len(numStr), 3)
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Replay ─────────────────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/registry.toml"
	if p := os.Getenv("DOREPLAY_CONFIG"); p != "" {
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

	printBanner(cfg.Replay.Scenario)

	// 3. Scripts and scenario
	printSection("data")
	scripts, err := scripting.NewEngine(cfg.Replay.ScriptsDir, log)
	if err != nil {
		return fmt.Errorf("scripts: %w", err)
	}
	defer scripts.Close()
	printStat("scripted classes", scripts.Classes())

	scenario, err := data.LoadScenario(cfg.Replay.Scenario)
	if err != nil {
		return fmt.Errorf("scenario: %w", err)
	}
	printStat("scenario ticks", scenario.Count())
	fmt.Println()

	// 4. Registry, bus and systems
	printSection("registry")
	reg := world.NewCollection(cfg.Registry, log)
	scripts.Bind(reg)
	bus := event.NewBus()
	system.NewSpawner(reg, scripts, log).Subscribe(bus)
	printOK(fmt.Sprintf("collection ready (owner view: %v)", reg.HasOwnerView()))

	runner := coresys.NewRunner()
	replay := system.NewReplaySystem(scenario, bus, log)
	runner.Register(replay)
	runner.Register(system.NewDispatchSystem(bus))
	runner.Register(system.NewCleanupSystem(reg, log))
	fmt.Println()

	// 5. Tick loop
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	printSection("replay")
	printReady(fmt.Sprintf("game loop started (tick: %s)", cfg.Replay.TickRate))
	fmt.Println()

	if err := loop(ctx, runner, replay, cfg.Replay.TickRate); err != nil {
		log.Info("replay interrupted", zap.Uint64("ticks", runner.Ticks()), zap.Error(err))
	}

	// 6. Report and tear down
	if cfg.Replay.PrintObjects {
		fmt.Println()
		if err := reg.WriteObjects(os.Stdout); err != nil {
			return err
		}
		fmt.Println()
		if err := reg.WriteObjectCount(os.Stdout); err != nil {
			return err
		}
	}

	printSection("shutdown")
	printStat("ticks", int(runner.Ticks()))
	printStat("objects", reg.Len(world.ViewAuthoritative))
	if err := reg.DeleteAll(); err != nil && !errors.Is(err, world.ErrIndexResidue) {
		return fmt.Errorf("delete all: %w", err)
	}
	printOK("registry cleared")
	return nil
}

// loop ticks the runner until the scenario is exhausted or ctx ends.
// A zero rate runs ticks back to back.
func loop(ctx context.Context, runner *coresys.Runner, replay *system.ReplaySystem, rate time.Duration) error {
	if rate <= 0 {
		for !replay.Done() {
			if err := ctx.Err(); err != nil {
				return err
			}
			runner.Tick(0)
		}
		return nil
	}

	ticker := time.NewTicker(rate)
	defer ticker.Stop()
	for !replay.Done() {
		select {
		case <-ticker.C:
			runner.Tick(rate)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
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
