package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"time"

	"maestro/internal/chaos"
	"maestro/internal/config"
	"maestro/internal/obs"
	"maestro/internal/orchestrator"
	"maestro/internal/pipeline"
	"maestro/internal/risk"
	"maestro/internal/schema"
	"maestro/internal/state"
)

func main() {
	configPath := flag.String("config", "", "Path to JSON config (optional)")
	cycles := flag.Int("cycles", 100, "Number of cycles to drive")
	seed := flag.Int64("seed", 1, "Chaos RNG seed (0=now)")
	failureRate := flag.Float64("failure-rate", 0.2, "Stage failure probability [0-1]")
	panicRate := flag.Float64("panic-rate", 0.02, "Stage panic probability [0-1]")
	maxDelay := flag.Duration("max-delay", 0, "Max injected stage delay")
	storeFail := flag.Bool("store-fail", false, "Make every state write fail")
	flag.Parse()

	if *cycles <= 0 {
		log.Fatalf("cycles must be > 0")
	}

	loaded, err := loadConfig(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	engine, err := chaos.NewEngine(chaos.Config{
		Seed:        *seed,
		FailureRate: *failureRate,
		PanicRate:   *panicRate,
		MaxDelay:    *maxDelay,
	})
	if err != nil {
		log.Fatalf("chaos config invalid: %v", err)
	}

	store := state.NewMemoryStore(loaded.SystemID)
	if *storeFail {
		store.FailWith(errors.New("chaos: store unreachable"))
	}

	base := orchestrator.DefaultFactory(loaded)
	factory := func(ctx context.Context) (pipeline.Collaborators, error) {
		collab, err := base(ctx)
		if err != nil {
			return pipeline.Collaborators{}, err
		}
		return engine.Wrap(collab), nil
	}

	metrics := obs.NewMetrics()
	orch, err := orchestrator.New(orchestrator.Config{
		SystemID:    loaded.SystemID,
		Interval:    loaded.CycleInterval,
		LiveTrading: loaded.LiveTrading,
	}, store, factory, orchestrator.WithMetrics(metrics))
	if err != nil {
		log.Fatalf("orchestrator init failed: %v", err)
	}

	ctx := context.Background()
	if err := orch.Initialize(ctx); err != nil {
		log.Fatalf("initialize failed: %v", err)
	}

	var panics int
	for i := 0; i < *cycles; i++ {
		if recovered := driveCycle(ctx, orch); recovered {
			panics++
			metrics.IncBackoff()
		}
	}
	if err := orch.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown failed: %v", err)
	}

	snapshot := metrics.Snapshot()
	doc := store.State()
	log.Printf("drill completed: cycles_ok=%d cycles_failed=%d panics=%d state_writes=%d state_write_failures=%d",
		snapshot.CycleSuccess, snapshot.CycleFailure, panics,
		snapshot.StateWrites, snapshot.StateWriteFailures)
	log.Printf("final state: status=%s cycles=%d last_error=%q shutdown_at=%d",
		doc.Status, doc.CycleCount, doc.LastError, doc.ShutdownAt)

	if snapshot.CycleSuccess+snapshot.CycleFailure+uint64(panics) != uint64(*cycles) {
		log.Fatalf("cycle accounting mismatch: ok=%d failed=%d panics=%d expected=%d",
			snapshot.CycleSuccess, snapshot.CycleFailure, panics, *cycles)
	}
	if doc.Status != state.StatusShutdown && !*storeFail {
		log.Fatalf("final status must be shutdown, got %s", doc.Status)
	}
}

// driveCycle runs one cycle, absorbing injected panics the way the
// run loop's backoff tier does.
func driveCycle(ctx context.Context, orch *orchestrator.Orchestrator) (recovered bool) {
	defer func() {
		if r := recover(); r != nil {
			recovered = true
		}
	}()
	_ = orch.RunCycle(ctx)
	return false
}

func loadConfig(path string) (config.Loaded, error) {
	if path != "" {
		return config.Load(path)
	}
	live := true
	scale := schema.ScaleSpec{
		PriceScale:    2,
		QuantityScale: 6,
		NotionalScale: 8,
		FeeScale:      8,
	}
	return config.Resolve(config.FileConfig{
		SystemID:             "maestro-drill",
		CycleIntervalSeconds: 1,
		LiveTrading:          &live,
		Registry: config.RegistryConfig{
			Symbols: []config.SymbolConfig{
				{Name: "BTC-USDT", Scale: scale},
				{Name: "ETH-USDT", Scale: scale},
			},
		},
		Risk: risk.Config{
			MaxOrderQty:      schema.Quantity(10_000_000),
			MaxOrderNotional: schema.Notional(1 << 50),
			MaxPosition:      schema.Quantity(100_000_000),
			OrderRateWindow:  time.Second,
			OrderRateLimit:   1000,
		},
	})
}
