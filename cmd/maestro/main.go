package main

import (
	"context"
	"flag"
	"log"
	"sync"

	"maestro/internal/bus"
	"maestro/internal/config"
	"maestro/internal/journal"
	"maestro/internal/obs"
	"maestro/internal/orchestrator"
	"maestro/internal/state"

	pyroscope "github.com/grafana/pyroscope-go"
	"github.com/yanun0323/pkg/sys"
)

func main() {
	configPath := flag.String("config", "", "Path to JSON config (required)")
	profileAddr := flag.String("profile", "", "Pyroscope server address (optional)")
	flag.Parse()

	if *configPath == "" {
		log.Fatalf("missing config; use -config")
	}

	loaded, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config load failed: %v", err)
	}

	if *profileAddr != "" {
		profiler, err := pyroscope.Start(pyroscope.Config{
			ApplicationName: "maestro",
			ServerAddress:   *profileAddr,
			Tags: map[string]string{
				"system": loaded.SystemID,
			},
			ProfileTypes: []pyroscope.ProfileType{
				pyroscope.ProfileCPU,
				pyroscope.ProfileAllocObjects,
				pyroscope.ProfileAllocSpace,
				pyroscope.ProfileInuseObjects,
				pyroscope.ProfileInuseSpace,
			},
		})
		if err != nil {
			log.Fatalf("pyroscope start failed: %v", err)
		}
		defer func() {
			_ = profiler.Stop()
		}()
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, err := buildStore(ctx, loaded)
	if err != nil {
		log.Fatalf("store init failed: %v", err)
	}
	defer func() {
		_ = store.Close()
	}()

	metrics := obs.NewMetrics()
	opts := []orchestrator.Option{orchestrator.WithMetrics(metrics)}

	var (
		writer *journal.Writer
		queue  *bus.Queue
		wg     sync.WaitGroup
	)
	if loaded.Journal != nil {
		writer, err = journal.NewWriter(*loaded.Journal)
		if err != nil {
			log.Fatalf("journal init failed: %v", err)
		}
		if err := writer.Start(context.Background()); err != nil {
			log.Fatalf("journal start failed: %v", err)
		}
		queue = bus.NewQueue(loaded.Journal.QueueSize)
		wg.Add(1)
		go func() {
			defer wg.Done()
			// Drains until Close so shutdown events still land after
			// the run context is canceled.
			queue.Run(context.Background(), func(e bus.Event) {
				if err := writer.TryAppend(e.Header, e.Payload); err != nil {
					log.Printf("journal append failed: %v", err)
				}
			})
		}()
		opts = append(opts, orchestrator.WithJournalQueue(queue))
	}

	orch, err := orchestrator.New(orchestrator.Config{
		SystemID:    loaded.SystemID,
		Interval:    loaded.CycleInterval,
		LiveTrading: loaded.LiveTrading,
	}, store, orchestrator.DefaultFactory(loaded), opts...)
	if err != nil {
		log.Fatalf("orchestrator init failed: %v", err)
	}

	go func() {
		<-sys.Shutdown()
		log.Printf("interrupt received, stopping")
		cancel()
	}()

	if err := orch.Run(ctx); err != nil {
		_ = orch.Shutdown(context.Background())
		log.Fatalf("run failed: %v", err)
	}
	if err := orch.Shutdown(context.Background()); err != nil {
		log.Printf("shutdown failed: %v", err)
	}

	if queue != nil {
		queue.Close()
		wg.Wait()
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			log.Printf("journal close failed: %v", err)
		}
	}

	snapshot := metrics.Snapshot()
	log.Printf("metrics: cycles_ok=%d cycles_failed=%d backoffs=%d state_writes=%d state_write_failures=%d journal_drops=%d cycle_latency=%+v",
		snapshot.CycleSuccess, snapshot.CycleFailure, snapshot.Backoffs,
		snapshot.StateWrites, snapshot.StateWriteFailures, snapshot.JournalDrops, snapshot.CycleLatency)
}

func buildStore(ctx context.Context, loaded config.Loaded) (state.Store, error) {
	switch loaded.Store.Backend {
	case config.StorePostgres:
		return state.NewPostgresStore(loaded.SystemID, loaded.Store.Postgres)
	case config.StoreRedis:
		return state.NewRedisStore(ctx, loaded.SystemID, loaded.Store.Redis)
	default:
		return state.NewMemoryStore(loaded.SystemID), nil
	}
}
