package chaos

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"maestro/internal/pipeline"
	"maestro/internal/schema"
)

// Config controls fault injection for pipeline stages.
type Config struct {
	Seed        int64
	FailureRate float64
	PanicRate   float64
	MaxDelay    time.Duration

	// Stages limits injection to the listed stages. Empty means all.
	Stages []schema.Stage
}

// Validate ensures the config is within supported ranges.
func (c Config) Validate() error {
	if c.FailureRate < 0 || c.FailureRate > 1 {
		return fmt.Errorf("failureRate must be between 0 and 1")
	}
	if c.PanicRate < 0 || c.PanicRate > 1 {
		return fmt.Errorf("panicRate must be between 0 and 1")
	}
	if c.MaxDelay < 0 {
		return fmt.Errorf("maxDelay must be >= 0")
	}
	return nil
}

// Engine injects deterministic faults into collaborator calls. Same
// seed, same fault sequence.
type Engine struct {
	cfg    Config
	stages map[schema.Stage]bool

	mu  sync.Mutex
	rng *rand.Rand
}

// NewEngine creates a chaos engine with validation.
func NewEngine(cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UTC().UnixNano()
	}
	var stages map[schema.Stage]bool
	if len(cfg.Stages) > 0 {
		stages = make(map[schema.Stage]bool, len(cfg.Stages))
		for _, s := range cfg.Stages {
			stages[s] = true
		}
	}
	return &Engine{
		cfg:    cfg,
		stages: stages,
		rng:    rand.New(rand.NewSource(cfg.Seed)),
	}, nil
}

// Wrap decorates every collaborator with fault injection.
func (e *Engine) Wrap(c pipeline.Collaborators) pipeline.Collaborators {
	if e == nil {
		return c
	}
	return pipeline.Collaborators{
		Data:      &dataChaos{inner: c.Data, engine: e},
		Model:     &modelChaos{inner: c.Model, engine: e},
		Strategy:  &strategyChaos{inner: c.Strategy, engine: e},
		Optimizer: &optimizerChaos{inner: c.Optimizer, engine: e},
		Executor:  &executorChaos{inner: c.Executor, engine: e},
	}
}

// trip optionally delays, panics or fails before the real call runs.
func (e *Engine) trip(ctx context.Context, stage schema.Stage) error {
	if e.stages != nil && !e.stages[stage] {
		return nil
	}

	e.mu.Lock()
	delay := time.Duration(0)
	if e.cfg.MaxDelay > 0 {
		delay = time.Duration(e.rng.Int63n(int64(e.cfg.MaxDelay) + 1))
	}
	panics := e.cfg.PanicRate > 0 && e.rng.Float64() < e.cfg.PanicRate
	fails := e.cfg.FailureRate > 0 && e.rng.Float64() < e.cfg.FailureRate
	e.mu.Unlock()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	if panics {
		panic(fmt.Sprintf("chaos: injected %s panic", stage))
	}
	if fails {
		return fmt.Errorf("chaos: injected %s failure", stage)
	}
	return nil
}

type dataChaos struct {
	inner  pipeline.DataProcessor
	engine *Engine
}

func (d *dataChaos) CaptureData(ctx context.Context) (pipeline.MarketSnapshot, error) {
	if err := d.engine.trip(ctx, schema.StageCapture); err != nil {
		return pipeline.MarketSnapshot{}, err
	}
	return d.inner.CaptureData(ctx)
}

type modelChaos struct {
	inner  pipeline.ModelBuilder
	engine *Engine
}

func (m *modelChaos) GeneratePredictions(ctx context.Context, snapshot pipeline.MarketSnapshot) (pipeline.PredictionSet, error) {
	if err := m.engine.trip(ctx, schema.StagePredict); err != nil {
		return pipeline.PredictionSet{}, err
	}
	return m.inner.GeneratePredictions(ctx, snapshot)
}

type strategyChaos struct {
	inner  pipeline.StrategyGenerator
	engine *Engine
}

func (s *strategyChaos) GenerateStrategies(ctx context.Context, predictions pipeline.PredictionSet, snapshot pipeline.MarketSnapshot) ([]pipeline.Strategy, error) {
	if err := s.engine.trip(ctx, schema.StageStrategize); err != nil {
		return nil, err
	}
	return s.inner.GenerateStrategies(ctx, predictions, snapshot)
}

type optimizerChaos struct {
	inner  pipeline.Optimizer
	engine *Engine
}

func (o *optimizerChaos) Optimize(ctx context.Context, strategies []pipeline.Strategy) ([]pipeline.Strategy, error) {
	if err := o.engine.trip(ctx, schema.StageOptimize); err != nil {
		return nil, err
	}
	return o.inner.Optimize(ctx, strategies)
}

func (o *optimizerChaos) UpdateFeedback(ctx context.Context, report pipeline.ExecutionReport) error {
	if err := o.engine.trip(ctx, schema.StageFeedback); err != nil {
		return err
	}
	return o.inner.UpdateFeedback(ctx, report)
}

type executorChaos struct {
	inner  pipeline.Executor
	engine *Engine
}

func (e *executorChaos) ExecuteTrades(ctx context.Context, strategies []pipeline.Strategy) (pipeline.ExecutionReport, error) {
	if err := e.engine.trip(ctx, schema.StageExecute); err != nil {
		return pipeline.ExecutionReport{}, err
	}
	return e.inner.ExecuteTrades(ctx, strategies)
}
