package chaos

import (
	"context"
	"strings"
	"testing"

	"maestro/internal/pipeline"
	"maestro/internal/schema"
)

type nopStages struct {
	captures int
	executes int
}

func (n *nopStages) CaptureData(ctx context.Context) (pipeline.MarketSnapshot, error) {
	n.captures++
	return pipeline.MarketSnapshot{}, nil
}

func (n *nopStages) GeneratePredictions(ctx context.Context, snapshot pipeline.MarketSnapshot) (pipeline.PredictionSet, error) {
	return pipeline.PredictionSet{}, nil
}

func (n *nopStages) GenerateStrategies(ctx context.Context, predictions pipeline.PredictionSet, snapshot pipeline.MarketSnapshot) ([]pipeline.Strategy, error) {
	return nil, nil
}

func (n *nopStages) Optimize(ctx context.Context, strategies []pipeline.Strategy) ([]pipeline.Strategy, error) {
	return strategies, nil
}

func (n *nopStages) UpdateFeedback(ctx context.Context, report pipeline.ExecutionReport) error {
	return nil
}

func (n *nopStages) ExecuteTrades(ctx context.Context, strategies []pipeline.Strategy) (pipeline.ExecutionReport, error) {
	n.executes++
	return pipeline.ExecutionReport{}, nil
}

func wrapped(t *testing.T, cfg Config) (pipeline.Collaborators, *nopStages) {
	t.Helper()
	engine, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("new engine failed, err: %+v", err)
	}
	stages := &nopStages{}
	return engine.Wrap(pipeline.Collaborators{
		Data:      stages,
		Model:     stages,
		Strategy:  stages,
		Optimizer: stages,
		Executor:  stages,
	}), stages
}

func TestEngineInjectsFailures(t *testing.T) {
	c, stages := wrapped(t, Config{Seed: 1, FailureRate: 1})

	_, err := c.Data.CaptureData(t.Context())
	if err == nil {
		t.Fatal("expected injected failure")
	}
	if !strings.Contains(err.Error(), "chaos: injected capture failure") {
		t.Fatalf("wrong error: %v", err)
	}
	if stages.captures != 0 {
		t.Fatal("inner stage must not run after injection")
	}
}

func TestEngineInjectsPanics(t *testing.T) {
	c, _ := wrapped(t, Config{Seed: 1, PanicRate: 1})

	defer func() {
		r := recover()
		if r == nil {
			t.Fatal("expected injected panic")
		}
		msg, ok := r.(string)
		if !ok || !strings.Contains(msg, "chaos: injected execute panic") {
			t.Fatalf("wrong panic: %v", r)
		}
	}()
	_, _ = c.Executor.ExecuteTrades(t.Context(), nil)
}

func TestEnginePassesThroughWhenQuiet(t *testing.T) {
	c, stages := wrapped(t, Config{Seed: 1})

	for range 10 {
		if _, err := c.Data.CaptureData(t.Context()); err != nil {
			t.Fatalf("capture failed, err: %+v", err)
		}
		if _, err := c.Executor.ExecuteTrades(t.Context(), nil); err != nil {
			t.Fatalf("execute failed, err: %+v", err)
		}
	}
	if stages.captures != 10 || stages.executes != 10 {
		t.Fatalf("inner stages must run, got %d/%d", stages.captures, stages.executes)
	}
}

func TestEngineRespectsStageFilter(t *testing.T) {
	c, stages := wrapped(t, Config{
		Seed:        1,
		FailureRate: 1,
		Stages:      []schema.Stage{schema.StageExecute},
	})

	if _, err := c.Data.CaptureData(t.Context()); err != nil {
		t.Fatalf("filtered stage must pass, err: %+v", err)
	}
	if stages.captures != 1 {
		t.Fatal("inner capture must run")
	}
	if _, err := c.Executor.ExecuteTrades(t.Context(), nil); err == nil {
		t.Fatal("listed stage must fail")
	}
}

func TestEngineDeterministicPerSeed(t *testing.T) {
	run := func(seed int64) []bool {
		c, _ := wrapped(t, Config{Seed: seed, FailureRate: 0.5})
		out := make([]bool, 0, 32)
		for range 32 {
			_, err := c.Data.CaptureData(t.Context())
			out = append(out, err != nil)
		}
		return out
	}

	a := run(42)
	b := run(42)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("same seed diverged at call %d", i)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	cases := []Config{
		{FailureRate: -0.1},
		{FailureRate: 1.1},
		{PanicRate: -0.1},
		{PanicRate: 1.1},
		{MaxDelay: -1},
	}
	for i, cfg := range cases {
		if err := cfg.Validate(); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}
