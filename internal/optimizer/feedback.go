package optimizer

import (
	"context"
	"fmt"
	"sort"

	"maestro/internal/pipeline"
)

// FeedbackConfig controls strategy ranking and weight learning.
type FeedbackConfig struct {
	// MaxActive caps how many strategies survive a cycle.
	MaxActive int `json:"maxActive"`

	// InitialWeightBps is the weight assigned to an unseen key.
	InitialWeightBps int64 `json:"initialWeightBps"`

	// StepBps is how far one fill or rejection moves a weight.
	StepBps int64 `json:"stepBps"`

	// MinWeightBps and MaxWeightBps bound the learned weights.
	MinWeightBps int64 `json:"minWeightBps"`
	MaxWeightBps int64 `json:"maxWeightBps"`
}

// Feedback ranks strategies by learned per-key weights and adjusts
// the weights from execution reports.
type Feedback struct {
	cfg     FeedbackConfig
	weights map[string]int64
}

// NewFeedback validates the config and creates the optimizer.
func NewFeedback(cfg FeedbackConfig) (*Feedback, error) {
	if cfg.MaxActive <= 0 {
		return nil, fmt.Errorf("max active must be > 0")
	}
	if cfg.InitialWeightBps <= 0 {
		return nil, fmt.Errorf("initial weight bps must be > 0")
	}
	if cfg.StepBps <= 0 {
		return nil, fmt.Errorf("step bps must be > 0")
	}
	if cfg.MinWeightBps < 0 || cfg.MaxWeightBps <= cfg.MinWeightBps {
		return nil, fmt.Errorf("weight bounds must satisfy 0 <= min < max")
	}
	if cfg.InitialWeightBps < cfg.MinWeightBps || cfg.InitialWeightBps > cfg.MaxWeightBps {
		return nil, fmt.Errorf("initial weight bps must be within bounds")
	}
	return &Feedback{
		cfg:     cfg,
		weights: make(map[string]int64),
	}, nil
}

// Optimize sorts candidates by weight x confidence and keeps the top
// MaxActive. Ties break on key so the order is stable across runs.
func (f *Feedback) Optimize(ctx context.Context, strategies []pipeline.Strategy) ([]pipeline.Strategy, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(strategies) == 0 {
		return nil, nil
	}

	out := make([]pipeline.Strategy, len(strategies))
	copy(out, strategies)
	sort.SliceStable(out, func(i, j int) bool {
		si := f.score(out[i])
		sj := f.score(out[j])
		if si != sj {
			return si > sj
		}
		return out[i].Key < out[j].Key
	})
	if len(out) > f.cfg.MaxActive {
		out = out[:f.cfg.MaxActive]
	}
	return out, nil
}

// UpdateFeedback nudges weights up for filled keys and down for
// rejected keys, clamped to the configured bounds.
func (f *Feedback) UpdateFeedback(ctx context.Context, report pipeline.ExecutionReport) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, key := range report.FilledKeys {
		f.adjust(key, f.cfg.StepBps)
	}
	for _, key := range report.RejectedKeys {
		f.adjust(key, -f.cfg.StepBps)
	}
	return nil
}

// Weight returns the current weight for a key.
func (f *Feedback) Weight(key string) int64 {
	if w, ok := f.weights[key]; ok {
		return w
	}
	return f.cfg.InitialWeightBps
}

func (f *Feedback) score(s pipeline.Strategy) int64 {
	return f.Weight(s.Key) * s.ConfidenceBps
}

func (f *Feedback) adjust(key string, delta int64) {
	w := f.Weight(key) + delta
	if w < f.cfg.MinWeightBps {
		w = f.cfg.MinWeightBps
	}
	if w > f.cfg.MaxWeightBps {
		w = f.cfg.MaxWeightBps
	}
	f.weights[key] = w
}
