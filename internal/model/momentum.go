package model

import (
	"context"
	"fmt"

	"maestro/internal/pipeline"
)

// MomentumConfig controls prediction scoring.
type MomentumConfig struct {
	// ConfidenceBps is the confidence assigned once a symbol has
	// price history. Symbols seen for the first time score zero.
	ConfidenceBps int64
}

// Momentum scores each symbol by its mid-price move since the
// previous snapshot, in basis points.
type Momentum struct {
	cfg     MomentumConfig
	lastMid map[uint32]int64
}

// NewMomentum validates the config and creates the model.
func NewMomentum(cfg MomentumConfig) (*Momentum, error) {
	if cfg.ConfidenceBps <= 0 || cfg.ConfidenceBps > 10000 {
		return nil, fmt.Errorf("confidence bps must be in (0, 10000]")
	}
	return &Momentum{
		cfg:     cfg,
		lastMid: make(map[uint32]int64),
	}, nil
}

// GeneratePredictions scores every symbol in the snapshot.
func (m *Momentum) GeneratePredictions(ctx context.Context, snapshot pipeline.MarketSnapshot) (pipeline.PredictionSet, error) {
	if err := ctx.Err(); err != nil {
		return pipeline.PredictionSet{}, err
	}

	predictions := make([]pipeline.Prediction, 0, len(snapshot.Data))
	for _, md := range snapshot.Data {
		mid := int64(md.Mid())
		if mid <= 0 {
			continue
		}

		var score, confidence int64
		if prev, ok := m.lastMid[md.SymbolID]; ok && prev > 0 {
			score = (mid - prev) * 10000 / prev
			confidence = m.cfg.ConfidenceBps
		}
		m.lastMid[md.SymbolID] = mid

		predictions = append(predictions, pipeline.Prediction{
			SymbolID:      md.SymbolID,
			ScoreBps:      score,
			ConfidenceBps: confidence,
			Mid:           md.Mid(),
		})
	}

	return pipeline.PredictionSet{
		GeneratedAt: snapshot.CapturedAt,
		Predictions: predictions,
	}, nil
}
