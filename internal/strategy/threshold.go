package strategy

import (
	"context"
	"fmt"

	"maestro/internal/pipeline"
	"maestro/internal/schema"
)

// ThresholdConfig controls strategy generation.
type ThresholdConfig struct {
	// EntryThresholdBps is the minimum absolute score that produces
	// a candidate.
	EntryThresholdBps int64 `json:"entryThresholdBps"`

	// MinConfidenceBps filters out low-confidence predictions.
	MinConfidenceBps int64 `json:"minConfidenceBps"`

	// BaseQty is the quantity proposed for every candidate.
	BaseQty schema.Quantity `json:"baseQty"`
}

// Threshold emits one candidate per symbol whose score clears the
// entry threshold. Positive scores buy, negative scores sell.
type Threshold struct {
	cfg ThresholdConfig
	reg *schema.Registry
}

// NewThreshold validates the config and creates the generator.
func NewThreshold(reg *schema.Registry, cfg ThresholdConfig) (*Threshold, error) {
	if reg == nil || reg.SymbolCount() == 0 {
		return nil, fmt.Errorf("registry has no symbols")
	}
	if cfg.EntryThresholdBps <= 0 {
		return nil, fmt.Errorf("entry threshold bps must be > 0")
	}
	if cfg.MinConfidenceBps < 0 {
		return nil, fmt.Errorf("min confidence bps must be >= 0")
	}
	if cfg.BaseQty <= 0 {
		return nil, fmt.Errorf("base qty must be > 0")
	}
	return &Threshold{cfg: cfg, reg: reg}, nil
}

// GenerateStrategies maps qualifying predictions to limit orders at
// the predicted mid.
func (t *Threshold) GenerateStrategies(ctx context.Context, predictions pipeline.PredictionSet, snapshot pipeline.MarketSnapshot) ([]pipeline.Strategy, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make([]pipeline.Strategy, 0, len(predictions.Predictions))
	for _, p := range predictions.Predictions {
		if p.Mid <= 0 {
			continue
		}
		if p.ConfidenceBps < t.cfg.MinConfidenceBps {
			continue
		}
		score := p.ScoreBps
		if score < 0 {
			score = -score
		}
		if score < t.cfg.EntryThresholdBps {
			continue
		}

		side := schema.OrderSideBuy
		if p.ScoreBps < 0 {
			side = schema.OrderSideSell
		}
		out = append(out, pipeline.Strategy{
			Key:           t.key(p.SymbolID, side),
			SymbolID:      p.SymbolID,
			Side:          side,
			Price:         p.Mid,
			Qty:           t.cfg.BaseQty,
			ConfidenceBps: p.ConfidenceBps,
		})
	}
	return out, nil
}

func (t *Threshold) key(symbolID uint32, side schema.OrderSide) string {
	if symbol, ok := t.reg.Symbol(schema.SymbolID(symbolID)); ok {
		return symbol.Name + ":" + side.String()
	}
	return fmt.Sprintf("%d:%s", symbolID, side)
}
