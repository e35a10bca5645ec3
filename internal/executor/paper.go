package executor

import (
	"context"
	"fmt"
	"time"

	"maestro/internal/pipeline"
	"maestro/internal/risk"
	"maestro/internal/schema"

	"github.com/yanun0323/logs"
)

// PaperConfig controls the simulated executor.
type PaperConfig struct {
	// FirstOrderID seeds the order ID sequence.
	FirstOrderID uint64 `json:"firstOrderId"`

	// FeeBps is the simulated fee charged on each fill's notional.
	FeeBps int64 `json:"feeBps"`
}

// Paper fills allowed orders immediately at their limit price. Orders
// the risk engine denies are rejected, never partially worked.
type Paper struct {
	cfg       PaperConfig
	engine    *risk.Engine
	ledger    *Ledger
	positions *Positions
	nextID    uint64
}

// NewPaper validates the config and creates the executor.
func NewPaper(cfg PaperConfig, riskCfg risk.Config) (*Paper, error) {
	if cfg.FeeBps < 0 {
		return nil, fmt.Errorf("fee bps must be >= 0")
	}
	firstID := cfg.FirstOrderID
	if firstID == 0 {
		firstID = 1001
	}
	return &Paper{
		cfg:       cfg,
		engine:    risk.NewEngine(riskCfg),
		ledger:    NewLedger(),
		positions: NewPositions(),
		nextID:    firstID,
	}, nil
}

// ExecuteTrades runs every strategy through risk, fills the allowed
// ones at their limit price and reports the consolidated outcome.
func (p *Paper) ExecuteTrades(ctx context.Context, strategies []pipeline.Strategy) (pipeline.ExecutionReport, error) {
	if err := ctx.Err(); err != nil {
		return pipeline.ExecutionReport{}, err
	}

	now := time.Now().UTC().UnixNano()
	report := pipeline.ExecutionReport{ExecutedAt: now}

	for _, s := range strategies {
		intent := schema.OrderIntent{
			OrderID:  p.nextID,
			SymbolID: s.SymbolID,
			Side:     s.Side,
			Price:    s.Price,
			Qty:      s.Qty,
		}
		p.nextID++

		if _, err := p.ledger.ApplyIntent(s.Key, intent); err != nil {
			return pipeline.ExecutionReport{}, err
		}
		report.Submitted++

		decision := p.engine.Evaluate(intent, risk.StateView{
			Position:       p.positions.Position(intent.SymbolID),
			ReferencePrice: intent.Price,
			Now:            now,
		})
		if decision.Action != schema.RiskActionAllow {
			if _, err := p.ledger.ApplyReject(intent.OrderID, decision.Reason); err != nil {
				return pipeline.ExecutionReport{}, err
			}
			logs.Warnf("order rejected, key: %s, reason: %d", s.Key, decision.Reason)
			report.Rejected++
			report.RejectedKeys = append(report.RejectedKeys, s.Key)
			continue
		}

		fill := schema.Fill{
			OrderID:  intent.OrderID,
			SymbolID: intent.SymbolID,
			Side:     intent.Side,
			Price:    intent.Price,
			Qty:      intent.Qty,
			Fee:      p.fee(intent.Price, intent.Qty),
		}
		if _, err := p.ledger.ApplyFill(fill); err != nil {
			return pipeline.ExecutionReport{}, err
		}
		p.positions.ApplyFill(fill)

		report.Filled++
		report.Notional += schema.Notional(int64(fill.Price) * int64(fill.Qty))
		report.Fills = append(report.Fills, fill)
		report.FilledKeys = append(report.FilledKeys, s.Key)
	}

	return report, nil
}

// Ledger exposes the order ledger for tools and tests.
func (p *Paper) Ledger() *Ledger {
	return p.ledger
}

// Positions exposes the position reducer for tools and tests.
func (p *Paper) Positions() *Positions {
	return p.positions
}

func (p *Paper) fee(price schema.Price, qty schema.Quantity) schema.Fee {
	if p.cfg.FeeBps <= 0 {
		return 0
	}
	return schema.Fee(int64(price) * int64(qty) / 10000 * p.cfg.FeeBps)
}
