package pipeline

import (
	"context"

	"maestro/internal/schema"
	"maestro/pkg/exception"

	"github.com/yanun0323/errors"
)

// MarketSnapshot is the output of the capture stage.
type MarketSnapshot struct {
	CapturedAt int64
	Data       []schema.MarketData
}

// Prediction scores one symbol for the current cycle. Scores and
// confidence are basis points.
type Prediction struct {
	SymbolID      uint32
	ScoreBps      int64
	ConfidenceBps int64
	Mid           schema.Price
}

// PredictionSet is the output of the prediction stage.
type PredictionSet struct {
	GeneratedAt int64
	Predictions []Prediction
}

// Strategy is one candidate trade proposed for the current cycle.
type Strategy struct {
	Key           string
	SymbolID      uint32
	Side          schema.OrderSide
	Price         schema.Price
	Qty           schema.Quantity
	ConfidenceBps int64
}

// ExecutionReport summarizes what the executor did with the cycle's
// strategies.
type ExecutionReport struct {
	ExecutedAt   int64
	Submitted    int
	Filled       int
	Rejected     int
	Notional     schema.Notional
	Fills        []schema.Fill
	FilledKeys   []string
	RejectedKeys []string
}

// DataProcessor captures one market snapshot per cycle.
type DataProcessor interface {
	CaptureData(ctx context.Context) (MarketSnapshot, error)
}

// ModelBuilder turns a snapshot into per-symbol predictions.
type ModelBuilder interface {
	GeneratePredictions(ctx context.Context, snapshot MarketSnapshot) (PredictionSet, error)
}

// StrategyGenerator turns predictions into candidate trades.
type StrategyGenerator interface {
	GenerateStrategies(ctx context.Context, predictions PredictionSet, snapshot MarketSnapshot) ([]Strategy, error)
}

// Optimizer filters and reorders strategies, and learns from
// execution feedback.
type Optimizer interface {
	Optimize(ctx context.Context, strategies []Strategy) ([]Strategy, error)
	UpdateFeedback(ctx context.Context, report ExecutionReport) error
}

// Executor places the cycle's strategies and reports the outcome.
type Executor interface {
	ExecuteTrades(ctx context.Context, strategies []Strategy) (ExecutionReport, error)
}

// Collaborators bundles the five stage implementations for one run.
type Collaborators struct {
	Data      DataProcessor
	Model     ModelBuilder
	Strategy  StrategyGenerator
	Optimizer Optimizer
	Executor  Executor
}

// Validate checks that every stage is present.
func (c Collaborators) Validate() error {
	if c.Data == nil {
		return errors.Wrap(exception.ErrNilCollaborator, "data processor")
	}
	if c.Model == nil {
		return errors.Wrap(exception.ErrNilCollaborator, "model builder")
	}
	if c.Strategy == nil {
		return errors.Wrap(exception.ErrNilCollaborator, "strategy generator")
	}
	if c.Optimizer == nil {
		return errors.Wrap(exception.ErrNilCollaborator, "optimizer")
	}
	if c.Executor == nil {
		return errors.Wrap(exception.ErrNilCollaborator, "executor")
	}
	return nil
}
