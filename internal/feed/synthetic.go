package feed

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"maestro/internal/pipeline"
	"maestro/internal/schema"
)

// SyntheticConfig controls the generated random walk.
type SyntheticConfig struct {
	BasePrice int64
	BaseSize  int64
	Spread    int64
	DriftBps  int64
	Seed      int64
}

// Synthetic generates a deterministic random walk over the registry's
// symbols. Same seed, same sequence.
type Synthetic struct {
	cfg     SyntheticConfig
	symbols []schema.Symbol
	rng     *rand.Rand
	last    map[uint32]int64
}

// NewSynthetic validates the config and seeds the walk.
func NewSynthetic(reg *schema.Registry, cfg SyntheticConfig) (*Synthetic, error) {
	if reg == nil || reg.SymbolCount() == 0 {
		return nil, fmt.Errorf("registry has no symbols")
	}
	if cfg.BasePrice <= 0 {
		return nil, fmt.Errorf("base price must be > 0")
	}
	if cfg.BaseSize <= 0 {
		return nil, fmt.Errorf("base size must be > 0")
	}
	if cfg.Spread < 0 {
		return nil, fmt.Errorf("spread must be >= 0")
	}
	if cfg.DriftBps < 0 {
		return nil, fmt.Errorf("drift bps must be >= 0")
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UTC().UnixNano()
	}
	return &Synthetic{
		cfg:     cfg,
		symbols: reg.Symbols(),
		rng:     rand.New(rand.NewSource(seed)),
		last:    make(map[uint32]int64, reg.SymbolCount()),
	}, nil
}

// CaptureData emits one quote per symbol, stepping each price by the
// configured drift in a random direction.
func (s *Synthetic) CaptureData(ctx context.Context) (pipeline.MarketSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return pipeline.MarketSnapshot{}, err
	}

	now := time.Now().UTC().UnixNano()
	data := make([]schema.MarketData, 0, len(s.symbols))
	for _, symbol := range s.symbols {
		id := uint32(symbol.ID)
		prev, ok := s.last[id]
		if !ok {
			prev = s.cfg.BasePrice
		}
		price := s.step(prev)
		s.last[id] = price

		data = append(data, schema.MarketData{
			SymbolID: id,
			Kind:     schema.MarketDataQuote,
			Price:    schema.Price(price),
			Size:     schema.Quantity(s.cfg.BaseSize),
			BidPrice: schema.Price(price - s.cfg.Spread),
			BidSize:  schema.Quantity(s.cfg.BaseSize),
			AskPrice: schema.Price(price + s.cfg.Spread),
			AskSize:  schema.Quantity(s.cfg.BaseSize),
		})
	}
	return pipeline.MarketSnapshot{CapturedAt: now, Data: data}, nil
}

func (s *Synthetic) step(prev int64) int64 {
	if s.cfg.DriftBps == 0 {
		return prev
	}
	delta := prev * s.cfg.DriftBps / 10000
	if delta == 0 {
		delta = 1
	}
	if s.rng.Intn(2) == 0 {
		delta = -delta
	}
	next := prev + delta
	if next <= s.cfg.Spread {
		return prev
	}
	return next
}
