package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"maestro/internal/pipeline"
	"maestro/internal/schema"

	"github.com/yanun0323/decimal"
	"github.com/yanun0323/errors"
)

const maxInt64 = int64(^uint64(0) >> 1)

// FixtureTick is one quote row in a fixture file. Prices are decimal
// strings normalized to the symbol's scale at load time.
type FixtureTick struct {
	Symbol string          `json:"symbol"`
	Last   decimal.Decimal `json:"last"`
	Bid    decimal.Decimal `json:"bid"`
	Ask    decimal.Decimal `json:"ask"`
	Size   decimal.Decimal `json:"size"`
}

type fixtureFile struct {
	Batches [][]FixtureTick `json:"batches"`
}

// Fixture replays quote batches from a JSON file, one batch per
// cycle, wrapping around at the end.
type Fixture struct {
	batches [][]schema.MarketData
	index   int
}

// NewFixture loads and normalizes a fixture file.
func NewFixture(reg *schema.Registry, path string) (*Fixture, error) {
	if reg == nil || reg.SymbolCount() == 0 {
		return nil, fmt.Errorf("registry has no symbols")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var file fixtureFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, errors.Wrap(err, "unmarshal fixture").With("path", path)
	}
	if len(file.Batches) == 0 {
		return nil, fmt.Errorf("fixture has no batches: %s", path)
	}

	batches := make([][]schema.MarketData, 0, len(file.Batches))
	for bi, ticks := range file.Batches {
		batch := make([]schema.MarketData, 0, len(ticks))
		for ti, tick := range ticks {
			md, err := normalizeTick(reg, tick)
			if err != nil {
				return nil, errors.Wrapf(err, "batch: %d, tick: %d", bi, ti)
			}
			batch = append(batch, md)
		}
		batches = append(batches, batch)
	}
	return &Fixture{batches: batches}, nil
}

// CaptureData returns the next batch in file order.
func (f *Fixture) CaptureData(ctx context.Context) (pipeline.MarketSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return pipeline.MarketSnapshot{}, err
	}

	batch := f.batches[f.index]
	f.index = (f.index + 1) % len(f.batches)

	data := make([]schema.MarketData, len(batch))
	copy(data, batch)
	return pipeline.MarketSnapshot{
		CapturedAt: time.Now().UTC().UnixNano(),
		Data:       data,
	}, nil
}

// BatchCount returns how many batches the fixture holds.
func (f *Fixture) BatchCount() int {
	return len(f.batches)
}

func normalizeTick(reg *schema.Registry, tick FixtureTick) (schema.MarketData, error) {
	id, ok := reg.SymbolIDByName(tick.Symbol)
	if !ok {
		return schema.MarketData{}, fmt.Errorf("symbol not found: %s", tick.Symbol)
	}
	symbol, _ := reg.Symbol(id)

	last, err := parseScaled(tick.Last.String(), symbol.Scale.PriceScale)
	if err != nil {
		return schema.MarketData{}, errors.Wrap(err, "parse last")
	}
	bid, err := parseOptScaled(tick.Bid.String(), symbol.Scale.PriceScale)
	if err != nil {
		return schema.MarketData{}, errors.Wrap(err, "parse bid")
	}
	ask, err := parseOptScaled(tick.Ask.String(), symbol.Scale.PriceScale)
	if err != nil {
		return schema.MarketData{}, errors.Wrap(err, "parse ask")
	}
	size, err := parseScaled(tick.Size.String(), symbol.Scale.QuantityScale)
	if err != nil {
		return schema.MarketData{}, errors.Wrap(err, "parse size")
	}

	return schema.MarketData{
		SymbolID: uint32(id),
		Kind:     schema.MarketDataQuote,
		Price:    schema.Price(last),
		Size:     schema.Quantity(size),
		BidPrice: schema.Price(bid),
		BidSize:  schema.Quantity(size),
		AskPrice: schema.Price(ask),
		AskSize:  schema.Quantity(size),
	}, nil
}

func parseOptScaled(src string, scale schema.Scale) (int64, error) {
	if src == "" {
		return 0, nil
	}
	return parseScaled(src, scale)
}

func parseScaled(src string, scale schema.Scale) (int64, error) {
	if src == "" {
		return 0, fmt.Errorf("empty number")
	}
	neg := false
	i := 0
	if src[0] == '-' {
		neg = true
		i++
	}

	var value int64
	fracDigits := schema.Scale(0)
	seenDot := false
	seenDigit := false
	for ; i < len(src); i++ {
		c := src[i]
		if c == '.' {
			if seenDot {
				return 0, fmt.Errorf("invalid number: %s", src)
			}
			seenDot = true
			continue
		}
		if c < '0' || c > '9' {
			return 0, fmt.Errorf("invalid number: %s", src)
		}
		seenDigit = true
		if seenDot {
			// Extra precision beyond the symbol's scale is dropped.
			if fracDigits >= scale {
				continue
			}
			fracDigits++
		}
		digit := int64(c - '0')
		if value > (maxInt64-digit)/10 {
			return 0, fmt.Errorf("number overflow: %s", src)
		}
		value = value*10 + digit
	}
	if !seenDigit {
		return 0, fmt.Errorf("invalid number: %s", src)
	}

	for ; fracDigits < scale; fracDigits++ {
		if value > maxInt64/10 {
			return 0, fmt.Errorf("number overflow: %s", src)
		}
		value *= 10
	}
	if neg {
		value = -value
	}
	return value, nil
}
