package strategy

import (
	"testing"

	"maestro/internal/pipeline"
	"maestro/internal/schema"
)

func testRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	reg := schema.NewRegistry()
	for _, name := range []string{"BTC-USDT", "ETH-USDT"} {
		if _, err := reg.AddSymbol(name, schema.ScaleSpec{PriceScale: 2, QuantityScale: 6}); err != nil {
			t.Fatalf("add symbol failed, err: %+v", err)
		}
	}
	return reg
}

func TestThresholdSideAndKey(t *testing.T) {
	gen, err := NewThreshold(testRegistry(t), ThresholdConfig{
		EntryThresholdBps: 10,
		MinConfidenceBps:  5000,
		BaseQty:           250,
	})
	if err != nil {
		t.Fatalf("new threshold failed, err: %+v", err)
	}

	predictions := pipeline.PredictionSet{Predictions: []pipeline.Prediction{
		{SymbolID: 1, ScoreBps: 25, ConfidenceBps: 8000, Mid: 4200000},
		{SymbolID: 2, ScoreBps: -40, ConfidenceBps: 9000, Mid: 310000},
	}}

	out, err := gen.GenerateStrategies(t.Context(), predictions, pipeline.MarketSnapshot{})
	if err != nil {
		t.Fatalf("generate failed, err: %+v", err)
	}
	if len(out) != 2 {
		t.Fatalf("expected 2 strategies, got %d", len(out))
	}

	if out[0].Side != schema.OrderSideBuy || out[0].Key != "BTC-USDT:buy" {
		t.Fatalf("positive score must buy, got side=%s key=%s", out[0].Side, out[0].Key)
	}
	if out[1].Side != schema.OrderSideSell || out[1].Key != "ETH-USDT:sell" {
		t.Fatalf("negative score must sell, got side=%s key=%s", out[1].Side, out[1].Key)
	}
	if out[0].Price != 4200000 || out[0].Qty != 250 {
		t.Fatalf("price/qty mismatch: %d/%d", out[0].Price, out[0].Qty)
	}
}

func TestThresholdFilters(t *testing.T) {
	gen, err := NewThreshold(testRegistry(t), ThresholdConfig{
		EntryThresholdBps: 30,
		MinConfidenceBps:  6000,
		BaseQty:           100,
	})
	if err != nil {
		t.Fatalf("new threshold failed, err: %+v", err)
	}

	predictions := pipeline.PredictionSet{Predictions: []pipeline.Prediction{
		{SymbolID: 1, ScoreBps: 29, ConfidenceBps: 9000, Mid: 100},  // below threshold
		{SymbolID: 1, ScoreBps: 80, ConfidenceBps: 5000, Mid: 100},  // low confidence
		{SymbolID: 2, ScoreBps: -35, ConfidenceBps: 7000, Mid: 0},   // no mid
		{SymbolID: 2, ScoreBps: -35, ConfidenceBps: 7000, Mid: 200}, // qualifies
	}}

	out, err := gen.GenerateStrategies(t.Context(), predictions, pipeline.MarketSnapshot{})
	if err != nil {
		t.Fatalf("generate failed, err: %+v", err)
	}
	if len(out) != 1 {
		t.Fatalf("expected 1 strategy, got %d", len(out))
	}
	if out[0].SymbolID != 2 || out[0].Side != schema.OrderSideSell {
		t.Fatalf("wrong survivor: %+v", out[0])
	}
}

func TestThresholdConfigValidation(t *testing.T) {
	reg := testRegistry(t)
	cases := []ThresholdConfig{
		{EntryThresholdBps: 0, BaseQty: 1},
		{EntryThresholdBps: 10, BaseQty: 0},
		{EntryThresholdBps: 10, MinConfidenceBps: -1, BaseQty: 1},
	}
	for i, cfg := range cases {
		if _, err := NewThreshold(reg, cfg); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
	if _, err := NewThreshold(nil, ThresholdConfig{EntryThresholdBps: 10, BaseQty: 1}); err == nil {
		t.Fatal("nil registry must fail")
	}
}
