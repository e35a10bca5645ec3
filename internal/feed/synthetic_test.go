package feed

import (
	"testing"

	"maestro/internal/schema"
)

func testRegistry(t *testing.T, names ...string) *schema.Registry {
	t.Helper()
	reg := schema.NewRegistry()
	for _, name := range names {
		if _, err := reg.AddSymbol(name, schema.ScaleSpec{
			PriceScale:    2,
			QuantityScale: 6,
			NotionalScale: 8,
			FeeScale:      8,
		}); err != nil {
			t.Fatalf("add symbol failed, err: %+v", err)
		}
	}
	return reg
}

func TestSyntheticDeterministic(t *testing.T) {
	cfg := SyntheticConfig{BasePrice: 4200000, BaseSize: 250000, Spread: 50, DriftBps: 10, Seed: 42}

	reg := testRegistry(t, "BTC-USDT", "ETH-USDT")
	a, err := NewSynthetic(reg, cfg)
	if err != nil {
		t.Fatalf("new synthetic failed, err: %+v", err)
	}
	b, err := NewSynthetic(testRegistry(t, "BTC-USDT", "ETH-USDT"), cfg)
	if err != nil {
		t.Fatalf("new synthetic failed, err: %+v", err)
	}

	for cycle := 0; cycle < 5; cycle++ {
		snapA, err := a.CaptureData(t.Context())
		if err != nil {
			t.Fatalf("capture failed, err: %+v", err)
		}
		snapB, err := b.CaptureData(t.Context())
		if err != nil {
			t.Fatalf("capture failed, err: %+v", err)
		}
		if len(snapA.Data) != len(snapB.Data) {
			t.Fatalf("cycle %d length mismatch: %d vs %d", cycle, len(snapA.Data), len(snapB.Data))
		}
		for i := range snapA.Data {
			if snapA.Data[i].Price != snapB.Data[i].Price {
				t.Fatalf("cycle %d price diverged! %d vs %d", cycle, snapA.Data[i].Price, snapB.Data[i].Price)
			}
		}
	}
}

func TestSyntheticCoversRegistry(t *testing.T) {
	reg := testRegistry(t, "BTC-USDT", "ETH-USDT", "SOL-USDT")
	s, err := NewSynthetic(reg, SyntheticConfig{BasePrice: 10000, BaseSize: 100, Spread: 5, DriftBps: 10, Seed: 1})
	if err != nil {
		t.Fatalf("new synthetic failed, err: %+v", err)
	}

	snap, err := s.CaptureData(t.Context())
	if err != nil {
		t.Fatalf("capture failed, err: %+v", err)
	}
	if len(snap.Data) != 3 {
		t.Fatalf("snapshot size mismatch! should be 3 but got %d", len(snap.Data))
	}

	seen := make(map[uint32]bool)
	for _, md := range snap.Data {
		seen[md.SymbolID] = true
		if md.BidPrice != md.Price-5 || md.AskPrice != md.Price+5 {
			t.Fatalf("spread mismatch: %+v", md)
		}
		if md.Price <= 0 {
			t.Fatalf("price must stay positive: %+v", md)
		}
	}
	if len(seen) != 3 {
		t.Fatalf("snapshot should cover every symbol, got %d", len(seen))
	}
}

func TestSyntheticValidation(t *testing.T) {
	reg := testRegistry(t, "BTC-USDT")
	testCases := []struct {
		desc string
		reg  *schema.Registry
		cfg  SyntheticConfig
	}{
		{desc: "nil registry", reg: nil, cfg: SyntheticConfig{BasePrice: 1, BaseSize: 1}},
		{desc: "empty registry", reg: schema.NewRegistry(), cfg: SyntheticConfig{BasePrice: 1, BaseSize: 1}},
		{desc: "zero base price", reg: reg, cfg: SyntheticConfig{BaseSize: 1}},
		{desc: "zero base size", reg: reg, cfg: SyntheticConfig{BasePrice: 1}},
		{desc: "negative spread", reg: reg, cfg: SyntheticConfig{BasePrice: 1, BaseSize: 1, Spread: -1}},
		{desc: "negative drift", reg: reg, cfg: SyntheticConfig{BasePrice: 1, BaseSize: 1, DriftBps: -1}},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			if _, err := NewSynthetic(tc.reg, tc.cfg); err == nil {
				t.Fatalf("config should be rejected")
			}
		})
	}
}
