package executor

import (
	"testing"

	"maestro/internal/pipeline"
	"maestro/internal/risk"
	"maestro/internal/schema"
)

func permissiveRisk() risk.Config {
	return risk.Config{
		MaxOrderQty:      1_000_000,
		MaxOrderNotional: schema.Notional(1 << 60),
		MaxPosition:      10_000_000,
	}
}

func TestPaperFillsAllowedOrders(t *testing.T) {
	p, err := NewPaper(PaperConfig{FeeBps: 10}, permissiveRisk())
	if err != nil {
		t.Fatalf("new paper failed, err: %+v", err)
	}

	report, err := p.ExecuteTrades(t.Context(), []pipeline.Strategy{
		{Key: "BTC-USDT:buy", SymbolID: 1, Side: schema.OrderSideBuy, Price: 4_200_000, Qty: 100},
		{Key: "ETH-USDT:sell", SymbolID: 2, Side: schema.OrderSideSell, Price: 310_000, Qty: 50},
	})
	if err != nil {
		t.Fatalf("execute failed, err: %+v", err)
	}

	if report.Submitted != 2 || report.Filled != 2 || report.Rejected != 0 {
		t.Fatalf("unexpected report: %+v", report)
	}
	wantNotional := schema.Notional(4_200_000*100 + 310_000*50)
	if report.Notional != wantNotional {
		t.Fatalf("expected notional %d, got %d", wantNotional, report.Notional)
	}
	if len(report.Fills) != 2 || len(report.FilledKeys) != 2 {
		t.Fatalf("expected 2 fills, got %d fills %d keys", len(report.Fills), len(report.FilledKeys))
	}
	if report.Fills[0].Fee != schema.Fee(4_200_000*100/10000*10) {
		t.Fatalf("wrong fee: %d", report.Fills[0].Fee)
	}
	if pos := p.Positions().Position(1); pos != 100 {
		t.Fatalf("expected position 100, got %d", pos)
	}
	if pos := p.Positions().Position(2); pos != -50 {
		t.Fatalf("expected position -50, got %d", pos)
	}
}

func TestPaperRejectsDeniedOrders(t *testing.T) {
	cfg := permissiveRisk()
	cfg.MaxOrderQty = 10
	p, err := NewPaper(PaperConfig{}, cfg)
	if err != nil {
		t.Fatalf("new paper failed, err: %+v", err)
	}

	report, err := p.ExecuteTrades(t.Context(), []pipeline.Strategy{
		{Key: "BTC-USDT:buy", SymbolID: 1, Side: schema.OrderSideBuy, Price: 100, Qty: 1000},
		{Key: "ETH-USDT:buy", SymbolID: 2, Side: schema.OrderSideBuy, Price: 100, Qty: 5},
	})
	if err != nil {
		t.Fatalf("execute failed, err: %+v", err)
	}

	if report.Submitted != 2 || report.Filled != 1 || report.Rejected != 1 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if len(report.RejectedKeys) != 1 || report.RejectedKeys[0] != "BTC-USDT:buy" {
		t.Fatalf("wrong rejected keys: %v", report.RejectedKeys)
	}
	if pos := p.Positions().Position(1); pos != 0 {
		t.Fatalf("rejected order must not move position, got %d", pos)
	}
}

func TestPaperOrderIDsAreSequential(t *testing.T) {
	p, err := NewPaper(PaperConfig{FirstOrderID: 500}, permissiveRisk())
	if err != nil {
		t.Fatalf("new paper failed, err: %+v", err)
	}

	report, err := p.ExecuteTrades(t.Context(), []pipeline.Strategy{
		{Key: "a", SymbolID: 1, Side: schema.OrderSideBuy, Price: 10, Qty: 1},
		{Key: "b", SymbolID: 1, Side: schema.OrderSideBuy, Price: 10, Qty: 1},
	})
	if err != nil {
		t.Fatalf("execute failed, err: %+v", err)
	}
	if report.Fills[0].OrderID != 500 || report.Fills[1].OrderID != 501 {
		t.Fatalf("expected sequential IDs from 500, got %d %d", report.Fills[0].OrderID, report.Fills[1].OrderID)
	}
	if p.Ledger().Count() != 2 {
		t.Fatalf("expected 2 ledger entries, got %d", p.Ledger().Count())
	}
}

func TestLedgerLifecycle(t *testing.T) {
	l := NewLedger()

	intent := schema.OrderIntent{OrderID: 7, SymbolID: 1, Side: schema.OrderSideBuy, Price: 100, Qty: 10}
	o, err := l.ApplyIntent("k", intent)
	if err != nil {
		t.Fatalf("apply intent failed, err: %+v", err)
	}
	if o.State != OrderStateNew {
		t.Fatalf("expected New, got %d", o.State)
	}

	if _, err := l.ApplyIntent("k", intent); err != ErrDuplicateOrder {
		t.Fatalf("expected ErrDuplicateOrder, got %v", err)
	}
	if _, err := l.ApplyFill(schema.Fill{OrderID: 99, Qty: 1}); err != ErrUnknownOrder {
		t.Fatalf("expected ErrUnknownOrder, got %v", err)
	}
	if _, err := l.ApplyFill(schema.Fill{OrderID: 7, Qty: 0}); err != ErrInvalidFill {
		t.Fatalf("expected ErrInvalidFill, got %v", err)
	}

	o, err = l.ApplyFill(schema.Fill{OrderID: 7, Qty: 10})
	if err != nil {
		t.Fatalf("apply fill failed, err: %+v", err)
	}
	if o.State != OrderStateFilled {
		t.Fatalf("expected Filled, got %d", o.State)
	}

	// terminal orders stay terminal
	if _, err := l.ApplyReject(7, schema.RiskReasonMaxQty); err != ErrInvalidTransition {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if _, err := l.ApplyFill(schema.Fill{OrderID: 7, Qty: 10}); err != ErrInvalidTransition {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
}

func TestLedgerReject(t *testing.T) {
	l := NewLedger()
	if _, err := l.ApplyIntent("k", schema.OrderIntent{OrderID: 1, Qty: 1}); err != nil {
		t.Fatalf("apply intent failed, err: %+v", err)
	}
	o, err := l.ApplyReject(1, schema.RiskReasonKillSwitch)
	if err != nil {
		t.Fatalf("apply reject failed, err: %+v", err)
	}
	if o.State != OrderStateRejected || o.Reason != schema.RiskReasonKillSwitch {
		t.Fatalf("unexpected order: %+v", o)
	}
}

func TestPositionsNetting(t *testing.T) {
	p := NewPositions()

	if next := p.ApplyFill(schema.Fill{SymbolID: 1, Side: schema.OrderSideBuy, Qty: 100}); next != 100 {
		t.Fatalf("expected 100, got %d", next)
	}
	if next := p.ApplyFill(schema.Fill{SymbolID: 1, Side: schema.OrderSideSell, Qty: 150}); next != -50 {
		t.Fatalf("expected -50, got %d", next)
	}
	if p.Count() != 1 {
		t.Fatalf("expected 1 symbol, got %d", p.Count())
	}
	if pos := p.Position(2); pos != 0 {
		t.Fatalf("unknown symbol must be flat, got %d", pos)
	}
}
