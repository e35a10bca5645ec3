package executor

import "maestro/internal/schema"

// Positions reduces fills into per-symbol net quantities.
type Positions struct {
	positions map[uint32]schema.Quantity
}

// NewPositions creates an empty reducer.
func NewPositions() *Positions {
	return &Positions{positions: make(map[uint32]schema.Quantity)}
}

// ApplyFill updates the position and returns the new quantity.
func (p *Positions) ApplyFill(fill schema.Fill) schema.Quantity {
	current := p.positions[fill.SymbolID]
	var next schema.Quantity
	switch fill.Side {
	case schema.OrderSideBuy:
		next = schema.Quantity(int64(current) + int64(fill.Qty))
	case schema.OrderSideSell:
		next = schema.Quantity(int64(current) - int64(fill.Qty))
	default:
		next = current
	}
	p.positions[fill.SymbolID] = next
	return next
}

// Position returns the current net quantity for a symbol.
func (p *Positions) Position(symbolID uint32) schema.Quantity {
	return p.positions[symbolID]
}

// Count returns the number of tracked symbols.
func (p *Positions) Count() int {
	return len(p.positions)
}
