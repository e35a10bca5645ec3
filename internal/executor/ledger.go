package executor

import (
	"errors"

	"maestro/internal/schema"
)

var (
	ErrDuplicateOrder    = errors.New("order already exists")
	ErrUnknownOrder      = errors.New("order not found")
	ErrInvalidTransition = errors.New("invalid order state transition")
	ErrInvalidFill       = errors.New("invalid fill quantity")
)

// OrderState tracks the lifecycle of a paper order.
type OrderState uint16

const (
	OrderStateUnknown OrderState = iota
	OrderStateNew
	OrderStateFilled
	OrderStateRejected
)

// Order holds the ledger's view of one paper order.
type Order struct {
	ID       uint64
	Key      string
	SymbolID uint32
	Side     schema.OrderSide
	Price    schema.Price
	Qty      schema.Quantity
	Reason   schema.RiskReason
	State    OrderState
}

// Ledger records every paper order the executor produced.
type Ledger struct {
	orders map[uint64]*Order
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{orders: make(map[uint64]*Order)}
}

// Order returns the current order state.
func (l *Ledger) Order(id uint64) (*Order, bool) {
	o, ok := l.orders[id]
	return o, ok
}

// Count returns how many orders the ledger tracks.
func (l *Ledger) Count() int {
	return len(l.orders)
}

// ApplyIntent creates a new order in New state.
func (l *Ledger) ApplyIntent(key string, intent schema.OrderIntent) (*Order, error) {
	if intent.OrderID == 0 {
		return nil, ErrUnknownOrder
	}
	if _, ok := l.orders[intent.OrderID]; ok {
		return nil, ErrDuplicateOrder
	}
	o := &Order{
		ID:       intent.OrderID,
		Key:      key,
		SymbolID: intent.SymbolID,
		Side:     intent.Side,
		Price:    intent.Price,
		Qty:      intent.Qty,
		State:    OrderStateNew,
	}
	l.orders[o.ID] = o
	return o, nil
}

// ApplyReject moves an order to Rejected with the risk reason.
func (l *Ledger) ApplyReject(id uint64, reason schema.RiskReason) (*Order, error) {
	o, ok := l.orders[id]
	if !ok {
		return nil, ErrUnknownOrder
	}
	if isTerminal(o.State) {
		return o, ErrInvalidTransition
	}
	o.State = OrderStateRejected
	o.Reason = reason
	return o, nil
}

// ApplyFill moves an order to Filled.
func (l *Ledger) ApplyFill(fill schema.Fill) (*Order, error) {
	o, ok := l.orders[fill.OrderID]
	if !ok {
		return nil, ErrUnknownOrder
	}
	if isTerminal(o.State) {
		return o, ErrInvalidTransition
	}
	if fill.Qty <= 0 {
		return o, ErrInvalidFill
	}
	o.State = OrderStateFilled
	return o, nil
}

func isTerminal(state OrderState) bool {
	switch state {
	case OrderStateFilled, OrderStateRejected:
		return true
	default:
		return false
	}
}
