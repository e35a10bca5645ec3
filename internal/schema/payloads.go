package schema

// Price is a scaled integer. The scale is defined by configuration.
type Price int64

// Quantity is a scaled integer. The scale is defined by configuration.
type Quantity int64

// Notional is a scaled integer. The scale is defined by configuration.
type Notional int64

// Fee is a scaled integer. The scale is defined by configuration.
type Fee int64

// MarketDataKind describes the meaning of a market observation.
type MarketDataKind uint16

const (
	MarketDataUnknown MarketDataKind = iota
	MarketDataTrade
	MarketDataQuote
)

// MarketData is one normalized market observation captured by the feed.
type MarketData struct {
	SymbolID uint32
	Kind     MarketDataKind
	Flags    uint16
	Price    Price
	Size     Quantity
	BidPrice Price
	BidSize  Quantity
	AskPrice Price
	AskSize  Quantity
}

// Mid returns the quote midpoint, falling back to the last price when
// either side is missing.
func (m MarketData) Mid() Price {
	if m.BidPrice > 0 && m.AskPrice > 0 {
		return (m.BidPrice + m.AskPrice) / 2
	}
	return m.Price
}

// OrderSide describes order direction.
type OrderSide uint16

const (
	OrderSideUnknown OrderSide = iota
	OrderSideBuy
	OrderSideSell
)

// String returns the side name used in strategy keys and logs.
func (s OrderSide) String() string {
	switch s {
	case OrderSideBuy:
		return "buy"
	case OrderSideSell:
		return "sell"
	default:
		return "unknown"
	}
}

// OrderIntent is a request to place a paper order.
type OrderIntent struct {
	OrderID  uint64
	SymbolID uint32
	Side     OrderSide
	Flags    uint16
	Price    Price
	Qty      Quantity
}

// RiskAction is the outcome of a risk decision.
type RiskAction uint16

const (
	RiskActionUnknown RiskAction = iota
	RiskActionAllow
	RiskActionDeny
)

// RiskReason is a coarse reason code for risk decisions.
type RiskReason uint16

const (
	RiskReasonNone RiskReason = iota
	RiskReasonKillSwitch
	RiskReasonMaxQty
	RiskReasonMaxNotional
	RiskReasonRateLimit
	RiskReasonPriceBand
	RiskReasonPositionLimit
)

// RiskDecision is the outcome of pre-trade checks for one intent.
type RiskDecision struct {
	OrderID       uint64
	SymbolID      uint32
	Action        RiskAction
	Reason        RiskReason
	Flags         uint16
	Reserved      uint16
	ProposedQty   Quantity
	ProposedPrice Price
	CurrentPos    Quantity
	MaxPos        Quantity
	MaxNotional   Notional
}

// Fill is one execution against a paper order.
type Fill struct {
	OrderID  uint64
	SymbolID uint32
	Side     OrderSide
	Flags    uint16
	Price    Price
	Qty      Quantity
	Fee      Fee
}
