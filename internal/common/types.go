package common

// Scalar aliases shared across the matching core. Prices are integer ticks;
// tick-size normalisation is assumed to have happened upstream.
type (
	OrderID   uint64
	TradeID   uint64
	Price     uint32
	Quantity  uint64
	Timestamp uint64
	Symbol    string
)

type Side int

const (
	Buy Side = iota
	Sell
)

func (s Side) String() string {
	switch s {
	case Buy:
		return "Buy"
	case Sell:
		return "Sell"
	}
	return "Unknown"
}

// Opposite returns the side an incoming order matches against.
func (s Side) Opposite() Side {
	if s == Buy {
		return Sell
	}
	return Buy
}

func (s Side) Valid() bool {
	return s == Buy || s == Sell
}

type OrderType int

const (
	// Limit orders buy or sell at a specified price or better and may rest
	// on the book until filled.
	LimitOrder OrderType = iota
	// Market orders carry a reference price and currently cross exactly like
	// limit orders; there is no execute-at-any-price sweep.
	MarketOrder
)

func (t OrderType) String() string {
	switch t {
	case LimitOrder:
		return "Limit"
	case MarketOrder:
		return "Market"
	}
	return "Unknown"
}

type OrderStatus int

const (
	Pending OrderStatus = iota
	PartiallyFilled
	Filled
	Cancelled
)

func (s OrderStatus) String() string {
	switch s {
	case Pending:
		return "Pending"
	case PartiallyFilled:
		return "PartiallyFilled"
	case Filled:
		return "Filled"
	case Cancelled:
		return "Cancelled"
	}
	return "Unknown"
}

// DepthLevel is one row of a market depth snapshot: the aggregate remaining
// quantity and order count resting at a single price.
type DepthLevel struct {
	Price         Price
	TotalQuantity Quantity
	OrderCount    int
}
