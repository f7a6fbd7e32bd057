package common

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidSide      = errors.New("invalid order side")
	ErrInvalidPrice     = errors.New("order price must be positive")
	ErrInvalidQuantity  = errors.New("order quantity must be positive")
	ErrInvalidRemaining = errors.New("remaining quantity exceeds order quantity")
	ErrEmptySymbol      = errors.New("order symbol is empty")
)

// Order is a single instruction, either incoming or resting on a book. Once
// resting, the owning book holds the only live reference; everything else
// addresses the order by ID.
type Order struct {
	ID        OrderID
	ClientRef string // opaque submitter reference, not used by the core
	Side      Side
	Price     Price
	Quantity  Quantity // original requested volume, immutable
	Remaining Quantity
	Symbol    Symbol
	Timestamp Timestamp // assigned by the engine at submission
	Type      OrderType
	Status    OrderStatus
}

func NewOrder(id OrderID, side Side, price Price, qty Quantity, symbol Symbol, typ OrderType) *Order {
	return &Order{
		ID:        id,
		Side:      side,
		Price:     price,
		Quantity:  qty,
		Remaining: qty,
		Symbol:    symbol,
		Type:      typ,
		Status:    Pending,
	}
}

// Validate checks the structural validity of the order: side, price and
// quantity domains, remaining bound and a non-empty symbol.
func (o *Order) Validate() error {
	switch {
	case !o.Side.Valid():
		return ErrInvalidSide
	case o.Price == 0:
		return ErrInvalidPrice
	case o.Quantity == 0:
		return ErrInvalidQuantity
	case o.Remaining > o.Quantity:
		return ErrInvalidRemaining
	case o.Symbol == "":
		return ErrEmptySymbol
	}
	return nil
}

// Fill consumes qty from the remaining quantity. The matching loop computes
// qty as the min of both remainings, so exceeding it is a corrupted-book
// invariant violation rather than a caller error.
func (o *Order) Fill(qty Quantity) {
	if qty > o.Remaining {
		panic("order: fill quantity exceeds remaining quantity")
	}
	o.Remaining -= qty
	if o.Remaining == 0 {
		o.Status = Filled
	} else if o.Remaining < o.Quantity {
		o.Status = PartiallyFilled
	}
}

// Cancel zeroes the remaining quantity and marks the order Cancelled. The
// caller is responsible for having removed the order from any book first.
func (o *Order) Cancel() {
	o.Remaining = 0
	o.Status = Cancelled
}

func (o *Order) FilledQuantity() Quantity {
	return o.Quantity - o.Remaining
}

func (o *Order) IsFilled() bool {
	return o.Remaining == 0
}

func (o *Order) IsPartiallyFilled() bool {
	return o.Remaining > 0 && o.Remaining < o.Quantity
}

// CanMatchWith reports whether o, taken as the incoming order, crosses with
// a resting order: opposite sides, same symbol, both with quantity left, and
// o's price at least as aggressive as the resting price.
func (o *Order) CanMatchWith(resting *Order) bool {
	crosses := (o.Side == Buy && o.Price >= resting.Price) ||
		(o.Side == Sell && o.Price <= resting.Price)
	return o.Side != resting.Side &&
		o.Symbol == resting.Symbol &&
		o.Remaining > 0 &&
		resting.Remaining > 0 &&
		crosses
}

// FillableQuantity is the executable quantity between o and a resting order,
// zero when they do not cross.
func (o *Order) FillableQuantity(resting *Order) Quantity {
	if !o.CanMatchWith(resting) {
		return 0
	}
	return min(o.Remaining, resting.Remaining)
}

// Before reports whether o has strictly higher price-time priority than
// other. Priority is only defined within one side of a book; comparing
// across sides is a logic error.
func (o *Order) Before(other *Order) bool {
	if o.Side != other.Side {
		panic("order: priority comparison across sides")
	}
	if o.Price != other.Price {
		if o.Side == Buy {
			return o.Price > other.Price
		}
		return o.Price < other.Price
	}
	return o.Timestamp < other.Timestamp
}

func (o *Order) String() string {
	return fmt.Sprintf("Order[ID:%d Symbol:%s Side:%s %s Price:%d Qty:%d/%d TS:%d %s]",
		o.ID, o.Symbol, o.Side, o.Type, o.Price, o.Remaining, o.Quantity, o.Timestamp, o.Status)
}
