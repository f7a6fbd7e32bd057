package common

import "fmt"

// Trade is an immutable execution record. One is created per cross and
// appended to the engine ledger, never mutated or removed.
type Trade struct {
	ID          TradeID
	BuyOrderID  OrderID
	SellOrderID OrderID
	Symbol      Symbol
	Price       Price
	Quantity    Quantity
	Timestamp   Timestamp
	Aggressor   Side // side of the incoming order that initiated the cross
}

func NewTrade(id TradeID, buyID, sellID OrderID, symbol Symbol, price Price, qty Quantity, ts Timestamp, aggressor Side) Trade {
	return Trade{
		ID:          id,
		BuyOrderID:  buyID,
		SellOrderID: sellID,
		Symbol:      symbol,
		Price:       price,
		Quantity:    qty,
		Timestamp:   ts,
		Aggressor:   aggressor,
	}
}

// Equal compares trades by identity alone.
func (t Trade) Equal(other Trade) bool {
	return t.ID == other.ID
}

func (t Trade) String() string {
	return fmt.Sprintf("Trade[ID:%d Symbol:%s Price:%d Qty:%d Buy:%d Sell:%d Aggressor:%s TS:%d]",
		t.ID, t.Symbol, t.Price, t.Quantity, t.BuyOrderID, t.SellOrderID, t.Aggressor, t.Timestamp)
}
