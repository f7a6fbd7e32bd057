package book

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/btree"

	"gungnir/internal/common"
)

var (
	ErrNilOrder       = errors.New("nil order")
	ErrInvalidOrder   = errors.New("invalid order")
	ErrDuplicateOrder = errors.New("order id already present in book")
	ErrSymbolMismatch = errors.New("order symbol does not match book symbol")
	ErrOrderNotFound  = errors.New("order not found in book")
)

// Level is a single price level: the price and the FIFO queue of resting
// orders at it, earliest arrival first.
type Level struct {
	Price  common.Price
	Orders []*common.Order
}

// Front is the resting order with time priority at this level.
func (l *Level) Front() *common.Order {
	return l.Orders[0]
}

func (l *Level) OrderCount() int {
	return len(l.Orders)
}

// TotalQuantity sums the remaining quantity across all orders at the level.
func (l *Level) TotalQuantity() common.Quantity {
	var total common.Quantity
	for _, o := range l.Orders {
		total += o.Remaining
	}
	return total
}

type levels = btree.BTreeG[*Level]

// OrderBook holds the resting liquidity for one instrument: bids sorted
// highest price first, asks lowest price first, each level a FIFO queue,
// plus an id index for O(1) cancel lookups. A level exists in a side's tree
// iff its queue is non-empty.
type OrderBook struct {
	symbol common.Symbol
	bids   *levels
	asks   *levels
	lookup map[common.OrderID]*common.Order
}

func New(symbol common.Symbol) *OrderBook {
	bids := btree.NewBTreeG(func(a, b *Level) bool {
		return a.Price > b.Price
	})
	asks := btree.NewBTreeG(func(a, b *Level) bool {
		return a.Price < b.Price
	})
	return &OrderBook{
		symbol: symbol,
		bids:   bids,
		asks:   asks,
		lookup: make(map[common.OrderID]*common.Order),
	}
}

func (b *OrderBook) sideLevels(side common.Side) *levels {
	if side == common.Buy {
		return b.bids
	}
	return b.asks
}

// AddOrder rests an order at its price level, creating the level if absent,
// and registers it in the id index. The order must be structurally valid,
// carry this book's symbol and an id not already present. The book is left
// untouched on rejection.
func (b *OrderBook) AddOrder(order *common.Order) error {
	if err := b.validate(order); err != nil {
		return err
	}

	side := b.sideLevels(order.Side)
	if level, ok := side.GetMut(&Level{Price: order.Price}); ok {
		level.Orders = append(level.Orders, order)
	} else {
		side.Set(&Level{Price: order.Price, Orders: []*common.Order{order}})
	}
	b.lookup[order.ID] = order
	return nil
}

// CancelOrder removes the order from its price level, preserving the
// relative order of the survivors, prunes the level if it empties and drops
// the id from the index. The removed order is returned so the caller can
// drive its status transition; the book itself never mutates order status.
func (b *OrderBook) CancelOrder(id common.OrderID) (*common.Order, error) {
	order, ok := b.lookup[id]
	if !ok {
		return nil, ErrOrderNotFound
	}

	side := b.sideLevels(order.Side)
	level, ok := side.GetMut(&Level{Price: order.Price})
	if !ok {
		panic("book: resting order has no price level")
	}
	for i, resting := range level.Orders {
		if resting.ID == id {
			level.Orders = append(level.Orders[:i], level.Orders[i+1:]...)
			break
		}
	}
	if len(level.Orders) == 0 {
		b.pruneLevel(level, order.Side)
	}
	delete(b.lookup, id)
	return order, nil
}

// BestBid returns the highest bid price, or false if there are no bids.
func (b *OrderBook) BestBid() (common.Price, bool) {
	level, ok := b.bids.Min()
	if !ok {
		return 0, false
	}
	return level.Price, true
}

// BestAsk returns the lowest ask price, or false if there are no asks.
func (b *OrderBook) BestAsk() (common.Price, bool) {
	level, ok := b.asks.Min()
	if !ok {
		return 0, false
	}
	return level.Price, true
}

// Spread is best ask minus best bid, defined only when both sides are
// populated.
func (b *OrderBook) Spread() (common.Price, bool) {
	bid, bidOk := b.BestBid()
	ask, askOk := b.BestAsk()
	if !bidOk || !askOk {
		return 0, false
	}
	return ask - bid, true
}

// MarketDepth aggregates up to n best levels on the given side in priority
// order. It is a transient scan and never mutates the book.
func (b *OrderBook) MarketDepth(n int, side common.Side) []common.DepthLevel {
	if n <= 0 {
		return nil
	}
	depth := make([]common.DepthLevel, 0, n)
	b.sideLevels(side).Scan(func(level *Level) bool {
		depth = append(depth, common.DepthLevel{
			Price:         level.Price,
			TotalQuantity: level.TotalQuantity(),
			OrderCount:    len(level.Orders),
		})
		return len(depth) < n
	})
	return depth
}

// BestOrders returns the FIFO queue at the best price level *opposing* an
// incoming order of the given side: asks for an incoming buy, bids for an
// incoming sell. This is the queue the matching loop consumes.
func (b *OrderBook) BestOrders(incoming common.Side) (*Level, bool) {
	return b.sideLevels(incoming.Opposite()).MinMut()
}

// RemoveBestOrder pops the front order of the best opposing level once the
// matching loop has fully filled it, unregisters it from the id index and
// prunes the level if that order was the last one resting there.
func (b *OrderBook) RemoveBestOrder(incoming common.Side) {
	level, ok := b.BestOrders(incoming)
	if !ok {
		panic("book: no opposing level to remove from")
	}
	front := level.Front()
	level.Orders = level.Orders[1:]
	delete(b.lookup, front.ID)
	if len(level.Orders) == 0 {
		b.pruneLevel(level, front.Side)
	}
}

// pruneLevel deletes an emptied price level from its side's tree. Pruning a
// level that still holds orders means the book is corrupted.
func (b *OrderBook) pruneLevel(level *Level, side common.Side) {
	if len(level.Orders) != 0 {
		panic("book: pruning a non-empty price level")
	}
	if _, ok := b.sideLevels(side).Delete(level); !ok {
		panic("book: pruning an unknown price level")
	}
}

// IsValidOrder reports whether the order would be accepted by AddOrder.
func (b *OrderBook) IsValidOrder(order *common.Order) bool {
	return b.validate(order) == nil
}

func (b *OrderBook) validate(order *common.Order) error {
	if order == nil {
		return ErrNilOrder
	}
	if err := order.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidOrder, err)
	}
	if order.Symbol != b.symbol {
		return ErrSymbolMismatch
	}
	if _, ok := b.lookup[order.ID]; ok {
		return ErrDuplicateOrder
	}
	if order.Remaining == 0 {
		return fmt.Errorf("%w: no remaining quantity to rest", ErrInvalidOrder)
	}
	return nil
}

// Order looks up a resting order by id.
func (b *OrderBook) Order(id common.OrderID) (*common.Order, bool) {
	order, ok := b.lookup[id]
	return order, ok
}

func (b *OrderBook) Symbol() common.Symbol {
	return b.symbol
}

func (b *OrderBook) IsEmpty() bool {
	return len(b.lookup) == 0
}

// OrderCount is the number of orders resting across both sides.
func (b *OrderBook) OrderCount() int {
	return len(b.lookup)
}

func (b *OrderBook) BidLevelCount() int {
	return b.bids.Len()
}

func (b *OrderBook) AskLevelCount() int {
	return b.asks.Len()
}

func (b *OrderBook) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "OrderBook[%s orders:%d bidLevels:%d askLevels:%d]",
		b.symbol, len(b.lookup), b.bids.Len(), b.asks.Len())
	if bid, ok := b.BestBid(); ok {
		fmt.Fprintf(&sb, " bestBid:%d", bid)
	}
	if ask, ok := b.BestAsk(); ok {
		fmt.Fprintf(&sb, " bestAsk:%d", ask)
	}
	if spread, ok := b.Spread(); ok {
		fmt.Fprintf(&sb, " spread:%d", spread)
	}
	return sb.String()
}
