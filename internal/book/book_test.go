package book

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gungnir/internal/common"
)

const testSymbol = common.Symbol("ACME")

func newTestOrder(id common.OrderID, side common.Side, price common.Price, qty common.Quantity) *common.Order {
	return common.NewOrder(id, side, price, qty, testSymbol, common.LimitOrder)
}

// fillBook seeds a book with orders, failing the test on rejection.
func fillBook(t *testing.T, b *OrderBook, orders ...*common.Order) {
	t.Helper()
	for _, o := range orders {
		require.NoError(t, b.AddOrder(o))
	}
}

func levelIDs(level *Level) []common.OrderID {
	ids := make([]common.OrderID, 0, len(level.Orders))
	for _, o := range level.Orders {
		ids = append(ids, o.ID)
	}
	return ids
}

func TestAddOrder_RestsInArrivalOrder(t *testing.T) {
	b := New(testSymbol)
	fillBook(t, b,
		newTestOrder(1, common.Buy, 100, 10),
		newTestOrder(2, common.Buy, 100, 20),
		newTestOrder(3, common.Buy, 99, 30),
	)

	assert.Equal(t, 3, b.OrderCount())
	assert.Equal(t, 2, b.BidLevelCount())
	assert.Equal(t, 0, b.AskLevelCount())

	// FIFO at the shared level, best bid at the top.
	level, ok := b.BestOrders(common.Sell)
	require.True(t, ok)
	assert.Equal(t, common.Price(100), level.Price)
	assert.Equal(t, []common.OrderID{1, 2}, levelIDs(level))

	order, ok := b.Order(2)
	require.True(t, ok)
	assert.Equal(t, common.OrderID(2), order.ID)
}

func TestAddOrder_Rejections(t *testing.T) {
	b := New(testSymbol)
	fillBook(t, b, newTestOrder(1, common.Buy, 100, 10))

	t.Run("nil order", func(t *testing.T) {
		assert.ErrorIs(t, b.AddOrder(nil), ErrNilOrder)
	})
	t.Run("invalid order", func(t *testing.T) {
		assert.ErrorIs(t, b.AddOrder(newTestOrder(2, common.Buy, 0, 10)), ErrInvalidOrder)
	})
	t.Run("duplicate id", func(t *testing.T) {
		assert.ErrorIs(t, b.AddOrder(newTestOrder(1, common.Sell, 101, 10)), ErrDuplicateOrder)
	})
	t.Run("symbol mismatch", func(t *testing.T) {
		other := common.NewOrder(3, common.Buy, 100, 10, "OTHER", common.LimitOrder)
		assert.ErrorIs(t, b.AddOrder(other), ErrSymbolMismatch)
	})
	t.Run("nothing to rest", func(t *testing.T) {
		depleted := newTestOrder(4, common.Buy, 100, 10)
		depleted.Fill(10)
		assert.ErrorIs(t, b.AddOrder(depleted), ErrInvalidOrder)
	})

	// Rejections leave the book untouched.
	assert.Equal(t, 1, b.OrderCount())
	assert.Equal(t, 1, b.BidLevelCount())
}

func TestIsValidOrder(t *testing.T) {
	b := New(testSymbol)
	fillBook(t, b, newTestOrder(1, common.Buy, 100, 10))

	assert.True(t, b.IsValidOrder(newTestOrder(2, common.Sell, 101, 5)))
	assert.False(t, b.IsValidOrder(newTestOrder(1, common.Sell, 101, 5)))
	assert.False(t, b.IsValidOrder(nil))
}

func TestBestBidAskSpread(t *testing.T) {
	b := New(testSymbol)

	// Empty book: nothing quotable.
	_, ok := b.BestBid()
	assert.False(t, ok)
	_, ok = b.BestAsk()
	assert.False(t, ok)
	_, ok = b.Spread()
	assert.False(t, ok)

	fillBook(t, b,
		newTestOrder(1, common.Buy, 98, 10),
		newTestOrder(2, common.Buy, 99, 10),
	)

	bid, ok := b.BestBid()
	require.True(t, ok)
	assert.Equal(t, common.Price(99), bid)

	// One-sided book still has no spread.
	_, ok = b.Spread()
	assert.False(t, ok)

	fillBook(t, b,
		newTestOrder(3, common.Sell, 102, 10),
		newTestOrder(4, common.Sell, 101, 10),
	)

	ask, ok := b.BestAsk()
	require.True(t, ok)
	assert.Equal(t, common.Price(101), ask)

	spread, ok := b.Spread()
	require.True(t, ok)
	assert.Equal(t, common.Price(2), spread)
}

func TestMarketDepth(t *testing.T) {
	b := New(testSymbol)
	fillBook(t, b,
		newTestOrder(1, common.Buy, 100, 10),
		newTestOrder(2, common.Buy, 100, 15),
		newTestOrder(3, common.Buy, 99, 20),
		newTestOrder(4, common.Buy, 98, 5),
		newTestOrder(5, common.Sell, 101, 7),
	)

	depth := b.MarketDepth(2, common.Buy)
	assert.Equal(t, []common.DepthLevel{
		{Price: 100, TotalQuantity: 25, OrderCount: 2},
		{Price: 99, TotalQuantity: 20, OrderCount: 1},
	}, depth)

	// Requesting more levels than exist returns what is there.
	assert.Len(t, b.MarketDepth(10, common.Buy), 3)
	assert.Equal(t, []common.DepthLevel{
		{Price: 101, TotalQuantity: 7, OrderCount: 1},
	}, b.MarketDepth(5, common.Sell))
	assert.Empty(t, b.MarketDepth(0, common.Buy))
}

func TestCancelOrder_PreservesSurvivorOrder(t *testing.T) {
	b := New(testSymbol)
	fillBook(t, b,
		newTestOrder(1, common.Buy, 100, 10),
		newTestOrder(2, common.Buy, 100, 20),
		newTestOrder(3, common.Buy, 100, 30),
	)

	cancelled, err := b.CancelOrder(2)
	require.NoError(t, err)
	assert.Equal(t, common.OrderID(2), cancelled.ID)
	// The book does not transition status; that is the engine's job.
	assert.NotEqual(t, common.Cancelled, cancelled.Status)

	level, ok := b.BestOrders(common.Sell)
	require.True(t, ok)
	assert.Equal(t, []common.OrderID{1, 3}, levelIDs(level))

	_, ok = b.Order(2)
	assert.False(t, ok)
}

func TestCancelOrder_PrunesEmptiedLevel(t *testing.T) {
	b := New(testSymbol)
	fillBook(t, b,
		newTestOrder(1, common.Sell, 101, 10),
		newTestOrder(2, common.Sell, 102, 10),
	)

	_, err := b.CancelOrder(1)
	require.NoError(t, err)

	assert.Equal(t, 1, b.AskLevelCount())
	ask, ok := b.BestAsk()
	require.True(t, ok)
	assert.Equal(t, common.Price(102), ask)
	// No level is ever observable empty.
	for _, lvl := range b.MarketDepth(10, common.Sell) {
		assert.NotZero(t, lvl.OrderCount)
	}
}

func TestCancelOrder_UnknownIDLeavesBookUntouched(t *testing.T) {
	b := New(testSymbol)
	fillBook(t, b, newTestOrder(1, common.Buy, 100, 10))

	_, err := b.CancelOrder(99)
	assert.ErrorIs(t, err, ErrOrderNotFound)
	assert.Equal(t, 1, b.OrderCount())
	assert.Equal(t, 1, b.BidLevelCount())
}

func TestBestOrders_OpposingSide(t *testing.T) {
	b := New(testSymbol)
	fillBook(t, b,
		newTestOrder(1, common.Buy, 99, 10),
		newTestOrder(2, common.Sell, 101, 10),
		newTestOrder(3, common.Sell, 100, 10),
	)

	// An incoming buy consumes the asks, lowest price first.
	level, ok := b.BestOrders(common.Buy)
	require.True(t, ok)
	assert.Equal(t, common.Price(100), level.Price)
	assert.Equal(t, common.OrderID(3), level.Front().ID)

	// An incoming sell consumes the bids.
	level, ok = b.BestOrders(common.Sell)
	require.True(t, ok)
	assert.Equal(t, common.Price(99), level.Price)
}

func TestBestOrders_EmptyOpposingSide(t *testing.T) {
	b := New(testSymbol)
	fillBook(t, b, newTestOrder(1, common.Buy, 99, 10))

	_, ok := b.BestOrders(common.Sell)
	assert.True(t, ok)
	_, ok = b.BestOrders(common.Buy)
	assert.False(t, ok)
}

func TestRemoveBestOrder(t *testing.T) {
	b := New(testSymbol)
	fillBook(t, b,
		newTestOrder(1, common.Sell, 100, 10),
		newTestOrder(2, common.Sell, 100, 20),
	)

	b.RemoveBestOrder(common.Buy)

	level, ok := b.BestOrders(common.Buy)
	require.True(t, ok)
	assert.Equal(t, []common.OrderID{2}, levelIDs(level))
	_, ok = b.Order(1)
	assert.False(t, ok)

	// Removing the last order prunes the level.
	b.RemoveBestOrder(common.Buy)
	assert.Equal(t, 0, b.AskLevelCount())
	assert.True(t, b.IsEmpty())

	assert.Panics(t, func() { b.RemoveBestOrder(common.Buy) })
}

func TestPruneNonEmptyLevelPanics(t *testing.T) {
	b := New(testSymbol)
	fillBook(t, b, newTestOrder(1, common.Buy, 100, 10))

	level, ok := b.bids.Min()
	require.True(t, ok)
	assert.Panics(t, func() { b.pruneLevel(level, common.Buy) })
}
