package engine

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"gungnir/internal/book"
	"gungnir/internal/common"
	"gungnir/internal/metrics"
)

var ErrBookNotFound = errors.New("no order book for symbol")

// Engine is the matching core: one order book per instrument, the trade
// ledger and the id/timestamp counters. It is single-threaded; callers must
// serialize SubmitOrder and CancelOrder externally (the sequencer package is
// the admission wrapper that does this).
type Engine struct {
	books       map[common.Symbol]*book.OrderBook
	trades      []common.Trade
	nextTradeID common.TradeID
	clock       common.Timestamp
	metrics     *metrics.Metrics
}

func New() *Engine {
	return &Engine{
		books:       make(map[common.Symbol]*book.OrderBook),
		nextTradeID: 1,
	}
}

// SetMetrics attaches instrumentation. The engine runs fine without it.
func (e *Engine) SetMetrics(m *metrics.Metrics) {
	e.metrics = m
}

// nextTimestamp advances the engine's logical clock. Timestamps order
// arrivals and executions relative to each other across all symbols.
func (e *Engine) nextTimestamp() common.Timestamp {
	e.clock++
	return e.clock
}

// SubmitOrder is the engine's sole entry point for price formation. The
// order is validated, stamped with an arrival timestamp, matched against
// the resting liquidity of its symbol's book, and any unfilled remainder is
// rested behind existing same-price orders. The trades produced by this
// submission are returned in execution order; no book is created when the
// order is rejected.
func (e *Engine) SubmitOrder(order *common.Order) ([]common.Trade, error) {
	if order == nil {
		e.metrics.RecordOrderRejected()
		return nil, book.ErrNilOrder
	}
	if err := order.Validate(); err != nil {
		e.metrics.RecordOrderRejected()
		return nil, fmt.Errorf("%w: %w", book.ErrInvalidOrder, err)
	}

	bk := e.getOrCreateBook(order.Symbol)
	if _, exists := bk.Order(order.ID); exists {
		e.metrics.RecordOrderRejected()
		return nil, book.ErrDuplicateOrder
	}

	order.Timestamp = e.nextTimestamp()
	trades := e.matchOrder(order, bk)

	if order.Remaining > 0 {
		if err := bk.AddOrder(order); err != nil {
			// Matching already validated everything AddOrder checks.
			panic(fmt.Sprintf("engine: resting matched remainder: %v", err))
		}
	}

	e.metrics.RecordOrderSubmitted()
	e.metrics.SetRestingOrders(string(order.Symbol), bk.OrderCount())
	return trades, nil
}

// matchOrder runs the price-time priority crossing loop: while the incoming
// order has quantity left, consume the front of the best opposing level at
// the maker's price, stopping when the opposing side empties or no longer
// crosses the incoming limit.
func (e *Engine) matchOrder(order *common.Order, bk *book.OrderBook) []common.Trade {
	var trades []common.Trade
	for order.Remaining > 0 {
		level, ok := bk.BestOrders(order.Side)
		if !ok {
			break
		}
		resting := level.Front()
		if !order.CanMatchWith(resting) {
			break
		}

		qty := order.FillableQuantity(resting)
		trade := e.newTrade(order, resting, resting.Price, qty)
		e.trades = append(e.trades, trade)
		trades = append(trades, trade)

		order.Fill(qty)
		resting.Fill(qty)
		if resting.IsFilled() {
			bk.RemoveBestOrder(order.Side)
		}

		e.metrics.RecordTrade(string(trade.Symbol), uint64(qty))
		log.Info().
			Uint64("trade_id", uint64(trade.ID)).
			Str("symbol", string(trade.Symbol)).
			Uint32("price", uint32(trade.Price)).
			Uint64("quantity", uint64(trade.Quantity)).
			Str("aggressor", trade.Aggressor.String()).
			Msg("trade executed")
	}
	return trades
}

// newTrade assigns buy/sell order ids by side, the next trade id and the
// next timestamp. The incoming order's side is the aggressor.
func (e *Engine) newTrade(incoming, resting *common.Order, price common.Price, qty common.Quantity) common.Trade {
	buy, sell := incoming, resting
	if incoming.Side == common.Sell {
		buy, sell = resting, incoming
	}
	trade := common.NewTrade(
		e.nextTradeID, buy.ID, sell.ID, incoming.Symbol,
		price, qty, e.nextTimestamp(), incoming.Side,
	)
	e.nextTradeID++
	return trade
}

// CancelOrder removes a resting order from its book and drives the order's
// Cancelled transition. Both an unknown symbol and an unknown order id are
// reported as typed not-found errors; the caller decides whether that is
// fatal.
func (e *Engine) CancelOrder(symbol common.Symbol, id common.OrderID) error {
	bk, ok := e.books[symbol]
	if !ok {
		return fmt.Errorf("%w: %s", ErrBookNotFound, symbol)
	}
	order, err := bk.CancelOrder(id)
	if err != nil {
		return err
	}
	order.Cancel()

	e.metrics.RecordOrderCancelled()
	e.metrics.SetRestingOrders(string(symbol), bk.OrderCount())
	log.Info().
		Uint64("order_id", uint64(id)).
		Str("symbol", string(symbol)).
		Msg("order cancelled")
	return nil
}

func (e *Engine) getOrCreateBook(symbol common.Symbol) *book.OrderBook {
	bk, ok := e.books[symbol]
	if !ok {
		bk = book.New(symbol)
		e.books[symbol] = bk
		log.Info().Str("symbol", string(symbol)).Msg("order book created")
	}
	return bk
}

// OrderBook is a read-only lookup; it never creates a book. Only
// SubmitOrder does that.
func (e *Engine) OrderBook(symbol common.Symbol) (*book.OrderBook, bool) {
	bk, ok := e.books[symbol]
	return bk, ok
}

// ExecutedTrades is the full ledger in execution order. Callers must treat
// the returned slice as read-only.
func (e *Engine) ExecutedTrades() []common.Trade {
	return e.trades
}

// TradesForSymbol filters the ledger for one symbol, preserving execution
// order.
func (e *Engine) TradesForSymbol(symbol common.Symbol) []common.Trade {
	var trades []common.Trade
	for _, t := range e.trades {
		if t.Symbol == symbol {
			trades = append(trades, t)
		}
	}
	return trades
}

func (e *Engine) HasOrderBook(symbol common.Symbol) bool {
	_, ok := e.books[symbol]
	return ok
}

func (e *Engine) OrderBookCount() int {
	return len(e.books)
}

// NextTradeID is the id the next execution will be assigned.
func (e *Engine) NextTradeID() common.TradeID {
	return e.nextTradeID
}
