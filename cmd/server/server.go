package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"gungnir/internal/common"
	"gungnir/internal/config"
	"gungnir/internal/engine"
	"gungnir/internal/ident"
	"gungnir/internal/metrics"
	"gungnir/internal/sequencer"
)

// orderRequest is one line of the stdin feed. A set cancel_id turns the line
// into a cancellation of that order on the given symbol.
type orderRequest struct {
	ClientRef string `json:"client_ref,omitempty"`
	Symbol    string `json:"symbol"`
	Side      string `json:"side,omitempty"`
	Type      string `json:"type,omitempty"`
	Price     uint32 `json:"price,omitempty"`
	Quantity  uint64 `json:"quantity,omitempty"`
	CancelID  uint64 `json:"cancel_id,omitempty"`
}

type tradeReport struct {
	TradeID     uint64 `json:"trade_id"`
	Symbol      string `json:"symbol"`
	Price       uint32 `json:"price"`
	Quantity    uint64 `json:"quantity"`
	BuyOrderID  uint64 `json:"buy_order_id"`
	SellOrderID uint64 `json:"sell_order_id"`
	Aggressor   string `json:"aggressor"`
	Timestamp   uint64 `json:"timestamp"`
}

func main() {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer stop()

	cfg := config.Load()
	if cfg.PrettyLog {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	eng := engine.New()
	eng.SetMetrics(m)
	seq := sequencer.Start(ctx, eng, cfg.QueueDepth)

	go serveMetrics(cfg.MetricsAddr)
	go func() {
		feed(ctx, seq, ident.NewSource())
		// Feed exhausted or failed; wind the process down.
		stop()
	}()

	<-ctx.Done()
	if err := seq.Stop(); err != nil {
		log.Error().Err(err).Msg("sequencer shutdown")
	}
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Info().Str("addr", addr).Msg("metrics listener running")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("metrics listener failed")
	}
}

// feed pumps line-delimited JSON orders from stdin through the sequencer and
// writes the resulting trades to stdout, one JSON array per submission.
func feed(ctx context.Context, seq *sequencer.Sequencer, ids *ident.Source) {
	scanner := bufio.NewScanner(os.Stdin)
	out := json.NewEncoder(os.Stdout)

	for scanner.Scan() {
		var req orderRequest
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			log.Error().Err(err).Msg("malformed order line")
			continue
		}

		if req.CancelID != 0 {
			err := seq.Cancel(ctx, common.Symbol(req.Symbol), common.OrderID(req.CancelID))
			if err != nil {
				log.Warn().Err(err).Uint64("order_id", req.CancelID).Msg("cancel failed")
			}
			continue
		}

		order, err := buildOrder(req, ids)
		if err != nil {
			log.Warn().Err(err).Str("symbol", req.Symbol).Msg("order dropped")
			continue
		}
		trades, err := seq.Submit(ctx, order)
		if err != nil {
			log.Warn().Err(err).Uint64("order_id", uint64(order.ID)).Msg("order rejected")
			continue
		}
		if err := out.Encode(reportTrades(trades)); err != nil {
			log.Error().Err(err).Msg("writing trade report")
			return
		}
	}
	if err := scanner.Err(); err != nil {
		log.Error().Err(err).Msg("reading order feed")
	}
}

func buildOrder(req orderRequest, ids *ident.Source) (*common.Order, error) {
	var side common.Side
	switch req.Side {
	case "buy", "Buy":
		side = common.Buy
	case "sell", "Sell":
		side = common.Sell
	default:
		return nil, fmt.Errorf("unknown side %q", req.Side)
	}

	typ := common.LimitOrder
	if req.Type == "market" || req.Type == "Market" {
		typ = common.MarketOrder
	}

	order := common.NewOrder(
		ids.NextOrderID(), side, common.Price(req.Price),
		common.Quantity(req.Quantity), common.Symbol(req.Symbol), typ,
	)
	order.ClientRef = req.ClientRef
	if order.ClientRef == "" {
		order.ClientRef = ids.NewClientRef()
	}
	return order, nil
}

func reportTrades(trades []common.Trade) []tradeReport {
	reports := make([]tradeReport, len(trades))
	for i, t := range trades {
		reports[i] = tradeReport{
			TradeID:     uint64(t.ID),
			Symbol:      string(t.Symbol),
			Price:       uint32(t.Price),
			Quantity:    uint64(t.Quantity),
			BuyOrderID:  uint64(t.BuyOrderID),
			SellOrderID: uint64(t.SellOrderID),
			Aggressor:   t.Aggressor.String(),
			Timestamp:   uint64(t.Timestamp),
		}
	}
	return reports
}
