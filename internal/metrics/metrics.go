package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the matching core instrumentation. All record methods are
// nil-receiver safe so the engine can run uninstrumented.
type Metrics struct {
	OrdersSubmitted prometheus.Counter
	OrdersRejected  prometheus.Counter
	OrdersCancelled prometheus.Counter

	TradesTotal prometheus.Counter
	TradeVolume *prometheus.CounterVec

	RestingOrders *prometheus.GaugeVec
}

// New creates and registers the metrics against the given registerer. Pass
// prometheus.DefaultRegisterer in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		OrdersSubmitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "orders_submitted_total",
			Help: "Total number of orders accepted by the engine",
		}),
		OrdersRejected: factory.NewCounter(prometheus.CounterOpts{
			Name: "orders_rejected_total",
			Help: "Total number of orders rejected as invalid",
		}),
		OrdersCancelled: factory.NewCounter(prometheus.CounterOpts{
			Name: "orders_cancelled_total",
			Help: "Total number of orders cancelled",
		}),
		TradesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "trades_total",
			Help: "Total number of trades executed",
		}),
		TradeVolume: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trade_volume_total",
				Help: "Total executed quantity by symbol",
			},
			[]string{"symbol"},
		),
		RestingOrders: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "resting_orders",
				Help: "Number of orders resting in the book by symbol",
			},
			[]string{"symbol"},
		),
	}
}

func (m *Metrics) RecordOrderSubmitted() {
	if m == nil {
		return
	}
	m.OrdersSubmitted.Inc()
}

func (m *Metrics) RecordOrderRejected() {
	if m == nil {
		return
	}
	m.OrdersRejected.Inc()
}

func (m *Metrics) RecordOrderCancelled() {
	if m == nil {
		return
	}
	m.OrdersCancelled.Inc()
}

func (m *Metrics) RecordTrade(symbol string, qty uint64) {
	if m == nil {
		return
	}
	m.TradesTotal.Inc()
	m.TradeVolume.WithLabelValues(symbol).Add(float64(qty))
}

func (m *Metrics) SetRestingOrders(symbol string, count int) {
	if m == nil {
		return
	}
	m.RestingOrders.WithLabelValues(symbol).Set(float64(count))
}
