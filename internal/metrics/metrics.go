package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Checkout 下单相关的营收/订单计数器。
// 只在事务提交之后记账，属于尽力而为的副作用。
type Checkout struct {
	OrdersPlaced      prometheus.Counter
	RevenueFen        prometheus.Counter
	InsufficientStock prometheus.Counter
	CouponsRedeemed   prometheus.Counter
	IdempotentReplays prometheus.Counter
}

var (
	checkout *Checkout
	once     sync.Once
)

// GetCheckout 获取全局计数器实例
func GetCheckout() *Checkout {
	once.Do(func() {
		checkout = &Checkout{
			OrdersPlaced: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "miorish",
				Subsystem: "checkout",
				Name:      "orders_placed_total",
				Help:      "Total number of successfully committed orders.",
			}),
			RevenueFen: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "miorish",
				Subsystem: "checkout",
				Name:      "revenue_fen_total",
				Help:      "Total revenue of committed orders, in fen.",
			}),
			InsufficientStock: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "miorish",
				Subsystem: "checkout",
				Name:      "insufficient_stock_total",
				Help:      "Checkouts rejected for insufficient stock.",
			}),
			CouponsRedeemed: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "miorish",
				Subsystem: "checkout",
				Name:      "coupons_redeemed_total",
				Help:      "Coupons consumed inside committed checkouts.",
			}),
			IdempotentReplays: prometheus.NewCounter(prometheus.CounterOpts{
				Namespace: "miorish",
				Subsystem: "checkout",
				Name:      "idempotent_replays_total",
				Help:      "Checkout requests answered from the idempotency cache.",
			}),
		}
		prometheus.MustRegister(
			checkout.OrdersPlaced,
			checkout.RevenueFen,
			checkout.InsufficientStock,
			checkout.CouponsRedeemed,
			checkout.IdempotentReplays,
		)
	})
	return checkout
}

// RecordSale 订单提交后记一笔营收
func (c *Checkout) RecordSale(amount int64) {
	c.OrdersPlaced.Inc()
	c.RevenueFen.Add(float64(amount))
}

// Handler 暴露 /metrics
func Handler() http.Handler {
	return promhttp.Handler()
}
