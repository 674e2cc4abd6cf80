package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Checkout result labels.
const (
	ResultCompleted         = "completed"
	ResultEmptyCart         = "empty_cart"
	ResultItemNotInCart     = "item_not_in_cart"
	ResultInsufficientFunds = "insufficient_funds"
	ResultOrderFailure      = "order_failure"
	ResultBalanceFailure    = "balance_failure"
)

type Checkout struct {
	Attempts   *prometheus.CounterVec
	DurationMS *prometheus.HistogramVec
}

func NewCheckout(service string) *Checkout {
	attempts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "webstore",
		Subsystem: service,
		Name:      "checkout_attempts_total",
		Help:      "Checkout attempts by outcome.",
	}, []string{"scope", "result"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "webstore",
		Subsystem: service,
		Name:      "checkout_duration_ms",
		Help:      "Checkout latency in milliseconds.",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000},
	}, []string{"scope"})

	prometheus.MustRegister(attempts, duration)
	return &Checkout{Attempts: attempts, DurationMS: duration}
}

// Observe records one checkout attempt. Nil receivers are allowed so tests
// can run without a registry.
func (m *Checkout) Observe(scope, result string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.Attempts.WithLabelValues(scope, result).Inc()
	m.DurationMS.WithLabelValues(scope).Observe(float64(elapsed.Milliseconds()))
}

func Handler() http.Handler {
	return promhttp.Handler()
}
