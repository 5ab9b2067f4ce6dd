package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "oce"

// OrderMetrics counts use-case outcomes. Results are labelled with the
// fault kind of the error, or "ok".
type OrderMetrics struct {
	Commands       *prometheus.CounterVec
	StockMovements *prometheus.CounterVec
	TxRetries      prometheus.Counter
	OutboxSent     prometheus.Counter
	OutboxFailed   prometheus.Counter
}

func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	m := &OrderMetrics{
		Commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "order",
			Name:      "commands_total",
			Help:      "Order use-case invocations by command and result.",
		}, []string{"command", "result"}),
		StockMovements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "catalog",
			Name:      "stock_units_total",
			Help:      "Stock units taken or returned by orders.",
		}, []string{"direction"}),
		TxRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "store",
			Name:      "tx_retries_total",
			Help:      "Units of work rerun after a conflict.",
		}),
		OutboxSent: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "sent_total",
			Help:      "Outbox events published.",
		}),
		OutboxFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "outbox",
			Name:      "failed_total",
			Help:      "Outbox publish attempts that failed.",
		}),
	}
	reg.MustRegister(m.Commands, m.StockMovements, m.TxRetries, m.OutboxSent, m.OutboxFailed)
	return m
}

func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// Sent and Failed let the outbox relay report publish outcomes.
func (m *OrderMetrics) Sent(n int)   { m.OutboxSent.Add(float64(n)) }
func (m *OrderMetrics) Failed(n int) { m.OutboxFailed.Add(float64(n)) }
