package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOrderMetrics(reg)

	m.Commands.WithLabelValues("place_order", "ok").Inc()
	m.Commands.WithLabelValues("place_order", "insufficient_stock").Inc()
	m.StockMovements.WithLabelValues("out").Add(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.Commands.WithLabelValues("place_order", "ok")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.StockMovements.WithLabelValues("out")))

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `oce_order_commands_total{command="place_order",result="ok"} 1`)
}

func TestRegisterTwicePanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewOrderMetrics(reg)
	assert.Panics(t, func() { NewOrderMetrics(reg) })
}

func TestOutboxObserver(t *testing.T) {
	m := NewOrderMetrics(prometheus.NewRegistry())
	m.Sent(4)
	m.Failed(1)
	assert.Equal(t, 4.0, testutil.ToFloat64(m.OutboxSent))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OutboxFailed))
}
