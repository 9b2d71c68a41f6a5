package prometheus

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c, err := New(&Config{Namespace: "test"})
	require.NoError(t, err)
	return c
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "gdid", cfg.Namespace)

	cfg = &Config{Namespace: "x"}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "/metrics", cfg.Path)

	assert.True(t, errors.Is((&Config{}).Validate(), ErrInvalidConfig))
}

func TestCounterAndGauge(t *testing.T) {
	c := newTestClient(t)

	counter, err := c.NewCounter("allocations_total", "allocations", []string{"result"})
	require.NoError(t, err)
	counter.WithLabelValues("ok").Inc()
	counter.WithLabelValues("ok").Inc()
	assert.Equal(t, 2.0, testutil.ToFloat64(counter.WithLabelValues("ok")))

	_, err = c.NewCounter("allocations_total", "dup", nil)
	assert.True(t, errors.Is(err, ErrMetricExists))
	_, err = c.NewGauge("allocations_total", "same name, other type", nil)
	assert.True(t, errors.Is(err, ErrMetricExists))

	gauge, err := c.NewGauge("era", "era", []string{"scope"})
	require.NoError(t, err)
	gauge.WithLabelValues("A").Set(3)
	assert.Equal(t, 3.0, testutil.ToFloat64(gauge.WithLabelValues("A")))
}

func TestHistogramAndHandler(t *testing.T) {
	c := newTestClient(t)
	h, err := c.NewHistogram("latency_seconds", "latency", []string{"op"}, nil)
	require.NoError(t, err)
	h.WithLabelValues("allocate").Observe(0.01)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "test_latency_seconds")
}

func TestClose(t *testing.T) {
	c := newTestClient(t)
	require.NoError(t, c.Close())
	assert.True(t, c.IsClosed())
	assert.True(t, errors.Is(c.Close(), ErrClientClosed))

	_, err := c.NewGauge("late", "late", nil)
	assert.True(t, errors.Is(err, ErrClientClosed))
}
