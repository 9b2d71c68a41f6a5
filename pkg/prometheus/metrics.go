package prometheus

import (
	"github.com/cockroachdb/errors"
	"github.com/prometheus/client_golang/prometheus"
)

// register 同名指标只能注册一次，不区分类型
func register[T prometheus.Collector](c *Client, name string, build func(ns, sub string) T) (T, error) {
	var zero T
	if c.IsClosed() {
		return zero, ErrClientClosed
	}
	if _, loaded := c.metrics.LoadOrStore(name, struct{}{}); loaded {
		return zero, errors.Wrapf(ErrMetricExists, "metric %s", name)
	}

	m := build(c.config.Namespace, c.config.Subsystem)
	if err := c.registry.Register(m); err != nil {
		c.metrics.Delete(name)
		return zero, errors.Wrapf(err, "register metric %s", name)
	}
	return m, nil
}

// NewCounter 创建并注册 Counter
func (c *Client) NewCounter(name, help string, labels []string) (*CounterVec, error) {
	return register(c, name, func(ns, sub string) *CounterVec {
		return prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns, Subsystem: sub, Name: name, Help: help,
		}, labels)
	})
}

// NewGauge 创建并注册 Gauge
func (c *Client) NewGauge(name, help string, labels []string) (*GaugeVec, error) {
	return register(c, name, func(ns, sub string) *GaugeVec {
		return prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: ns, Subsystem: sub, Name: name, Help: help,
		}, labels)
	})
}

// NewHistogram 创建并注册 Histogram，buckets 为空时用默认桶
func (c *Client) NewHistogram(name, help string, labels []string, buckets []float64) (*HistogramVec, error) {
	if buckets == nil {
		buckets = prometheus.DefBuckets
	}
	return register(c, name, func(ns, sub string) *HistogramVec {
		return prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns, Subsystem: sub, Name: name, Help: help, Buckets: buckets,
		}, labels)
	})
}
