package persistence

import (
	"github.com/lk2023060901/xdooria-gdid/pkg/prometheus"
)

const (
	opRead  = "read"
	opWrite = "write"
)

// Metrics 持久化位置读写计数，nil 时不记录
type Metrics struct {
	ops *prometheus.CounterVec
}

// NewMetrics 注册 persistence_ops_total{location,op,result}
func NewMetrics(client *prometheus.Client) (*Metrics, error) {
	ops, err := client.NewCounter("persistence_ops_total", "Persistence location reads and writes.", []string{"location", "op", "result"})
	if err != nil {
		return nil, err
	}
	return &Metrics{ops: ops}, nil
}

func (m *Metrics) observe(location, op string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.ops.WithLabelValues(location, op, result).Inc()
}
