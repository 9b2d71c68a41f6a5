package client

import (
	"github.com/lk2023060901/xdooria-gdid/pkg/prometheus"
)

// Metrics 客户端指标，nil 时不记录
type Metrics struct {
	generated   *prometheus.CounterVec
	allocations *prometheus.CounterVec
	prefetches  *prometheus.CounterVec
	blockSize   *prometheus.HistogramVec
}

// NewMetrics 注册客户端指标
func NewMetrics(client *prometheus.Client) (*Metrics, error) {
	generated, err := client.NewCounter("client_ids_generated_total", "IDs handed to callers.", []string{"scope"})
	if err != nil {
		return nil, err
	}
	allocations, err := client.NewCounter("client_allocations_total", "Authority allocations by host and result.", []string{"host", "result"})
	if err != nil {
		return nil, err
	}
	prefetches, err := client.NewCounter("client_prefetches_total", "Low-water-mark prefetches by result.", []string{"result"})
	if err != nil {
		return nil, err
	}
	blockSize, err := client.NewHistogram("client_block_size", "Requested block sizes.", nil,
		[]float64{2, 8, 16, 32, 64, 128, 256, 512, 1024, 4096})
	if err != nil {
		return nil, err
	}
	return &Metrics{
		generated:   generated,
		allocations: allocations,
		prefetches:  prefetches,
		blockSize:   blockSize,
	}, nil
}

func (m *Metrics) observeGenerated(scope string, n int) {
	if m == nil {
		return
	}
	m.generated.WithLabelValues(scope).Add(float64(n))
}

func (m *Metrics) observeAllocation(host string, size int, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.allocations.WithLabelValues(host, result).Inc()
	m.blockSize.WithLabelValues().Observe(float64(size))
}

func (m *Metrics) observePrefetch(result string) {
	if m == nil {
		return
	}
	m.prefetches.WithLabelValues(result).Inc()
}
