package authority

import (
	"github.com/lk2023060901/xdooria-gdid/pkg/prometheus"
)

// Metrics 分配相关指标，nil 时不记录
type Metrics struct {
	allocations   *prometheus.CounterVec
	reserved      *prometheus.CounterVec
	eraPromotions *prometheus.CounterVec
	latency       *prometheus.HistogramVec
}

// NewMetrics 注册分配指标
func NewMetrics(client *prometheus.Client) (*Metrics, error) {
	allocations, err := client.NewCounter("authority_allocations_total", "Block allocations by result.", []string{"scope", "result"})
	if err != nil {
		return nil, err
	}
	reserved, err := client.NewCounter("authority_ids_reserved_total", "Counter values reserved in issued blocks.", []string{"scope"})
	if err != nil {
		return nil, err
	}
	eraPromotions, err := client.NewCounter("authority_era_promotions_total", "Era promotions.", []string{"scope"})
	if err != nil {
		return nil, err
	}
	latency, err := client.NewHistogram("authority_allocate_seconds", "Allocate latency including persistence.", []string{"scope"}, nil)
	if err != nil {
		return nil, err
	}
	return &Metrics{
		allocations:   allocations,
		reserved:      reserved,
		eraPromotions: eraPromotions,
		latency:       latency,
	}, nil
}

func (m *Metrics) observeAllocation(scope string, blockSize int, seconds float64, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.allocations.WithLabelValues(scope, result).Inc()
	m.latency.WithLabelValues(scope).Observe(seconds)
	if err == nil {
		m.reserved.WithLabelValues(scope).Add(float64(blockSize))
	}
}

func (m *Metrics) observeEraPromotion(scope string) {
	if m == nil {
		return
	}
	m.eraPromotions.WithLabelValues(scope).Inc()
}
