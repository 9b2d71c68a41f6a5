package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
)

// 组件只依赖本包，不直接引用 client_golang

type CounterVec = prometheus.CounterVec

type GaugeVec = prometheus.GaugeVec

type HistogramVec = prometheus.HistogramVec
