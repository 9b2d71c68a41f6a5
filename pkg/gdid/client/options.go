package client

import (
	"github.com/lk2023060901/xdooria-gdid/pkg/gdid"
	"github.com/lk2023060901/xdooria-gdid/pkg/logger"
)

// Option Generator 选项
type Option func(*Generator)

// WithLogger 设置日志
func WithLogger(l logger.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithClock 注入时钟（自适应大小使用）
func WithClock(c gdid.Clock) Option {
	return func(g *Generator) {
		if c != nil {
			g.clock = c
		}
	}
}

// WithMetrics 设置指标
func WithMetrics(m *Metrics) Option {
	return func(g *Generator) {
		g.metrics = m
	}
}

// GenerateOption 单次调用选项
type GenerateOption func(*generateOptions)

type generateOptions struct {
	blockSize  int
	vicinity   *uint64
	noPrefetch bool
}

// WithBlockSize 指定 block 大小，<=0 表示自适应
func WithBlockSize(n int) GenerateOption {
	return func(o *generateOptions) {
		o.blockSize = n
	}
}

// WithVicinity 传给权威节点的位置提示，权威节点可以忽略
func WithVicinity(v uint64) GenerateOption {
	return func(o *generateOptions) {
		o.vicinity = &v
	}
}

// WithoutPrefetch 本次调用不触发低水位预取
func WithoutPrefetch() GenerateOption {
	return func(o *generateOptions) {
		o.noPrefetch = true
	}
}

func applyGenerateOptions(opts []GenerateOption) generateOptions {
	var o generateOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
