// Package otel 链路追踪：TracerProvider 构建与 span 辅助函数
//
// 分配链路 gdidctl -> authority gRPC -> 持久化扇出 在同一条 trace 上。
package otel

import (
	"context"
	"sync/atomic"

	"github.com/lk2023060901/xdooria-gdid/pkg/config"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
)

// TracerProvider 持有 sdk provider；未启用时为空壳，span 走全局 noop
type TracerProvider struct {
	config   *Config
	provider *sdktrace.TracerProvider
	closed   atomic.Bool
}

// Option 构建选项
type Option func(*options)

type options struct {
	processors []sdktrace.SpanProcessor
}

// WithSpanProcessor 追加 span 处理器（测试里挂 tracetest.SpanRecorder）
func WithSpanProcessor(sp sdktrace.SpanProcessor) Option {
	return func(o *options) { o.processors = append(o.processors, sp) }
}

// New 创建并设置为全局 TracerProvider 和 W3C 传播器
func New(ctx context.Context, cfg *Config, opts ...Option) (*TracerProvider, error) {
	merged, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, err
	}
	if err := merged.Validate(); err != nil {
		return nil, err
	}
	if !merged.Enabled {
		return &TracerProvider{config: merged}, nil
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	exporter, err := newExporter(ctx, merged)
	if err != nil {
		return nil, err
	}

	attrs := []attribute.KeyValue{semconv.ServiceName(merged.ServiceName)}
	for k, v := range merged.Attributes {
		attrs = append(attrs, attribute.String(k, v))
	}

	sdkOpts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(resource.NewWithAttributes(semconv.SchemaURL, attrs...)),
		sdktrace.WithSampler(newSampler(merged.Sampler)),
	}
	if exporter != nil {
		sdkOpts = append(sdkOpts, sdktrace.WithBatcher(exporter,
			sdktrace.WithBatchTimeout(merged.BatchExport.BatchTimeout),
			sdktrace.WithExportTimeout(merged.BatchExport.ExportTimeout),
			sdktrace.WithMaxExportBatchSize(merged.BatchExport.BatchSize),
			sdktrace.WithMaxQueueSize(merged.BatchExport.MaxQueueSize),
		))
	}
	for _, sp := range o.processors {
		sdkOpts = append(sdkOpts, sdktrace.WithSpanProcessor(sp))
	}

	provider := sdktrace.NewTracerProvider(sdkOpts...)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return &TracerProvider{config: merged, provider: provider}, nil
}

func newSampler(cfg SamplerConfig) sdktrace.Sampler {
	switch cfg.Type {
	case SamplerTypeAlways:
		return sdktrace.AlwaysSample()
	case SamplerTypeNever:
		return sdktrace.NeverSample()
	case SamplerTypeRatio:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.Ratio))
	default:
		return sdktrace.ParentBased(sdktrace.AlwaysSample())
	}
}

// Enabled 是否真正在采集
func (p *TracerProvider) Enabled() bool {
	return p.provider != nil
}

func (p *TracerProvider) Config() *Config {
	return p.config
}

// ForceFlush 导出所有已结束的 span
func (p *TracerProvider) ForceFlush(ctx context.Context) error {
	if p.provider == nil {
		return nil
	}
	return p.provider.ForceFlush(ctx)
}

// Close 刷出剩余 span 并关闭，作为 app.Closer 使用
func (p *TracerProvider) Close() error {
	if p.closed.Swap(true) {
		return ErrProviderClosed
	}
	if p.provider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), p.config.ShutdownTimeout)
	defer cancel()
	return p.provider.Shutdown(ctx)
}
