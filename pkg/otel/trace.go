package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// 组件只依赖本包，不直接引用 go.opentelemetry.io/otel
type (
	Span      = trace.Span
	Attribute = attribute.KeyValue
)

var (
	String = attribute.String
	Int    = attribute.Int
	Int64  = attribute.Int64
	Bool   = attribute.Bool
)

// RPC 语义属性键
const (
	RPCSystemKey         = "rpc.system"
	RPCServiceKey        = "rpc.service"
	RPCMethodKey         = "rpc.method"
	RPCGRPCStatusCodeKey = "rpc.grpc.status_code"
)

// StartSpan 在全局 provider 上开一个 internal span
func StartSpan(ctx context.Context, tracer, name string, attrs ...Attribute) (context.Context, Span) {
	return otel.Tracer(tracer).Start(ctx, name, trace.WithAttributes(attrs...))
}

// StartServerSpan 服务端 span，父 span 由调用方从请求元数据中提取
func StartServerSpan(ctx context.Context, tracer, name string, attrs ...Attribute) (context.Context, Span) {
	return otel.Tracer(tracer).Start(ctx, name, trace.WithSpanKind(trace.SpanKindServer), trace.WithAttributes(attrs...))
}

// StartClientSpan 客户端 span
func StartClientSpan(ctx context.Context, tracer, name string, attrs ...Attribute) (context.Context, Span) {
	return otel.Tracer(tracer).Start(ctx, name, trace.WithSpanKind(trace.SpanKindClient), trace.WithAttributes(attrs...))
}

// EndSpan 按 err 设置状态后结束 span
func EndSpan(span Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// Extract 从载体恢复上游 trace context
func Extract(ctx context.Context, carrier propagation.TextMapCarrier) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, carrier)
}

// Inject 把当前 trace context 写入载体
func Inject(ctx context.Context, carrier propagation.TextMapCarrier) {
	otel.GetTextMapPropagator().Inject(ctx, carrier)
}
