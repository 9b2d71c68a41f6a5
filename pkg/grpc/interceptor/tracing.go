package interceptor

import (
	"context"
	"strings"

	"github.com/lk2023060901/xdooria-gdid/pkg/otel"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// TracingConfig Tracing 拦截器配置
type TracingConfig struct {
	// 是否启用，未启用全局 provider 时 span 为 noop
	Enabled bool `mapstructure:"enabled" json:"enabled"`

	// Tracer 名称（默认 "grpc"）
	TracerName string `mapstructure:"tracer_name" json:"tracer_name"`
}

func (c *TracingConfig) tracerName() string {
	if c == nil || c.TracerName == "" {
		return "grpc"
	}
	return c.TracerName
}

func (c *TracingConfig) enabled() bool {
	return c == nil || c.Enabled
}

// ServerTracingInterceptor 从请求元数据恢复上游 trace，并为每次调用开 server span
func ServerTracingInterceptor(cfg *TracingConfig) grpc.UnaryServerInterceptor {
	if !cfg.enabled() {
		return func(ctx context.Context, req interface{}, _ *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
			return handler(ctx, req)
		}
	}
	tracer := cfg.tracerName()

	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		md, _ := metadata.FromIncomingContext(ctx)
		ctx = otel.Extract(ctx, metadataCarrier(md))

		ctx, span := otel.StartServerSpan(ctx, tracer, info.FullMethod, rpcAttributes(info.FullMethod)...)
		resp, err := handler(ctx, req)
		span.SetAttributes(otel.String(otel.RPCGRPCStatusCodeKey, status.Code(err).String()))
		otel.EndSpan(span, err)
		return resp, err
	}
}

// ClientTracingInterceptor 为每次调用开 client span，并把 trace context 写入元数据
func ClientTracingInterceptor(cfg *TracingConfig) grpc.UnaryClientInterceptor {
	if !cfg.enabled() {
		return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
			return invoker(ctx, method, req, reply, cc, opts...)
		}
	}
	tracer := cfg.tracerName()

	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		ctx, span := otel.StartClientSpan(ctx, tracer, method, rpcAttributes(method)...)
		if cc != nil {
			span.SetAttributes(otel.String("server.address", cc.Target()))
		}

		md, ok := metadata.FromOutgoingContext(ctx)
		if ok {
			md = md.Copy()
		} else {
			md = metadata.MD{}
		}
		otel.Inject(ctx, metadataCarrier(md))
		ctx = metadata.NewOutgoingContext(ctx, md)

		err := invoker(ctx, method, req, reply, cc, opts...)
		span.SetAttributes(otel.String(otel.RPCGRPCStatusCodeKey, status.Code(err).String()))
		otel.EndSpan(span, err)
		return err
	}
}

// rpcAttributes "/gdid.Authority/AllocateBlock" -> service gdid.Authority, method AllocateBlock
func rpcAttributes(fullMethod string) []otel.Attribute {
	service, method, _ := strings.Cut(strings.TrimPrefix(fullMethod, "/"), "/")
	return []otel.Attribute{
		otel.String(otel.RPCSystemKey, "grpc"),
		otel.String(otel.RPCServiceKey, service),
		otel.String(otel.RPCMethodKey, method),
	}
}

// metadataCarrier gRPC 元数据适配 TextMapCarrier
type metadataCarrier metadata.MD

func (c metadataCarrier) Get(key string) string {
	if v := metadata.MD(c).Get(key); len(v) > 0 {
		return v[0]
	}
	return ""
}

func (c metadataCarrier) Set(key, value string) {
	metadata.MD(c).Set(key, value)
}

func (c metadataCarrier) Keys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	return keys
}
