package interceptor

import (
	"context"
	"slices"
	"time"

	"github.com/lk2023060901/xdooria-gdid/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

// LoggingConfig 日志拦截器配置
type LoggingConfig struct {
	// 是否启用（默认 true）
	Enabled bool

	// 是否记录耗时（默认 true）
	LogDuration bool

	// 是否记录 peer 信息（默认 true）
	LogPeer bool

	// 成功的请求按 Debug 记录，分配请求量大时避免刷屏
	SuccessAtDebug bool

	// 跳过的方法列表
	SkipMethods []string
}

// DefaultLoggingConfig 默认配置
func DefaultLoggingConfig() *LoggingConfig {
	return &LoggingConfig{
		Enabled:        true,
		LogDuration:    true,
		LogPeer:        true,
		SuccessAtDebug: true,
		SkipMethods:    []string{"/grpc.health.v1.Health/Check", "/grpc.health.v1.Health/Watch"},
	}
}

// ServerLoggingInterceptor Server 端日志拦截器（Unary）
func ServerLoggingInterceptor(log logger.Logger, cfg *LoggingConfig) grpc.UnaryServerInterceptor {
	if cfg == nil {
		cfg = DefaultLoggingConfig()
	}

	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if !cfg.Enabled || slices.Contains(cfg.SkipMethods, info.FullMethod) {
			return handler(ctx, req)
		}

		start := time.Now()
		resp, err := handler(ctx, req)
		code := status.Code(err)

		fields := []interface{}{
			"grpc.method", info.FullMethod,
			"grpc.code", code.String(),
		}
		if traceID := extractTraceID(ctx); traceID != "" {
			fields = append(fields, "trace_id", traceID)
		}
		if cfg.LogPeer {
			if p, ok := peer.FromContext(ctx); ok && p.Addr != nil {
				fields = append(fields, "grpc.peer", p.Addr.String())
			}
		}
		if cfg.LogDuration {
			fields = append(fields, "grpc.duration", time.Since(start))
		}

		switch {
		case err == nil && cfg.SuccessAtDebug:
			log.Debug("gRPC request completed", fields...)
		case err == nil:
			log.Info("gRPC request completed", fields...)
		case code == codes.Internal || code == codes.Unknown:
			log.Error("gRPC request failed", append(fields, "error", err)...)
		default:
			log.Warn("gRPC request failed", append(fields, "error", err)...)
		}
		return resp, err
	}
}

// ClientLoggingInterceptor Client 端日志拦截器（Unary），只记录失败
func ClientLoggingInterceptor(log logger.Logger) grpc.UnaryClientInterceptor {
	return func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, invoker grpc.UnaryInvoker, opts ...grpc.CallOption) error {
		start := time.Now()
		err := invoker(ctx, method, req, reply, cc, opts...)
		if err != nil {
			log.DebugContext(ctx, "gRPC client request failed",
				"grpc.method", method,
				"grpc.target", cc.Target(),
				"grpc.code", status.Code(err).String(),
				"grpc.duration", time.Since(start),
				"error", err,
			)
		}
		return err
	}
}

// extractTraceID 从 metadata 提取 x-trace-id
func extractTraceID(ctx context.Context) string {
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if ids := md.Get("x-trace-id"); len(ids) > 0 {
			return ids[0]
		}
	}
	return ""
}
