package interceptor

import (
	"context"
	"runtime/debug"

	"github.com/lk2023060901/xdooria-gdid/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// RecoveryConfig Recovery 拦截器配置
type RecoveryConfig struct {
	// 是否启用（默认 true）
	Enabled bool

	// 自定义恢复处理函数
	RecoveryHandler func(ctx context.Context, p interface{}) error
}

// DefaultRecoveryConfig 默认配置
func DefaultRecoveryConfig() *RecoveryConfig {
	return &RecoveryConfig{Enabled: true}
}

// ServerRecoveryInterceptor Server 端 Recovery 拦截器（Unary）
func ServerRecoveryInterceptor(l logger.Logger, cfg *RecoveryConfig) grpc.UnaryServerInterceptor {
	if cfg == nil {
		cfg = DefaultRecoveryConfig()
	}

	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp interface{}, err error) {
		if !cfg.Enabled {
			return handler(ctx, req)
		}

		defer func() {
			if p := recover(); p != nil {
				l.ErrorContext(ctx, "gRPC panic recovered",
					"grpc.method", info.FullMethod,
					"panic", p,
					"stack", string(debug.Stack()),
				)

				if cfg.RecoveryHandler != nil {
					err = cfg.RecoveryHandler(ctx, p)
				} else {
					err = status.Errorf(codes.Internal, "internal server error: %v", p)
				}
			}
		}()

		return handler(ctx, req)
	}
}
