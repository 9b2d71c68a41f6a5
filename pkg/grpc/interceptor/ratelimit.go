package interceptor

import (
	"context"
	"sync"

	"github.com/lk2023060901/xdooria-gdid/pkg/logger"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// RateLimitConfig 限流拦截器配置
type RateLimitConfig struct {
	// 是否启用
	Enabled bool `mapstructure:"enabled" json:"enabled"`

	// 每秒允许的请求数（默认 1000）
	RequestsPerSecond int `mapstructure:"requests_per_second" json:"requests_per_second"`

	// 突发容量（默认 RequestsPerSecond * 2）
	Burst int `mapstructure:"burst" json:"burst"`

	// 是否按方法限流（默认全局限流）
	PerMethod bool `mapstructure:"per_method" json:"per_method"`
}

// DefaultRateLimitConfig 默认配置
func DefaultRateLimitConfig() *RateLimitConfig {
	return &RateLimitConfig{
		Enabled:           true,
		RequestsPerSecond: 1000,
		Burst:             2000,
	}
}

// RateLimiter 限流器
type RateLimiter struct {
	cfg      *RateLimitConfig
	logger   logger.Logger
	global   *rate.Limiter
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
}

// NewRateLimiter 创建限流器
func NewRateLimiter(l logger.Logger, cfg *RateLimitConfig) *RateLimiter {
	if cfg == nil {
		cfg = DefaultRateLimitConfig()
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = DefaultRateLimitConfig().RequestsPerSecond
	}
	if cfg.Burst == 0 {
		cfg.Burst = cfg.RequestsPerSecond * 2
	}
	if l == nil {
		l = logger.NewNoop()
	}

	rl := &RateLimiter{cfg: cfg, logger: l}
	if cfg.PerMethod {
		rl.limiters = make(map[string]*rate.Limiter)
	} else {
		rl.global = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)
	}
	return rl
}

// Allow 检查是否允许请求
func (rl *RateLimiter) Allow(method string) bool {
	if !rl.cfg.Enabled {
		return true
	}
	if rl.global != nil {
		return rl.global.Allow()
	}
	return rl.getLimiter(method).Allow()
}

// getLimiter 获取或创建方法级别的限流器
func (rl *RateLimiter) getLimiter(method string) *rate.Limiter {
	rl.mu.RLock()
	limiter, ok := rl.limiters[method]
	rl.mu.RUnlock()
	if ok {
		return limiter
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if limiter, ok := rl.limiters[method]; ok {
		return limiter
	}
	limiter = rate.NewLimiter(rate.Limit(rl.cfg.RequestsPerSecond), rl.cfg.Burst)
	rl.limiters[method] = limiter
	return limiter
}

// ServerRateLimitInterceptor Server 端限流拦截器（Unary）
//
// 被限流的请求返回 ResourceExhausted，客户端会换下一个权威节点。
func ServerRateLimitInterceptor(limiter *RateLimiter) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if !limiter.Allow(info.FullMethod) {
			limiter.logger.Warn("gRPC request rate limited", "grpc.method", info.FullMethod)
			return nil, status.Error(codes.ResourceExhausted, "rate limit exceeded")
		}
		return handler(ctx, req)
	}
}
