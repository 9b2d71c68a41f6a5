package server

import (
	"net"

	"github.com/lk2023060901/xdooria-gdid/pkg/logger"
	"google.golang.org/grpc"
)

// Option Server 配置选项
type Option func(*Server)

// WithLogger 设置自定义 logger
func WithLogger(l logger.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithListener 使用已有的监听器（测试中传入 bufconn）
func WithListener(lis net.Listener) Option {
	return func(s *Server) {
		s.listener = lis
	}
}

// WithServerOptions 添加 gRPC ServerOption
func WithServerOptions(opts ...grpc.ServerOption) Option {
	return func(s *Server) {
		s.grpcOpts = append(s.grpcOpts, opts...)
	}
}

// WithUnaryInterceptors 添加一元拦截器，按添加顺序执行
func WithUnaryInterceptors(interceptors ...grpc.UnaryServerInterceptor) Option {
	return func(s *Server) {
		s.unaryInterceptors = append(s.unaryInterceptors, interceptors...)
	}
}
