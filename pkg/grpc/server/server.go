// Package server gRPC Server 封装：监听、健康检查、拦截器链、优雅关闭
package server

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-gdid/pkg/config"
	"github.com/lk2023060901/xdooria-gdid/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// Server gRPC Server 封装
type Server struct {
	config *Config
	server *grpc.Server
	logger logger.Logger

	grpcOpts          []grpc.ServerOption
	unaryInterceptors []grpc.UnaryServerInterceptor

	healthServer *health.Server

	mu       sync.RWMutex
	started  bool
	listener net.Listener
	serveErr chan error
}

// New 创建 gRPC Server
func New(cfg *Config, opts ...Option) (*Server, error) {
	newCfg, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to merge config")
	}
	if err := newCfg.Validate(); err != nil {
		return nil, err
	}

	s := &Server{
		config: newCfg,
		logger: logger.NewNoop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.Named("grpc.server")

	s.server = grpc.NewServer(s.buildServerOptions()...)

	if newCfg.EnableHealthCheck {
		s.healthServer = health.NewServer()
		grpc_health_v1.RegisterHealthServer(s.server, s.healthServer)
	}
	if newCfg.EnableReflection {
		reflection.Register(s.server)
	}
	return s, nil
}

// Start 开始监听并在后台 Serve
func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return ErrServerAlreadyStarted
	}

	if s.listener == nil {
		lis, err := net.Listen(s.config.Network, s.config.Address)
		if err != nil {
			return errors.Wrapf(err, "failed to listen on %s://%s", s.config.Network, s.config.Address)
		}
		s.listener = lis
	}

	if s.healthServer != nil {
		s.healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	}
	s.started = true

	s.logger.Info("gRPC server starting",
		"name", s.config.Name,
		"address", s.listener.Addr().String(),
	)

	s.serveErr = make(chan error, 1)
	lis := s.listener
	go func() {
		s.serveErr <- s.server.Serve(lis)
	}()
	return nil
}

// Stop 优雅停止，超时后强制停止
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return ErrServerNotStarted
	}
	s.logger.Info("gracefully stopping gRPC server")

	if s.healthServer != nil {
		s.healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	}

	done := make(chan struct{})
	go func() {
		s.server.GracefulStop()
		close(done)
	}()

	timer := time.NewTimer(s.config.GracefulStopTimeout)
	defer timer.Stop()
	select {
	case <-done:
		s.logger.Info("gRPC server stopped gracefully")
	case <-timer.C:
		s.logger.Warn("graceful stop timeout, forcing stop")
		s.server.Stop()
	case <-ctx.Done():
		s.logger.Warn("graceful stop canceled, forcing stop")
		s.server.Stop()
	}

	if err := <-s.serveErr; err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		s.logger.Warn("serve ended with error", "error", err)
	}
	s.started = false
	return nil
}

// RegisterService 注册 gRPC 服务，必须在 Start 之前调用
func (s *Server) RegisterService(desc *grpc.ServiceDesc, impl interface{}) {
	s.server.RegisterService(desc, impl)
}

// Addr 监听地址，未启动时为空
func (s *Server) Addr() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

func (s *Server) buildServerOptions() []grpc.ServerOption {
	opts := []grpc.ServerOption{
		grpc.MaxRecvMsgSize(s.config.MaxRecvMsgSize),
		grpc.MaxSendMsgSize(s.config.MaxSendMsgSize),
		grpc.KeepaliveParams(s.config.KeepAliveParams),
		grpc.KeepaliveEnforcementPolicy(s.config.KeepAliveEnforcement),
	}
	if len(s.unaryInterceptors) > 0 {
		opts = append(opts, grpc.ChainUnaryInterceptor(s.unaryInterceptors...))
	}
	return append(opts, s.grpcOpts...)
}
