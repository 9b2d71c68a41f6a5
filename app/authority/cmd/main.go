package main

import (
	"github.com/lk2023060901/xdooria-gdid/app/authority/internal/lease"
	"github.com/lk2023060901/xdooria-gdid/pkg/app"
	"github.com/lk2023060901/xdooria-gdid/pkg/config"
	"github.com/lk2023060901/xdooria-gdid/pkg/gdid/authority"
	"github.com/lk2023060901/xdooria-gdid/pkg/gdid/persistence"
	"github.com/lk2023060901/xdooria-gdid/pkg/grpc/interceptor"
	"github.com/lk2023060901/xdooria-gdid/pkg/grpc/server"
	"github.com/lk2023060901/xdooria-gdid/pkg/logger"
	"github.com/lk2023060901/xdooria-gdid/pkg/otel"
	"github.com/lk2023060901/xdooria-gdid/pkg/prometheus"
	"github.com/lk2023060901/xdooria-gdid/pkg/registry/etcd"
	"github.com/lk2023060901/xdooria-gdid/pkg/sentry"
	"github.com/lk2023060901/xdooria-gdid/pkg/web"
)

// Config 权威节点的完整配置结构
type Config struct {
	Log     logger.Config             `mapstructure:"log"`
	Loggers map[string]*logger.Config `mapstructure:"loggers"`

	// ID 分配
	Authority   authority.Config   `mapstructure:"authority"`
	Persistence persistence.Config `mapstructure:"persistence"`

	// authority ID 租约（可选）
	Lease lease.Config `mapstructure:"lease"`

	// gRPC 分配服务
	GRPC        server.Config               `mapstructure:"grpc"`
	RateLimit   interceptor.RateLimitConfig `mapstructure:"rate_limit"`
	GRPCTracing interceptor.TracingConfig   `mapstructure:"grpc_tracing"`

	// etcd 服务注册（可选）
	Registry RegistryConfig `mapstructure:"registry"`

	// 管理端 HTTP 与指标
	HTTP       web.Config        `mapstructure:"http"`
	Prometheus prometheus.Config `mapstructure:"prometheus"`

	// 链路追踪与错误上报（可选）
	Tracing otel.Config   `mapstructure:"tracing"`
	Sentry  sentry.Config `mapstructure:"sentry"`
}

// RegistryConfig 服务注册配置
type RegistryConfig struct {
	Enabled bool        `mapstructure:"enabled"`
	Etcd    etcd.Config `mapstructure:"etcd"`
	// ServiceName 默认 gdid-authority
	ServiceName string `mapstructure:"service_name"`
	// AdvertiseAddress 客户端访问的地址，默认 <hostname><grpc.address>
	AdvertiseAddress string `mapstructure:"advertise_address"`
	// Zone 客户端按 zone 换算距离
	Zone string `mapstructure:"zone"`
}

func main() {
	var cfg Config

	// 1. 加载配置
	if err := app.LoadConfig(&cfg); err != nil {
		panic(err)
	}
	if err := config.NewValidator().Validate(&cfg); err != nil {
		panic(err)
	}

	// 2. 初始化主日志
	l, err := logger.New(&cfg.Log)
	if err != nil {
		panic(err)
	}

	// 3. 通过 Wire 初始化应用
	application, cleanup, err := InitApp(&cfg, l)
	if err != nil {
		l.Error("failed to initialize application", "error", err)
		return
	}
	defer cleanup()

	// 4. 运行服务
	if err := application.Run(); err != nil {
		l.Error("application exited with error", "error", err)
	}
}
