//go:build wireinject
// +build wireinject

package main

import (
	"github.com/google/wire"
	"github.com/lk2023060901/xdooria-gdid/pkg/app"
	"github.com/lk2023060901/xdooria-gdid/pkg/gdid/authority"
	"github.com/lk2023060901/xdooria-gdid/pkg/gdid/persistence"
	"github.com/lk2023060901/xdooria-gdid/pkg/grpc/interceptor"
	"github.com/lk2023060901/xdooria-gdid/pkg/logger"
	"github.com/lk2023060901/xdooria-gdid/pkg/web/middleware"
)

func InitApp(cfg *Config, l logger.Logger) (app.Application, func(), error) {
	panic(wire.Build(
		// 1. 基础框架 (BaseApp)
		provideAppOptions,
		app.ProviderSet,

		// 2. Prometheus 客户端与各层指标
		providePrometheus,
		authority.NewMetrics,
		persistence.NewMetrics,
		interceptor.NewServerMetrics,
		middleware.NewHTTPMetrics,

		// 3. 链路追踪与错误上报
		provideTracing,
		provideSentry,

		// 4. 持久化与分配器
		provideFanout,
		provideAllocator,

		// 5. authority ID 租约
		provideLease,

		// 6. gRPC 分配服务与管理端 HTTP
		provideGRPCServer,
		provideWebServer,

		// 7. etcd 服务注册
		provideRegistration,

		// 8. 组装
		provideAppComponents,
	))
}
