package main

import (
	"context"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-gdid/app/authority/internal/handler"
	"github.com/lk2023060901/xdooria-gdid/app/authority/internal/lease"
	"github.com/lk2023060901/xdooria-gdid/pkg/app"
	"github.com/lk2023060901/xdooria-gdid/pkg/database/redis"
	"github.com/lk2023060901/xdooria-gdid/pkg/gdid/authority"
	"github.com/lk2023060901/xdooria-gdid/pkg/gdid/discovery"
	"github.com/lk2023060901/xdooria-gdid/pkg/gdid/persistence"
	"github.com/lk2023060901/xdooria-gdid/pkg/gdid/transport/grpctransport"
	"github.com/lk2023060901/xdooria-gdid/pkg/grpc/interceptor"
	"github.com/lk2023060901/xdooria-gdid/pkg/grpc/server"
	"github.com/lk2023060901/xdooria-gdid/pkg/logger"
	"github.com/lk2023060901/xdooria-gdid/pkg/otel"
	"github.com/lk2023060901/xdooria-gdid/pkg/prometheus"
	"github.com/lk2023060901/xdooria-gdid/pkg/registry"
	"github.com/lk2023060901/xdooria-gdid/pkg/registry/etcd"
	"github.com/lk2023060901/xdooria-gdid/pkg/sentry"
	"github.com/lk2023060901/xdooria-gdid/pkg/web"
	"github.com/lk2023060901/xdooria-gdid/pkg/web/middleware"
	"github.com/spf13/afero"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// 启动阶段打开持久化位置、获取租约的超时
const bootstrapTimeout = 30 * time.Second

func provideAppOptions(cfg *Config, l logger.Logger) []app.Option {
	return []app.Option{
		app.WithName(app.AppName),
		app.WithLogger(l),
		app.WithNamedLoggers(cfg.Loggers),
	}
}

func providePrometheus(cfg *Config) (*prometheus.Client, error) {
	return prometheus.New(&cfg.Prometheus)
}

// provideTracing 未启用时返回空壳，span 全部为 noop
func provideTracing(cfg *Config, l logger.Logger) (*otel.TracerProvider, func(), error) {
	tc := cfg.Tracing
	if tc.ServiceName == "" {
		tc.ServiceName = "gdid-authority"
	}
	tp, err := otel.New(context.Background(), &tc)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := tp.Close(); err != nil {
			l.Error("failed to close tracer provider", "error", err)
		}
	}
	return tp, cleanup, nil
}

// provideSentry 未配置 DSN 时返回 nil
func provideSentry(cfg *Config, l logger.Logger) (*sentry.Client, func(), error) {
	if !cfg.Sentry.Enabled() {
		return nil, func() {}, nil
	}
	client, err := sentry.New(&cfg.Sentry)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := client.Close(); err != nil {
			l.Error("failed to flush sentry events", "error", err)
		}
	}
	return client, cleanup, nil
}

func provideFanout(cfg *Config, l logger.Logger, m *persistence.Metrics) (*persistence.Fanout, func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), bootstrapTimeout)
	defer cancel()

	fanout, err := persistence.Open(ctx, &cfg.Persistence, afero.NewOsFs(),
		persistence.WithLogger(l),
		persistence.WithMetrics(m),
	)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := fanout.Close(); err != nil {
			l.Error("failed to close persistence", "error", err)
		}
	}
	return fanout, cleanup, nil
}

func provideAllocator(cfg *Config, fanout *persistence.Fanout, l logger.Logger, m *authority.Metrics, reporter *sentry.Client) (*authority.Allocator, func(), error) {
	opts := []authority.Option{
		authority.WithLogger(l),
		authority.WithMetrics(m),
	}
	if reporter != nil {
		opts = append(opts, authority.WithReporter(reporter))
	}
	alloc, err := authority.New(&cfg.Authority, fanout, opts...)
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		_ = alloc.Close()
	}
	return alloc, cleanup, nil
}

// provideLease 在对外服务前获取全部 authority ID 的租约；
// 租约丢失时立即关闭分配器（客户端转向其它节点）并让进程退出
func provideLease(cfg *Config, l logger.Logger, baseApp *app.BaseApp, alloc *authority.Allocator) (*lease.Keeper, func(), error) {
	if !cfg.Lease.Enabled {
		l.Warn("authority lease disabled, authority ids must be unique by deployment")
		keeper := lease.NewKeeper(nil, 0, l, nil)
		return keeper, func() { _ = keeper.Close() }, nil
	}

	client, err := redis.NewClient(&cfg.Lease.Redis)
	if err != nil {
		return nil, nil, err
	}
	lockers := lease.RedisLockers(client, cfg.Lease.KeyPrefix, cfg.Authority.AuthorityIDs, cfg.Lease.TTL)
	keeper := lease.NewKeeper(lockers, cfg.Lease.TTL, l, func(err error) {
		_ = alloc.Close()
		baseApp.Stop()
	}).WithCloser(client.Close)

	ctx, cancel := context.WithTimeout(context.Background(), bootstrapTimeout)
	defer cancel()
	if err := keeper.Acquire(ctx); err != nil {
		_ = client.Close()
		return nil, nil, err
	}
	cleanup := func() {
		if err := keeper.Close(); err != nil {
			l.Error("failed to release authority lease", "error", err)
		}
	}
	return keeper, cleanup, nil
}

// provideGRPCServer 依赖 *otel.TracerProvider 以保证全局 provider 先于 tracing 拦截器就绪
func provideGRPCServer(
	cfg *Config,
	l logger.Logger,
	alloc *authority.Allocator,
	m *interceptor.ServerMetrics,
	_ *otel.TracerProvider,
	reporter *sentry.Client,
) (*server.Server, error) {
	recovery := interceptor.DefaultRecoveryConfig()
	if reporter != nil {
		recovery.RecoveryHandler = func(ctx context.Context, p interface{}) error {
			reporter.Recover(ctx, p)
			return status.Errorf(codes.Internal, "internal server error: %v", p)
		}
	}

	srv, err := server.New(&cfg.GRPC,
		server.WithLogger(l),
		server.WithUnaryInterceptors(
			interceptor.ServerTracingInterceptor(&cfg.GRPCTracing),
			interceptor.ServerRecoveryInterceptor(l, recovery),
			interceptor.ServerMetricsInterceptor(m),
			interceptor.ServerLoggingInterceptor(l, nil),
			interceptor.ServerRateLimitInterceptor(interceptor.NewRateLimiter(l, &cfg.RateLimit)),
		),
	)
	if err != nil {
		return nil, err
	}
	grpctransport.NewService(alloc, l).Register(srv)
	return srv, nil
}

func provideWebServer(
	cfg *Config,
	l logger.Logger,
	baseApp *app.BaseApp,
	alloc *authority.Allocator,
	fanout *persistence.Fanout,
	promClient *prometheus.Client,
	m *middleware.HTTPMetrics,
) (*web.Server, error) {
	srv, err := web.NewServer(&cfg.HTTP, l)
	if err != nil {
		return nil, err
	}
	r := srv.Router()
	r.Use(middleware.Metrics(m))
	handler.NewAdmin(alloc, baseApp.ID(), fanout.Locations(), promClient.Handler(), promClient.Config().Path).Register(r)
	return srv, nil
}

// registration gRPC 服务启动后注册到 etcd，停止时注销
type registration struct {
	registrar *etcd.Registrar
	info      *registry.ServiceInfo
	closer    func() error
}

func (r *registration) Start() error {
	if r.registrar == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), bootstrapTimeout)
	defer cancel()
	return r.registrar.Register(ctx, r.info)
}

func (r *registration) Stop(ctx context.Context) error {
	if r.registrar == nil {
		return nil
	}
	return errors.CombineErrors(r.registrar.Deregister(ctx), r.closer())
}

func provideRegistration(cfg *Config, l logger.Logger) (*registration, error) {
	rc := cfg.Registry
	if !rc.Enabled {
		return &registration{}, nil
	}

	cli, etcdCfg, err := etcd.Dial(&rc.Etcd)
	if err != nil {
		return nil, err
	}

	addr := rc.AdvertiseAddress
	if addr == "" {
		addr = cfg.GRPC.Address
		if strings.HasPrefix(addr, ":") {
			host, err := os.Hostname()
			if err != nil {
				_ = cli.Close()
				return nil, errors.Wrap(err, "advertise address")
			}
			addr = host + addr
		}
	}
	name := rc.ServiceName
	if name == "" {
		name = discovery.DefaultServiceName
	}

	ids := make([]string, 0, len(cfg.Authority.AuthorityIDs))
	for _, id := range cfg.Authority.AuthorityIDs {
		ids = append(ids, strconv.Itoa(int(id)))
	}
	return &registration{
		registrar: etcd.NewRegistrar(cli, etcdCfg, l),
		info: &registry.ServiceInfo{
			ServiceName: name,
			Address:     addr,
			Metadata: map[string]string{
				registry.MetaZone:         rc.Zone,
				registry.MetaHostName:     cfg.Authority.HostName,
				registry.MetaAuthorityIDs: strings.Join(ids, ","),
			},
		},
		closer: cli.Close,
	}, nil
}

// provideAppComponents 依赖 *lease.Keeper 以保证租约先于服务启动获取
func provideAppComponents(
	grpcSrv *server.Server,
	webSrv *web.Server,
	reg *registration,
	_ *lease.Keeper,
	promClient *prometheus.Client,
) app.AppComponents {
	return app.AppComponents{
		Servers: []app.Server{grpcSrv, webSrv, reg},
		Closers: []app.Closer{promClient},
	}
}
