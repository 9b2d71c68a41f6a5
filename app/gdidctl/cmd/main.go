// gdidctl 向权威节点申请 GDID 并逐行输出
//
//	gdidctl --host auth-a:7700@5 --host auth-b:7700@900 --scope bank --sequence user -n 10
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/lk2023060901/xdooria-gdid/app/gdidctl/internal/cli"
	"github.com/lk2023060901/xdooria-gdid/pkg/app"
	"github.com/lk2023060901/xdooria-gdid/pkg/config"
	"github.com/lk2023060901/xdooria-gdid/pkg/gdid/client"
	"github.com/lk2023060901/xdooria-gdid/pkg/gdid/discovery"
	"github.com/lk2023060901/xdooria-gdid/pkg/gdid/transport/grpctransport"
	grpcclient "github.com/lk2023060901/xdooria-gdid/pkg/grpc/client"
	"github.com/lk2023060901/xdooria-gdid/pkg/grpc/interceptor"
	"github.com/lk2023060901/xdooria-gdid/pkg/logger"
	"github.com/lk2023060901/xdooria-gdid/pkg/otel"
	"github.com/lk2023060901/xdooria-gdid/pkg/registry/etcd"
	"github.com/spf13/pflag"
	"go.uber.org/zap/zapcore"
)

// Config 配置文件结构（可选，命令行参数优先）
type Config struct {
	Log    logger.Config     `mapstructure:"log"`
	Client client.Config     `mapstructure:"client"`
	GRPC   grpcclient.Config `mapstructure:"grpc"`

	// Discovery 从 etcd 获取权威节点，与 --host 同时给出时以 --host 为准
	Discovery discovery.Config `mapstructure:"discovery"`

	// Tracing 启用后每次申请的 span 与权威节点的 server span 串成同一条 trace
	Tracing otel.Config `mapstructure:"tracing"`
}

func main() {
	var (
		configPath string
		hostSpecs  []string
		req        cli.Request
		timeout    time.Duration
		verbose    bool
		version    bool
	)
	pflag.StringVarP(&configPath, "config", "c", "", "path to config file")
	pflag.StringArrayVar(&hostSpecs, "host", nil, "authority host as addr[@distanceKm], repeatable")
	pflag.StringVar(&req.Scope, "scope", "", "scope name")
	pflag.StringVar(&req.Sequence, "sequence", "", "sequence name")
	pflag.IntVarP(&req.Count, "count", "n", 1, "number of ids to generate")
	pflag.BoolVar(&req.Consecutive, "consecutive", false, "generate ids in consecutive batches")
	pflag.IntVar(&req.BlockSize, "block-size", 0, "block size hint (0 = adaptive)")
	pflag.StringVarP(&req.Format, "format", "f", cli.FormatText, "output format: text, id, hex")
	pflag.DurationVar(&timeout, "timeout", 30*time.Second, "overall deadline")
	pflag.BoolVarP(&verbose, "verbose", "v", false, "log failover details to stderr")
	pflag.BoolVar(&version, "version", false, "print version and exit")
	pflag.Parse()

	if version {
		fmt.Println(app.GetInfo())
		return
	}

	if err := run(configPath, hostSpecs, req, timeout, verbose); err != nil {
		fmt.Fprintln(os.Stderr, "gdidctl:", err)
		os.Exit(1)
	}
}

func run(configPath string, hostSpecs []string, req cli.Request, timeout time.Duration, verbose bool) error {
	cfg := Config{Client: *client.DefaultConfig()}
	cfg.Log = *logger.DefaultConfig()
	if configPath != "" {
		if err := app.LoadConfigFile(configPath, &cfg); err != nil {
			return err
		}
	}
	if len(hostSpecs) > 0 {
		hosts, err := cli.ParseHosts(hostSpecs)
		if err != nil {
			return err
		}
		cfg.Client.Hosts = hosts
	}
	if err := config.NewValidator().Validate(&cfg.Client); err != nil {
		return err
	}

	cfg.Log.Level = logger.ErrorLevel
	if verbose {
		cfg.Log.Level = logger.DebugLevel
	}
	cfg.Log.EnableConsole = true
	l, err := logger.New(&cfg.Log, logger.WithConsoleWriter(zapcore.AddSync(os.Stderr)))
	if err != nil {
		return err
	}
	defer func() { _ = l.Sync() }()

	if cfg.Tracing.ServiceName == "" {
		cfg.Tracing.ServiceName = "gdidctl"
	}
	tp, err := otel.New(context.Background(), &cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() { _ = tp.Close() }()

	transport, err := grpctransport.NewTransport(&cfg.GRPC,
		grpcclient.WithLogger(l),
		grpcclient.WithUnaryInterceptors(
			interceptor.ClientTracingInterceptor(&interceptor.TracingConfig{Enabled: tp.Enabled(), TracerName: "gdidctl"}),
			interceptor.ClientLoggingInterceptor(l),
		),
	)
	if err != nil {
		return err
	}

	gen, err := client.New(&cfg.Client, transport, client.WithLogger(l))
	if err != nil {
		_ = transport.Close()
		return err
	}
	defer func() { _ = gen.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if cfg.Discovery.Enabled && len(hostSpecs) == 0 {
		etcdCli, etcdCfg, err := etcd.Dial(&cfg.Discovery.Etcd)
		if err != nil {
			return err
		}
		defer func() { _ = etcdCli.Close() }()

		resolver := etcd.NewResolver(etcdCli, etcdCfg, l)
		if err := discovery.Sync(ctx, resolver, &cfg.Discovery, gen, l); err != nil {
			return err
		}
	}

	ctx, span := otel.StartSpan(ctx, "gdidctl", "gdidctl.generate",
		otel.String("gdid.scope", req.Scope),
		otel.String("gdid.sequence", req.Sequence),
		otel.Int("gdid.count", req.Count),
	)
	err = cli.Run(ctx, gen, req, os.Stdout)
	otel.EndSpan(span, err)
	return err
}
