package interceptor

import (
	"context"
	"time"

	"github.com/lk2023060901/xdooria-gdid/pkg/prometheus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// ServerMetrics Server 端指标，名称带 prometheus.Client 的命名空间前缀
type ServerMetrics struct {
	handledTotal    *prometheus.CounterVec
	handlingSeconds *prometheus.HistogramVec
	inFlight        *prometheus.GaugeVec
}

// NewServerMetrics 在 client 上注册 gRPC Server 指标
func NewServerMetrics(client *prometheus.Client) (*ServerMetrics, error) {
	handled, err := client.NewCounter("grpc_server_handled_total",
		"Total number of RPCs completed on the server, regardless of success or failure.",
		[]string{"grpc_method", "grpc_code"})
	if err != nil {
		return nil, err
	}
	handling, err := client.NewHistogram("grpc_server_handling_seconds",
		"Response latency (seconds) of RPCs handled by the server.",
		[]string{"grpc_method"}, nil)
	if err != nil {
		return nil, err
	}
	inFlight, err := client.NewGauge("grpc_server_in_flight",
		"Number of RPCs currently being handled.",
		[]string{"grpc_method"})
	if err != nil {
		return nil, err
	}
	return &ServerMetrics{
		handledTotal:    handled,
		handlingSeconds: handling,
		inFlight:        inFlight,
	}, nil
}

// ServerMetricsInterceptor Server 端 Metrics 拦截器（Unary）
func ServerMetricsInterceptor(metrics *ServerMetrics) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		if metrics == nil {
			return handler(ctx, req)
		}

		method := info.FullMethod
		metrics.inFlight.WithLabelValues(method).Inc()
		defer metrics.inFlight.WithLabelValues(method).Dec()

		start := time.Now()
		resp, err := handler(ctx, req)

		metrics.handledTotal.WithLabelValues(method, status.Code(err).String()).Inc()
		metrics.handlingSeconds.WithLabelValues(method).Observe(time.Since(start).Seconds())
		return resp, err
	}
}
