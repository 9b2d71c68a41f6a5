package etcd

import (
	"context"
	"encoding/json"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-gdid/pkg/logger"
	"github.com/lk2023060901/xdooria-gdid/pkg/registry"
	clientv3 "go.etcd.io/etcd/client/v3"
)

var _ registry.Resolver = (*Resolver)(nil)

// Resolver 基于 etcd 的服务发现器
type Resolver struct {
	client Client
	config *Config
	logger logger.Logger
}

// NewResolver 创建服务发现器
func NewResolver(client Client, cfg *Config, l logger.Logger) *Resolver {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if l == nil {
		l = logger.NewNoop()
	}
	return &Resolver{
		client: client,
		config: cfg,
		logger: l.Named("resolver.etcd"),
	}
}

// Resolve 解析服务实例列表，无实例时返回空列表
func (r *Resolver) Resolve(ctx context.Context, serviceName string) ([]*registry.ServiceInfo, error) {
	resp, err := r.client.Get(ctx, servicePrefix(r.config.Namespace, serviceName), clientv3.WithPrefix())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to get services %s", serviceName)
	}

	services := make([]*registry.ServiceInfo, 0, len(resp.Kvs))
	for _, kv := range resp.Kvs {
		var info registry.ServiceInfo
		if err := json.Unmarshal(kv.Value, &info); err != nil {
			r.logger.Warn("failed to unmarshal service info", "key", string(kv.Key), "error", err)
			continue
		}
		services = append(services, &info)
	}

	r.logger.Debug("services resolved", "service", serviceName, "count", len(services))
	return services, nil
}

// Watch 先推送当前列表，之后每次变化推送最新列表；消费慢时只保留最新一次
func (r *Resolver) Watch(ctx context.Context, serviceName string) (<-chan []*registry.ServiceInfo, error) {
	initial, err := r.Resolve(ctx, serviceName)
	if err != nil {
		return nil, err
	}

	out := make(chan []*registry.ServiceInfo, 1)
	out <- initial

	events := r.client.Watch(ctx, servicePrefix(r.config.Namespace, serviceName), clientv3.WithPrefix())
	go func() {
		defer close(out)
		for resp := range events {
			if err := resp.Err(); err != nil {
				r.logger.Warn("watch error", "service", serviceName, "error", err)
				continue
			}
			services, err := r.Resolve(ctx, serviceName)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				r.logger.Error("failed to resolve services on watch event", "error", err)
				continue
			}
			select {
			case <-out:
			default:
			}
			select {
			case out <- services:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
