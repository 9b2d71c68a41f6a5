// Package discovery 从服务注册中心获取权威节点列表，并按 zone 换算距离
package discovery

import (
	"context"
	"strings"

	"github.com/lk2023060901/xdooria-gdid/pkg/gdid"
	"github.com/lk2023060901/xdooria-gdid/pkg/logger"
	"github.com/lk2023060901/xdooria-gdid/pkg/registry"
	"github.com/lk2023060901/xdooria-gdid/pkg/registry/etcd"
)

// DefaultServiceName 权威节点注册的服务名
const DefaultServiceName = "gdid-authority"

// DefaultDistanceKm 未配置 zone 的节点距离，排在已知 zone 之后
const DefaultDistanceKm = 10000

// Config 服务发现配置
type Config struct {
	Enabled     bool   `mapstructure:"enabled" json:"enabled"`
	ServiceName string `mapstructure:"service_name" json:"service_name"`

	// Zones zone -> 距离（km），键不区分大小写
	Zones             map[string]float64 `mapstructure:"zones" json:"zones"`
	DefaultDistanceKm float64            `mapstructure:"default_distance_km" json:"default_distance_km"`

	Etcd etcd.Config `mapstructure:"etcd" json:"etcd"`
}

func (c *Config) serviceName() string {
	if c == nil || c.ServiceName == "" {
		return DefaultServiceName
	}
	return c.ServiceName
}

func (c *Config) distance(zone string) float64 {
	if c != nil {
		for z, km := range c.Zones {
			if strings.EqualFold(z, zone) {
				return km
			}
		}
		if c.DefaultDistanceKm > 0 {
			return c.DefaultDistanceKm
		}
	}
	return DefaultDistanceKm
}

// Hosts 把注册的实例换算为带距离的节点列表，地址重复的只保留一个
func Hosts(services []*registry.ServiceInfo, cfg *Config) []gdid.Host {
	seen := make(map[string]struct{}, len(services))
	hosts := make([]gdid.Host, 0, len(services))
	for _, s := range services {
		if s == nil || s.Address == "" {
			continue
		}
		if _, dup := seen[s.Address]; dup {
			continue
		}
		seen[s.Address] = struct{}{}
		hosts = append(hosts, gdid.Host{
			Name:       s.Address,
			DistanceKm: cfg.distance(s.Metadata[registry.MetaZone]),
		})
	}
	return hosts
}

// HostSetter 接收节点列表，*client.Generator 满足
type HostSetter interface {
	SetHosts(hosts []gdid.Host) error
}

// Sync 同步设置一次节点列表，然后在后台跟随变化直到 ctx 结束
//
// 变化后为空列表时保留旧列表，避免注册中心短暂抖动导致无节点可用。
func Sync(ctx context.Context, r registry.Resolver, cfg *Config, target HostSetter, l logger.Logger) error {
	if l == nil {
		l = logger.NewNoop()
	}
	l = l.Named("gdid.discovery")

	updates, err := r.Watch(ctx, cfg.serviceName())
	if err != nil {
		return err
	}

	apply := func(services []*registry.ServiceInfo) {
		hosts := Hosts(services, cfg)
		if len(hosts) == 0 {
			l.Warn("no authority registered, keeping previous hosts", "service", cfg.serviceName())
			return
		}
		if err := target.SetHosts(hosts); err != nil {
			l.Error("failed to apply discovered hosts", "error", err)
			return
		}
		l.Info("authority hosts updated", "count", len(hosts))
	}

	select {
	case services, ok := <-updates:
		if ok {
			apply(services)
		}
	case <-ctx.Done():
		return ctx.Err()
	}

	go func() {
		for services := range updates {
			apply(services)
		}
	}()
	return nil
}
