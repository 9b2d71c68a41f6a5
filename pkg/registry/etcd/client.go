// Package etcd 基于 etcd 租约的服务注册与发现
package etcd

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-gdid/pkg/config"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// Client Registrar/Resolver 用到的 etcd 操作，*clientv3.Client 满足
type Client interface {
	Grant(ctx context.Context, ttl int64) (*clientv3.LeaseGrantResponse, error)
	KeepAlive(ctx context.Context, id clientv3.LeaseID) (<-chan *clientv3.LeaseKeepAliveResponse, error)
	Revoke(ctx context.Context, id clientv3.LeaseID) (*clientv3.LeaseRevokeResponse, error)
	Put(ctx context.Context, key, val string, opts ...clientv3.OpOption) (*clientv3.PutResponse, error)
	Get(ctx context.Context, key string, opts ...clientv3.OpOption) (*clientv3.GetResponse, error)
	Delete(ctx context.Context, key string, opts ...clientv3.OpOption) (*clientv3.DeleteResponse, error)
	Watch(ctx context.Context, key string, opts ...clientv3.OpOption) clientv3.WatchChan
}

// Dial 按配置连接 etcd
func Dial(cfg *Config) (*clientv3.Client, *Config, error) {
	merged, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to merge config")
	}
	if err := merged.Validate(); err != nil {
		return nil, nil, err
	}

	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   merged.Endpoints,
		DialTimeout: merged.DialTimeout,
		Username:    merged.Username,
		Password:    merged.Password,
	})
	if err != nil {
		return nil, nil, errors.Wrap(err, "failed to create etcd client")
	}
	return cli, merged, nil
}

func servicePrefix(namespace, serviceName string) string {
	return fmt.Sprintf("%s/%s/", strings.TrimSuffix(namespace, "/"), serviceName)
}
