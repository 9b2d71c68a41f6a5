package etcd

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-gdid/pkg/logger"
	"github.com/lk2023060901/xdooria-gdid/pkg/registry"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// reRegisterBackoff 心跳中断后重新注册的间隔
var reRegisterBackoff = time.Second

var _ registry.Registrar = (*Registrar)(nil)

// Registrar 基于 etcd 租约的服务注册器，租约到期后实例自动消失
type Registrar struct {
	client Client
	config *Config
	logger logger.Logger

	mu      sync.Mutex
	info    *registry.ServiceInfo
	leaseID clientv3.LeaseID
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewRegistrar 创建注册器；cfg 需已通过 Validate（Dial 返回的配置）
func NewRegistrar(client Client, cfg *Config, l logger.Logger) *Registrar {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if l == nil {
		l = logger.NewNoop()
	}
	return &Registrar{
		client: client,
		config: cfg,
		logger: l.Named("registry.etcd"),
	}
}

// Register 注册服务并在后台保持租约
func (r *Registrar) Register(ctx context.Context, info *registry.ServiceInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.info != nil {
		return errors.Newf("registry: %s already registered", r.info.Address)
	}
	leaseID, err := r.put(ctx, info)
	if err != nil {
		return err
	}
	r.info = info
	r.leaseID = leaseID

	loopCtx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.done = make(chan struct{})
	go r.keepAlive(loopCtx, leaseID, r.done)

	r.logger.Info("service registered",
		"service", info.ServiceName,
		"address", info.Address,
		"lease_id", int64(leaseID),
	)
	return nil
}

func (r *Registrar) put(ctx context.Context, info *registry.ServiceInfo) (clientv3.LeaseID, error) {
	value, err := json.Marshal(info)
	if err != nil {
		return 0, errors.Wrap(err, "failed to marshal service info")
	}

	lease, err := r.client.Grant(ctx, int64(r.config.TTL/time.Second))
	if err != nil {
		return 0, errors.Wrap(err, "failed to grant lease")
	}
	if _, err := r.client.Put(ctx, r.key(info), string(value), clientv3.WithLease(lease.ID)); err != nil {
		return 0, errors.Wrap(err, "failed to register service")
	}
	return lease.ID, nil
}

// keepAlive 保持心跳，通道关闭（租约过期或连接中断）后重新注册
func (r *Registrar) keepAlive(ctx context.Context, leaseID clientv3.LeaseID, done chan struct{}) {
	defer close(done)

	for {
		ch, err := r.client.KeepAlive(ctx, leaseID)
		if err == nil {
			for range ch {
			}
		}
		if ctx.Err() != nil {
			return
		}
		r.logger.Warn("keep alive interrupted, re-registering", "lease_id", int64(leaseID), "error", err)

		for {
			select {
			case <-ctx.Done():
				return
			case <-time.After(reRegisterBackoff):
			}

			r.mu.Lock()
			info := r.info
			r.mu.Unlock()
			if info == nil {
				return
			}

			id, err := r.put(ctx, info)
			if err != nil {
				r.logger.Error("failed to re-register service", "error", err)
				continue
			}
			r.mu.Lock()
			r.leaseID = id
			r.mu.Unlock()
			leaseID = id
			r.logger.Info("service re-registered", "address", info.Address, "lease_id", int64(id))
			break
		}
	}
}

// Deregister 停止心跳，删除注册信息并撤销租约
func (r *Registrar) Deregister(ctx context.Context) error {
	r.mu.Lock()
	info, leaseID, cancel, done := r.info, r.leaseID, r.cancel, r.done
	r.info, r.cancel, r.done = nil, nil, nil
	r.mu.Unlock()

	if info == nil {
		return nil
	}
	cancel()
	<-done

	var combined error
	if _, err := r.client.Delete(ctx, r.key(info)); err != nil {
		combined = errors.Wrap(err, "failed to deregister service")
	}
	if _, err := r.client.Revoke(ctx, leaseID); err != nil {
		r.logger.Warn("failed to revoke lease", "error", err)
	}

	r.logger.Info("service deregistered", "service", info.ServiceName, "address", info.Address)
	return combined
}

func (r *Registrar) key(info *registry.ServiceInfo) string {
	return servicePrefix(r.config.Namespace, info.ServiceName) + info.Address
}
