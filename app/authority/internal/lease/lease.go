// Package lease 用 redis 租约保证同一个 authority ID 在集群内只被一个进程持有
package lease

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-gdid/pkg/database/redis"
	"github.com/lk2023060901/xdooria-gdid/pkg/logger"
)

// Config 租约配置
type Config struct {
	Enabled   bool          `mapstructure:"enabled" json:"enabled"`
	KeyPrefix string        `mapstructure:"key_prefix" json:"key_prefix"`
	TTL       time.Duration `mapstructure:"ttl" json:"ttl"`
	Redis     redis.Config  `mapstructure:"redis" json:"redis"`
}

// DefaultKeyPrefix 租约键前缀
const DefaultKeyPrefix = "gdid:authority:"

// Locker 单个租约，*redis.Lock 满足
type Locker interface {
	Key() string
	TryLock(ctx context.Context) error
	Refresh(ctx context.Context) error
	Unlock(ctx context.Context) error
}

// RedisLockers 为每个 authority ID 创建一个租约
func RedisLockers(client *redis.Client, prefix string, ids []uint8, ttl time.Duration) []Locker {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	out := make([]Locker, 0, len(ids))
	for _, id := range ids {
		out = append(out, redis.NewLock(client, fmt.Sprintf("%s%d", prefix, id), ttl))
	}
	return out
}

// Keeper 获取全部租约并在后台续期；续期失败视为租约丢失
type Keeper struct {
	lockers []Locker
	ttl     time.Duration
	logger  logger.Logger
	onLost  func(error)

	mu     sync.Mutex
	held   []Locker
	cancel context.CancelFunc
	done   chan struct{}
	closer func() error
}

// NewKeeper 创建 Keeper；onLost 在租约丢失时调用一次
func NewKeeper(lockers []Locker, ttl time.Duration, l logger.Logger, onLost func(error)) *Keeper {
	if l == nil {
		l = logger.NewNoop()
	}
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &Keeper{
		lockers: lockers,
		ttl:     ttl,
		logger:  l.Named("lease"),
		onLost:  onLost,
	}
}

// WithCloser 设置 Close 时额外释放的资源（redis 连接）
func (k *Keeper) WithCloser(fn func() error) *Keeper {
	k.closer = fn
	return k
}

// Acquire 获取全部租约，任何一个失败都会释放已获取的租约
func (k *Keeper) Acquire(ctx context.Context) error {
	k.mu.Lock()
	defer k.mu.Unlock()

	for _, lk := range k.lockers {
		if err := lk.TryLock(ctx); err != nil {
			k.releaseLocked(ctx)
			return errors.Wrapf(err, "authority lease %s", lk.Key())
		}
		k.held = append(k.held, lk)
		k.logger.Info("authority lease acquired", "key", lk.Key(), "ttl", k.ttl)
	}
	if len(k.held) == 0 {
		return nil
	}

	loopCtx, cancel := context.WithCancel(context.Background())
	k.cancel = cancel
	k.done = make(chan struct{})
	go k.refreshLoop(loopCtx, k.held, k.done)
	return nil
}

func (k *Keeper) refreshLoop(ctx context.Context, held []Locker, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(k.ttl / 3)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		for _, lk := range held {
			rctx, cancel := context.WithTimeout(ctx, k.ttl/3)
			err := lk.Refresh(rctx)
			cancel()
			if err == nil || ctx.Err() != nil {
				continue
			}
			k.logger.Error("authority lease lost", "key", lk.Key(), "error", err)
			if k.onLost != nil {
				k.onLost(errors.Wrapf(err, "authority lease %s", lk.Key()))
			}
			return
		}
	}
}

// Close 停止续期并释放租约
func (k *Keeper) Close() error {
	k.mu.Lock()
	cancel, done := k.cancel, k.done
	k.cancel, k.done = nil, nil
	k.mu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	ctx, cancelRelease := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelRelease()

	k.mu.Lock()
	k.releaseLocked(ctx)
	k.mu.Unlock()

	if k.closer != nil {
		return k.closer()
	}
	return nil
}

func (k *Keeper) releaseLocked(ctx context.Context) {
	for _, lk := range k.held {
		if err := lk.Unlock(ctx); err != nil {
			k.logger.Warn("authority lease release failed", "key", lk.Key(), "error", err)
			continue
		}
		k.logger.Info("authority lease released", "key", lk.Key())
	}
	k.held = nil
}
