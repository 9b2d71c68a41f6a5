package persistence

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-gdid/pkg/database/redis"
)

// KV RedisLocation 需要的最小接口，*redis.Client 满足
type KV interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, expiration time.Duration) error
}

// RedisLocation 以字符串键保存 "<era>::<value>"
type RedisLocation struct {
	name   string
	kv     KV
	prefix string
	closer func() error
}

// NewRedisLocation 创建 redis 位置
func NewRedisLocation(name string, kv KV, prefix string) *RedisLocation {
	return &RedisLocation{name: name, kv: kv, prefix: prefix}
}

func (r *RedisLocation) Name() string { return r.name }

func (r *RedisLocation) Write(ctx context.Context, authority uint8, scope, sequence string, id PersistedID) error {
	return r.kv.Set(ctx, Key(r.prefix, authority, scope, sequence), id.String(), 0)
}

func (r *RedisLocation) Read(ctx context.Context, authority uint8, scope, sequence string) (PersistedID, bool, error) {
	raw, err := r.kv.Get(ctx, Key(r.prefix, authority, scope, sequence))
	if err != nil {
		if errors.Is(err, redis.ErrNil) {
			return PersistedID{}, false, nil
		}
		return PersistedID{}, false, err
	}
	id, err := ParsePersistedID(raw)
	if err != nil {
		return PersistedID{}, false, err
	}
	return id, true, nil
}

// Close 关闭由 Open 创建的连接
func (r *RedisLocation) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer()
}
