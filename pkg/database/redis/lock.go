package redis

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
)

const defaultLockTTL = 10 * time.Second

const (
	unlockScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`

	refreshScript = `
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("pexpire", KEYS[1], ARGV[2])
end
return 0`
)

// Lock 单节点租约锁，持有者由随机 token 标识，需要周期性 Refresh 续期
type Lock struct {
	client *Client
	key    string
	token  string
	ttl    time.Duration
}

// NewLock 创建租约锁
func NewLock(client *Client, key string, ttl time.Duration) *Lock {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &Lock{
		client: client,
		key:    key,
		token:  uuid.NewString(),
		ttl:    ttl,
	}
}

// Key 锁的键
func (l *Lock) Key() string { return l.key }

// TTL 租约时长
func (l *Lock) TTL() time.Duration { return l.ttl }

// TryLock 尝试获取锁（SET NX PX），被占用时返回 ErrLockFailed
func (l *Lock) TryLock(ctx context.Context) error {
	ok, err := l.client.cmd.SetNX(ctx, l.key, l.token, l.ttl).Result()
	if err != nil {
		return errors.Wrapf(err, "failed to acquire lock %s", l.key)
	}
	if !ok {
		return errors.Wrapf(ErrLockFailed, "%s", l.key)
	}
	return nil
}

// Refresh 续期，只有当前持有者可以续期
func (l *Lock) Refresh(ctx context.Context) error {
	n, err := l.client.cmd.Eval(ctx, refreshScript, []string{l.key}, l.token, l.ttl.Milliseconds()).Int64()
	if err != nil {
		return errors.Wrapf(err, "failed to refresh lock %s", l.key)
	}
	if n == 0 {
		return errors.Wrapf(ErrLockNotHeld, "%s", l.key)
	}
	return nil
}

// Unlock 释放锁，只有当前持有者可以释放
func (l *Lock) Unlock(ctx context.Context) error {
	n, err := l.client.cmd.Eval(ctx, unlockScript, []string{l.key}, l.token).Int64()
	if err != nil {
		return errors.Wrapf(err, "failed to unlock %s", l.key)
	}
	if n == 0 {
		return errors.Wrapf(ErrLockNotHeld, "%s", l.key)
	}
	return nil
}
