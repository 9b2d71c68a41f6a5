package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memRedis 内存版 redisClient，仅实现测试需要的语义（不处理过期）
type memRedis struct {
	mu   sync.Mutex
	data map[string]string
	err  error
}

func newMemRedis() *memRedis {
	return &memRedis{data: make(map[string]string)}
}

func (m *memRedis) Get(_ context.Context, key string) *goredis.StringCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return goredis.NewStringResult("", m.err)
	}
	v, ok := m.data[key]
	if !ok {
		return goredis.NewStringResult("", goredis.Nil)
	}
	return goredis.NewStringResult(v, nil)
}

func (m *memRedis) Set(_ context.Context, key string, value any, _ time.Duration) *goredis.StatusCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return goredis.NewStatusResult("", m.err)
	}
	m.data[key] = value.(string)
	return goredis.NewStatusResult("OK", nil)
}

func (m *memRedis) SetNX(_ context.Context, key string, value any, _ time.Duration) *goredis.BoolCmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; ok {
		return goredis.NewBoolResult(false, nil)
	}
	m.data[key] = value.(string)
	return goredis.NewBoolResult(true, nil)
}

func (m *memRedis) Eval(_ context.Context, script string, keys []string, args ...any) *goredis.Cmd {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.data[keys[0]] != args[0].(string) {
		return goredis.NewCmdResult(int64(0), nil)
	}
	if script == unlockScript {
		delete(m.data, keys[0])
	}
	return goredis.NewCmdResult(int64(1), nil)
}

func (m *memRedis) Ping(context.Context) *goredis.StatusCmd {
	return goredis.NewStatusResult("PONG", m.err)
}

func (m *memRedis) Close() error { return nil }

func newTestClient(m *memRedis) *Client {
	return &Client{cmd: m, cfg: &Config{Standalone: &NodeConfig{Host: "localhost", Port: 6379}}}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *Config
		wantErr error
	}{
		{"nil", nil, ErrNilConfig},
		{"empty", &Config{}, ErrInvalidConfig},
		{"standalone", &Config{Standalone: &NodeConfig{Host: "localhost", Port: 6379}}, nil},
		{"bad port", &Config{Standalone: &NodeConfig{Host: "localhost"}}, ErrInvalidConfig},
		{"cluster", &Config{Cluster: &ClusterConfig{Addrs: []string{"a:1"}}}, nil},
		{"cluster empty", &Config{Cluster: &ClusterConfig{}}, ErrInvalidConfig},
		{"both", &Config{
			Standalone: &NodeConfig{Host: "localhost", Port: 6379},
			Cluster:    &ClusterConfig{Addrs: []string{"a:1"}},
		}, ErrInvalidConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestClient_GetSet(t *testing.T) {
	ctx := context.Background()
	m := newMemRedis()
	c := newTestClient(m)

	_, err := c.Get(ctx, "missing")
	assert.True(t, errors.Is(err, ErrNil))

	require.NoError(t, c.Set(ctx, "k", "v", 0))
	v, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	m.err = errors.New("connection refused")
	_, err = c.Get(ctx, "k")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNil))
	assert.Error(t, c.Ping(ctx))
}

func TestLock(t *testing.T) {
	ctx := context.Background()
	c := newTestClient(newMemRedis())

	a := NewLock(c, "gdid:authority:1", time.Second)
	b := NewLock(c, "gdid:authority:1", 0)
	assert.Equal(t, defaultLockTTL, b.TTL())

	require.NoError(t, a.TryLock(ctx))
	assert.True(t, errors.Is(b.TryLock(ctx), ErrLockFailed))

	require.NoError(t, a.Refresh(ctx))
	assert.True(t, errors.Is(b.Refresh(ctx), ErrLockNotHeld))
	assert.True(t, errors.Is(b.Unlock(ctx), ErrLockNotHeld))

	require.NoError(t, a.Unlock(ctx))
	require.NoError(t, b.TryLock(ctx))
}
