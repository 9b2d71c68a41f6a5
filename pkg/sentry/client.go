// Package sentry 把需要人工介入的失败上报到 Sentry
package sentry

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/getsentry/sentry-go"
	"github.com/lk2023060901/xdooria-gdid/pkg/config"
	"go.uber.org/atomic"
)

// Client 持有独立 Hub，不污染 sentry 全局状态
type Client struct {
	hub    *sentry.Hub
	config *Config
	closed atomic.Bool

	captured atomic.Uint64
	dropped  atomic.Uint64
}

// Option 客户端选项
type Option func(*sentry.ClientOptions)

// WithTransport 替换上报通道（测试里收集事件）
func WithTransport(t sentry.Transport) Option {
	return func(o *sentry.ClientOptions) { o.Transport = t }
}

// New 创建客户端
func New(cfg *Config, opts ...Option) (*Client, error) {
	merged, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, err
	}
	if err := merged.Validate(); err != nil {
		return nil, err
	}

	co := merged.clientOptions()
	for _, opt := range opts {
		opt(&co)
	}
	client, err := sentry.NewClient(co)
	if err != nil {
		return nil, errors.Wrap(err, "create sentry client")
	}

	hub := sentry.NewHub(client, sentry.NewScope())
	hub.ConfigureScope(func(scope *sentry.Scope) {
		for k, v := range merged.Tags {
			scope.SetTag(k, v)
		}
	})
	return &Client{hub: hub, config: merged}, nil
}

// Report 带标签上报错误，满足 authority.Reporter
func (c *Client) Report(_ context.Context, err error, tags map[string]string) {
	if err == nil || c.closed.Load() {
		return
	}
	var id *sentry.EventID
	c.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTags(tags)
		scope.SetLevel(sentry.LevelError)
		id = c.hub.CaptureException(err)
	})
	c.count(id)
}

// Recover 上报 gRPC handler 中恢复的 panic
func (c *Client) Recover(ctx context.Context, recovered interface{}) {
	if c.closed.Load() {
		return
	}
	c.count(c.hub.RecoverWithContext(ctx, recovered))
}

func (c *Client) count(id *sentry.EventID) {
	if id != nil && *id != "" {
		c.captured.Inc()
		return
	}
	c.dropped.Inc()
}

// Stats 已上报 / 被丢弃（采样或 BeforeSend）的事件数
func (c *Client) Stats() (captured, dropped uint64) {
	return c.captured.Load(), c.dropped.Load()
}

// Flush 等待事件发送完成
func (c *Client) Flush(timeout time.Duration) bool {
	return c.hub.Flush(timeout)
}

// Close 刷出剩余事件，作为 app.Closer 使用
func (c *Client) Close() error {
	if c.closed.Swap(true) {
		return ErrClientClosed
	}
	if !c.hub.Flush(c.config.ShutdownTimeout) {
		return errors.Newf("sentry: flush timed out after %s", c.config.ShutdownTimeout)
	}
	return nil
}
