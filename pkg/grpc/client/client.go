// Package client 按 target 复用 gRPC 连接
package client

import (
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-gdid/pkg/config"
	"github.com/lk2023060901/xdooria-gdid/pkg/logger"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// Client 每个 target 一条懒建立的连接
//
// grpc.NewClient 不阻塞，连接失败体现在第一次调用上。
type Client struct {
	config *Config
	logger logger.Logger

	dialOpts          []grpc.DialOption
	unaryInterceptors []grpc.UnaryClientInterceptor

	mu     sync.Mutex
	conns  map[string]*grpc.ClientConn
	closed bool
}

// New 创建 Client
func New(cfg *Config, opts ...Option) (*Client, error) {
	newCfg, err := config.MergeConfig(DefaultConfig(), cfg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to merge config")
	}
	if err := newCfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		config: newCfg,
		logger: logger.NewNoop(),
		conns:  make(map[string]*grpc.ClientConn),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("grpc.client")
	return c, nil
}

// Conn 返回 target 的连接，不存在时创建
func (c *Client) Conn(target string) (*grpc.ClientConn, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil, ErrClientClosed
	}
	if conn, ok := c.conns[target]; ok {
		return conn, nil
	}

	conn, err := grpc.NewClient(target, c.buildDialOptions()...)
	if err != nil {
		return nil, errors.Wrapf(err, "create client for %s", target)
	}
	c.conns[target] = conn
	c.logger.Debug("gRPC connection created", "target", target)
	return conn, nil
}

// Close 关闭所有连接
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true

	var combined error
	for target, conn := range c.conns {
		if err := conn.Close(); err != nil {
			combined = errors.CombineErrors(combined, errors.Wrapf(err, "close %s", target))
		}
	}
	c.conns = nil
	return combined
}

func (c *Client) buildDialOptions() []grpc.DialOption {
	callOpts := []grpc.CallOption{
		grpc.MaxCallRecvMsgSize(c.config.MaxRecvMsgSize),
		grpc.MaxCallSendMsgSize(c.config.MaxSendMsgSize),
	}
	if c.config.ContentSubtype != "" {
		callOpts = append(callOpts, grpc.CallContentSubtype(c.config.ContentSubtype))
	}

	opts := []grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(callOpts...),
		grpc.WithKeepaliveParams(c.config.KeepAlive),
	}
	if len(c.unaryInterceptors) > 0 {
		opts = append(opts, grpc.WithChainUnaryInterceptor(c.unaryInterceptors...))
	}
	return append(opts, c.dialOpts...)
}
