package client

import (
	"time"

	"github.com/cockroachdb/errors"
	"google.golang.org/grpc/keepalive"
)

// Config Client 配置
type Config struct {
	// KeepAlive 配置
	KeepAlive keepalive.ClientParameters `mapstructure:"keep_alive" json:"keep_alive"`

	// 消息大小限制
	MaxRecvMsgSize int `mapstructure:"max_recv_msg_size" json:"max_recv_msg_size"`
	MaxSendMsgSize int `mapstructure:"max_send_msg_size" json:"max_send_msg_size"`

	// ContentSubtype 默认编码（如 msgpack），为空时使用 proto
	ContentSubtype string `mapstructure:"content_subtype" json:"content_subtype"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		KeepAlive: keepalive.ClientParameters{
			Time:    5 * time.Minute,
			Timeout: 10 * time.Second,
		},
		MaxRecvMsgSize: 1024 * 1024,
		MaxSendMsgSize: 1024 * 1024,
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.MaxRecvMsgSize <= 0 || c.MaxSendMsgSize <= 0 {
		return errors.Wrap(ErrInvalidConfig, "message size limits must be positive")
	}
	return nil
}
