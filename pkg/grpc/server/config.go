package server

import (
	"time"

	"github.com/cockroachdb/errors"
	"google.golang.org/grpc/keepalive"
)

// Config Server 配置
type Config struct {
	Name    string `mapstructure:"name" json:"name"`       // 服务名称
	Network string `mapstructure:"network" json:"network"` // tcp, unix
	Address string `mapstructure:"address" json:"address"` // 如 :7700

	// 消息大小限制（字节）
	MaxRecvMsgSize int `mapstructure:"max_recv_msg_size" json:"max_recv_msg_size"`
	MaxSendMsgSize int `mapstructure:"max_send_msg_size" json:"max_send_msg_size"`

	KeepAliveParams      keepalive.ServerParameters  `mapstructure:"keep_alive_params" json:"keep_alive_params"`
	KeepAliveEnforcement keepalive.EnforcementPolicy `mapstructure:"keep_alive_enforcement" json:"keep_alive_enforcement"`

	// 优雅关闭超时
	GracefulStopTimeout time.Duration `mapstructure:"graceful_stop_timeout" json:"graceful_stop_timeout"`

	EnableHealthCheck bool `mapstructure:"enable_health_check" json:"enable_health_check"`
	EnableReflection  bool `mapstructure:"enable_reflection" json:"enable_reflection"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Name:           "gdid-authority",
		Network:        "tcp",
		Address:        ":7700",
		MaxRecvMsgSize: 1024 * 1024,
		MaxSendMsgSize: 1024 * 1024,
		KeepAliveParams: keepalive.ServerParameters{
			MaxConnectionIdle: 15 * time.Minute,
			Time:              5 * time.Minute,
			Timeout:           10 * time.Second,
		},
		KeepAliveEnforcement: keepalive.EnforcementPolicy{
			MinTime:             time.Minute,
			PermitWithoutStream: true,
		},
		GracefulStopTimeout: 10 * time.Second,
		EnableHealthCheck:   true,
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.Name == "" {
		return errors.Wrap(ErrInvalidConfig, "name is required")
	}
	if c.Network != "tcp" && c.Network != "unix" {
		return errors.Wrap(ErrInvalidConfig, "network must be tcp or unix")
	}
	if c.Address == "" {
		return errors.Wrap(ErrInvalidConfig, "address is required")
	}
	if c.MaxRecvMsgSize <= 0 || c.MaxSendMsgSize <= 0 {
		return errors.Wrap(ErrInvalidConfig, "message size limits must be positive")
	}
	if c.GracefulStopTimeout <= 0 {
		return errors.Wrap(ErrInvalidConfig, "graceful_stop_timeout must be positive")
	}
	return nil
}
