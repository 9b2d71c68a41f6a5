package etcd

import (
	"time"

	"github.com/cockroachdb/errors"
)

// ErrInvalidConfig 无效配置
var ErrInvalidConfig = errors.New("registry: invalid etcd config")

// Config etcd 服务注册配置
type Config struct {
	// Endpoints etcd 集群地址
	Endpoints []string `mapstructure:"endpoints" json:"endpoints"`
	// DialTimeout 连接超时
	DialTimeout time.Duration `mapstructure:"dial_timeout" json:"dial_timeout"`
	Username    string        `mapstructure:"username" json:"username"`
	Password    string        `mapstructure:"password" json:"password"`
	// TTL 租约过期时间
	TTL time.Duration `mapstructure:"ttl" json:"ttl"`
	// Namespace 命名空间前缀（如 /services）
	Namespace string `mapstructure:"namespace" json:"namespace"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Endpoints:   []string{"localhost:2379"},
		DialTimeout: 5 * time.Second,
		TTL:         10 * time.Second,
		Namespace:   "/services",
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if len(c.Endpoints) == 0 {
		return errors.Wrap(ErrInvalidConfig, "endpoints is required")
	}
	if c.DialTimeout <= 0 {
		return errors.Wrap(ErrInvalidConfig, "dial_timeout must be positive")
	}
	if c.TTL < time.Second {
		return errors.Wrap(ErrInvalidConfig, "ttl must be at least 1s")
	}
	if c.Namespace == "" {
		c.Namespace = "/services"
	}
	return nil
}
