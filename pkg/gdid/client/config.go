package client

import (
	"sort"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-gdid/pkg/gdid"
)

// 自适应 block 大小参数
const (
	// MinBlockSize 自适应计算的下限
	MinBlockSize = 2
	// NormSecondsBetweenAuthorityCalls 期望的权威节点调用间隔（秒）
	NormSecondsBetweenAuthorityCalls = 5
	// NormIDsPerSecond 基准 ID 生成速率
	NormIDsPerSecond = 16
	// MinInterval 参与计算的请求间隔下限
	MinInterval = 10 * time.Millisecond
	// IntervalHistory 保留的间隔个数
	IntervalHistory = 3

	// LowWaterMark 剩余比例低于该值时预取下一个 block，不可配置
	LowWaterMark = 0.25
	// MinPrefetchBlockSize block 大于该值才会预取
	MinPrefetchBlockSize = 7
)

// Config 客户端配置
type Config struct {
	// Hosts 权威节点列表，按 DistanceKm 升序尝试
	Hosts []gdid.Host `mapstructure:"hosts" json:"hosts" validate:"dive"`

	// MaxBlockSize 请求 block 大小上限
	MaxBlockSize int `mapstructure:"max_block_size" json:"max_block_size" validate:"gte=0,lte=2147483647"`

	// DefaultBlockSize 还没有请求间隔历史时使用的大小
	DefaultBlockSize int `mapstructure:"default_block_size" json:"default_block_size" validate:"gte=0"`

	// RequestTimeout 单个权威节点的请求超时
	RequestTimeout time.Duration `mapstructure:"request_timeout" json:"request_timeout"`

	// PrefetchPoolSize 后台预取协程池大小
	PrefetchPoolSize int `mapstructure:"prefetch_pool_size" json:"prefetch_pool_size" validate:"gte=0"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		MaxBlockSize:     1024,
		DefaultBlockSize: NormIDsPerSecond,
		RequestTimeout:   5 * time.Second,
		PrefetchPoolSize: 16,
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c == nil {
		return errors.Wrap(gdid.ErrInvalidConfig, "client config is nil")
	}
	for _, h := range c.Hosts {
		if h.Name == "" {
			return errors.Wrap(gdid.ErrInvalidConfig, "host name is empty")
		}
		if h.DistanceKm < 0 {
			return errors.Wrapf(gdid.ErrInvalidConfig, "host %s has negative distance", h.Name)
		}
	}
	if c.MaxBlockSize <= 0 || c.DefaultBlockSize <= 0 || c.PrefetchPoolSize <= 0 || c.RequestTimeout <= 0 {
		return errors.Wrap(gdid.ErrInvalidConfig, "max_block_size, default_block_size, prefetch_pool_size and request_timeout must be positive")
	}
	if c.MaxBlockSize > gdid.MaxBlockSizeLimit {
		return errors.Wrapf(gdid.ErrInvalidConfig, "max_block_size %d exceeds %d", c.MaxBlockSize, gdid.MaxBlockSizeLimit)
	}
	return nil
}

// sortedHosts 按距离升序，距离相同保持配置顺序
func sortedHosts(hosts []gdid.Host) []gdid.Host {
	out := append([]gdid.Host(nil), hosts...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	return out
}
