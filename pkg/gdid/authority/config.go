package authority

import (
	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-gdid/pkg/gdid"
)

// DefaultMaxBlockSize 单次分配的最大 block 大小
const DefaultMaxBlockSize = 1024

// Config 权威节点配置
type Config struct {
	// AuthorityIDs 本进程拥有的 authority ID 池（0..63），不能与其它进程共享
	AuthorityIDs []uint8 `mapstructure:"authority_ids" json:"authority_ids" validate:"required,min=1,dive,max=63"`

	// HostName 本进程标识，写入 Block.AuthorityHost
	HostName string `mapstructure:"host_name" json:"host_name" validate:"required"`

	// MaxBlockSize 请求的 block 大小会被截断到该值
	MaxBlockSize int `mapstructure:"max_block_size" json:"max_block_size" validate:"gte=0,lte=2147483647"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		AuthorityIDs: []uint8{0},
		HostName:     "localhost",
		MaxBlockSize: DefaultMaxBlockSize,
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c == nil {
		return errors.Wrap(gdid.ErrInvalidConfig, "authority config is nil")
	}
	if len(c.AuthorityIDs) == 0 {
		return errors.Wrap(gdid.ErrInvalidConfig, "authority id pool is empty")
	}
	seen := make(map[uint8]struct{}, len(c.AuthorityIDs))
	for _, id := range c.AuthorityIDs {
		if id > gdid.AuthorityMax {
			return errors.Wrapf(gdid.ErrInvalidAuthority, "authority id %d exceeds %d", id, gdid.AuthorityMax)
		}
		if _, dup := seen[id]; dup {
			return errors.Wrapf(gdid.ErrInvalidConfig, "duplicate authority id %d", id)
		}
		seen[id] = struct{}{}
	}
	if c.HostName == "" {
		return errors.Wrap(gdid.ErrInvalidConfig, "host name is empty")
	}
	if c.MaxBlockSize < 0 {
		return errors.Wrap(gdid.ErrInvalidConfig, "max block size is negative")
	}
	if c.MaxBlockSize > gdid.MaxBlockSizeLimit {
		return errors.Wrapf(gdid.ErrInvalidConfig, "max block size %d exceeds %d", c.MaxBlockSize, gdid.MaxBlockSizeLimit)
	}
	if c.MaxBlockSize == 0 {
		c.MaxBlockSize = DefaultMaxBlockSize
	}
	return nil
}
