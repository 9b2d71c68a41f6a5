package web

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
)

// Config 管理端 HTTP 配置
type Config struct {
	Address      string        `mapstructure:"address" json:"address"`
	Mode         string        `mapstructure:"mode" json:"mode"` // debug, release, test
	ReadTimeout  time.Duration `mapstructure:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" json:"write_timeout"`
	EnableCORS   bool          `mapstructure:"enable_cors" json:"enable_cors"`
	// CORSOrigins 允许的来源，为空时允许任意来源
	CORSOrigins []string `mapstructure:"cors_origins" json:"cors_origins"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Address:      ":7780",
		Mode:         gin.ReleaseMode,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.Address == "" {
		return errors.Wrap(ErrInvalidConfig, "address is required")
	}
	switch c.Mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
	default:
		return errors.Wrapf(ErrInvalidConfig, "unknown mode %q", c.Mode)
	}
	return nil
}
