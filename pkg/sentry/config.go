package sentry

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/getsentry/sentry-go"
)

// Config Sentry 配置，DSN 为空表示不上报
type Config struct {
	DSN         string  `mapstructure:"dsn" json:"dsn"`
	Environment string  `mapstructure:"environment" json:"environment"`
	Release     string  `mapstructure:"release" json:"release"`
	ServerName  string  `mapstructure:"server_name" json:"server_name"`
	SampleRate  float64 `mapstructure:"sample_rate" json:"sample_rate" validate:"gte=0,lte=1"`

	AttachStacktrace bool `mapstructure:"attach_stacktrace" json:"attach_stacktrace"`
	Debug            bool `mapstructure:"debug" json:"debug"`

	ShutdownTimeout time.Duration     `mapstructure:"shutdown_timeout" json:"shutdown_timeout"`
	Tags            map[string]string `mapstructure:"tags" json:"tags"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		Environment:     "production",
		SampleRate:      1.0,
		ShutdownTimeout: 2 * time.Second,
	}
}

// Enabled DSN 非空才上报
func (c *Config) Enabled() bool {
	return c != nil && c.DSN != ""
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c == nil {
		return errors.Wrap(ErrInvalidConfig, "config is nil")
	}
	if c.DSN == "" {
		return errors.Wrap(ErrInvalidConfig, "dsn is empty")
	}
	if c.SampleRate < 0 || c.SampleRate > 1 {
		return errors.Wrapf(ErrInvalidConfig, "sample rate %v out of [0, 1]", c.SampleRate)
	}
	return nil
}

func (c *Config) clientOptions() sentry.ClientOptions {
	return sentry.ClientOptions{
		Dsn:              c.DSN,
		Environment:      c.Environment,
		Release:          c.Release,
		ServerName:       c.ServerName,
		SampleRate:       c.SampleRate,
		AttachStacktrace: c.AttachStacktrace,
		Debug:            c.Debug,
	}
}
