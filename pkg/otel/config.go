package otel

import (
	"time"

	"github.com/cockroachdb/errors"
)

// ExporterType 导出器类型
type ExporterType string

const (
	ExporterTypeOTLPHTTP ExporterType = "otlp-http"
	ExporterTypeOTLPGRPC ExporterType = "otlp-grpc"
	// ExporterTypeStdout 调试用，span 打到标准输出
	ExporterTypeStdout ExporterType = "stdout"
	// ExporterTypeNoop 只经过 WithSpanProcessor 注册的处理器
	ExporterTypeNoop ExporterType = "noop"
)

// SamplerType 采样类型
type SamplerType string

const (
	SamplerTypeAlways SamplerType = "always"
	SamplerTypeNever  SamplerType = "never"
	SamplerTypeRatio  SamplerType = "ratio"
	// SamplerTypeParent 跟随上游（gdidctl / 业务服务）的采样决策
	SamplerTypeParent SamplerType = "parent"
)

// Config 链路追踪配置，默认关闭
type Config struct {
	Enabled      bool              `mapstructure:"enabled" json:"enabled"`
	ServiceName  string            `mapstructure:"service_name" json:"service_name"`
	Endpoint     string            `mapstructure:"endpoint" json:"endpoint"`
	ExporterType ExporterType      `mapstructure:"exporter_type" json:"exporter_type" validate:"omitempty,oneof=otlp-http otlp-grpc stdout noop"`
	Insecure     bool              `mapstructure:"insecure" json:"insecure"`
	Sampler      SamplerConfig     `mapstructure:"sampler" json:"sampler"`
	BatchExport  BatchExportConfig `mapstructure:"batch_export" json:"batch_export"`
	Attributes   map[string]string `mapstructure:"attributes" json:"attributes"`

	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" json:"shutdown_timeout"`
}

// SamplerConfig 采样配置，Ratio 只对 ratio 类型生效
type SamplerConfig struct {
	Type  SamplerType `mapstructure:"type" json:"type"`
	Ratio float64     `mapstructure:"ratio" json:"ratio"`
}

// BatchExportConfig 批量导出配置
type BatchExportConfig struct {
	BatchSize     int           `mapstructure:"batch_size" json:"batch_size"`
	MaxQueueSize  int           `mapstructure:"max_queue_size" json:"max_queue_size"`
	BatchTimeout  time.Duration `mapstructure:"batch_timeout" json:"batch_timeout"`
	ExportTimeout time.Duration `mapstructure:"export_timeout" json:"export_timeout"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		ServiceName:  "gdid",
		Endpoint:     "localhost:4318",
		ExporterType: ExporterTypeOTLPHTTP,
		Sampler: SamplerConfig{
			Type:  SamplerTypeParent,
			Ratio: 1.0,
		},
		BatchExport: BatchExportConfig{
			BatchSize:     512,
			MaxQueueSize:  2048,
			BatchTimeout:  5 * time.Second,
			ExportTimeout: 30 * time.Second,
		},
		ShutdownTimeout: 5 * time.Second,
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c == nil {
		return errors.Wrap(ErrInvalidConfig, "config is nil")
	}
	if !c.Enabled {
		return nil
	}
	if c.ServiceName == "" {
		return errors.Wrap(ErrInvalidConfig, "service name is empty")
	}
	switch c.ExporterType {
	case ExporterTypeOTLPHTTP, ExporterTypeOTLPGRPC, ExporterTypeStdout, ExporterTypeNoop:
	default:
		return errors.Wrapf(ErrUnsupportedExporter, "%q", c.ExporterType)
	}
	if c.Sampler.Type == SamplerTypeRatio && (c.Sampler.Ratio < 0 || c.Sampler.Ratio > 1) {
		return errors.Wrapf(ErrInvalidConfig, "sampler ratio %v out of [0, 1]", c.Sampler.Ratio)
	}
	return nil
}
