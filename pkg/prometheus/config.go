package prometheus

// Config Prometheus 配置
type Config struct {
	// Namespace 指标前缀
	Namespace string `mapstructure:"namespace" json:"namespace"`

	// Subsystem 子系统（可选）
	Subsystem string `mapstructure:"subsystem" json:"subsystem"`

	// Path 指标暴露路径（挂在管理端 HTTP 上）
	Path string `mapstructure:"path" json:"path"`

	EnableGoCollector      bool `mapstructure:"enable_go_collector" json:"enable_go_collector"`
	EnableProcessCollector bool `mapstructure:"enable_process_collector" json:"enable_process_collector"`
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		Namespace:              "gdid",
		Path:                   "/metrics",
		EnableGoCollector:      true,
		EnableProcessCollector: true,
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.Namespace == "" {
		return ErrInvalidConfig
	}
	if c.Path == "" {
		c.Path = "/metrics"
	}
	return nil
}
