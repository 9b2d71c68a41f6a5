package app

import (
	"sort"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-gdid/pkg/logger"
)

// LoggerRegistry 配置文件 loggers 段声明的独立日志（如单独落盘的 persistence 日志）
type LoggerRegistry struct {
	mu      sync.RWMutex
	loggers map[string]logger.Logger
}

func NewLoggerRegistry() *LoggerRegistry {
	return &LoggerRegistry{loggers: make(map[string]logger.Logger)}
}

// Get 不存在时返回 nil
func (r *LoggerRegistry) Get(name string) logger.Logger {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loggers[name]
}

func (r *LoggerRegistry) SyncAll() {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, l := range r.loggers {
		_ = l.Sync()
	}
}

// InitLoggers 按名称顺序创建，任何一个失败都不会注册
func (r *LoggerRegistry) InitLoggers(configs map[string]*logger.Config) error {
	names := make([]string, 0, len(configs))
	for name := range configs {
		names = append(names, name)
	}
	sort.Strings(names)

	built := make(map[string]logger.Logger, len(names))
	for _, name := range names {
		l, err := logger.New(configs[name])
		if err != nil {
			return errors.Wrapf(err, "logger %s", name)
		}
		built[name] = l.Named(name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for name, l := range built {
		r.loggers[name] = l
	}
	return nil
}
