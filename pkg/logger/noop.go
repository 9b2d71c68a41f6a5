package logger

import "context"

var _ Logger = NoopLogger{}

// NoopLogger 丢弃所有日志，组件未注入 logger 时的测试替身
type NoopLogger struct{}

// NewNoop 创建空日志记录器
func NewNoop() Logger {
	return NoopLogger{}
}

func (NoopLogger) Debug(string, ...interface{})                          {}
func (NoopLogger) Info(string, ...interface{})                           {}
func (NoopLogger) Warn(string, ...interface{})                           {}
func (NoopLogger) Error(string, ...interface{})                          {}
func (NoopLogger) DebugContext(context.Context, string, ...interface{}) {}
func (NoopLogger) InfoContext(context.Context, string, ...interface{})  {}
func (NoopLogger) WarnContext(context.Context, string, ...interface{})  {}
func (NoopLogger) ErrorContext(context.Context, string, ...interface{}) {}
func (n NoopLogger) Named(string) Logger                                 { return n }
func (n NoopLogger) WithFields(...interface{}) Logger                    { return n }
func (NoopLogger) Sync() error                                           { return nil }
