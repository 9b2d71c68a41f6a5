package logger

import (
	"context"

	"go.uber.org/zap"
)

// ContextFieldExtractor 从 context 提取字段的函数类型
type ContextFieldExtractor func(ctx context.Context) []zap.Field

type sequenceKey struct{}

type sequenceFields struct {
	scope    string
	sequence string
}

// WithSequence 把 (scope, sequence) 放入 context，日志会自动带上
func WithSequence(ctx context.Context, scope, sequence string) context.Context {
	return context.WithValue(ctx, sequenceKey{}, sequenceFields{scope: scope, sequence: sequence})
}

// DefaultContextExtractor 默认提取器：提取 WithSequence 写入的字段
func DefaultContextExtractor(ctx context.Context) []zap.Field {
	if ctx == nil {
		return nil
	}
	if f, ok := ctx.Value(sequenceKey{}).(sequenceFields); ok {
		return []zap.Field{zap.String("scope", f.scope), zap.String("sequence", f.sequence)}
	}
	return nil
}
