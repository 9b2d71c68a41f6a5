package gdid

import (
	"github.com/cockroachdb/errors"
)

var (
	// ErrValidation 输入校验失败（无副作用，不可重试）
	ErrValidation = errors.New("gdid: validation failed")

	// ErrInvalidName scope/sequence 名称不合法
	ErrInvalidName = errors.Mark(errors.New("gdid: invalid name"), ErrValidation)

	// ErrInvalidBlockSize block size 必须为正数
	ErrInvalidBlockSize = errors.Mark(errors.New("gdid: invalid block size"), ErrValidation)

	// ErrInvalidAuthority authority 超出范围
	ErrInvalidAuthority = errors.Mark(errors.New("gdid: invalid authority"), ErrValidation)

	// ErrInvalidConfig 配置错误
	ErrInvalidConfig = errors.Mark(errors.New("gdid: invalid config"), ErrValidation)

	// ErrInvalidBlock 权威节点返回的 Block 不合法
	ErrInvalidBlock = errors.New("gdid: invalid block")

	// ErrPersistenceUnavailable 所有持久化位置写入失败
	ErrPersistenceUnavailable = errors.New("gdid: all persistence locations failed")

	// ErrBootstrapFailed 首次加载序列时读取持久化位置失败
	ErrBootstrapFailed = errors.New("gdid: sequence bootstrap read failed")

	// ErrEraExhausted era 空间耗尽，需要人工介入
	ErrEraExhausted = errors.New("gdid: era space exhausted")

	// ErrAuthorityUnavailable 单个权威节点不可用（可尝试下一个）
	ErrAuthorityUnavailable = errors.New("gdid: authority unavailable")

	// ErrAllHostsFailed 所有权威节点均失败
	ErrAllHostsFailed = errors.New("gdid: all authority hosts failed")
)

// IsValidation 是否为校验错误
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsTerminal 是否为不可自动重试的错误
func IsTerminal(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrEraExhausted)
}

// IsRetryable 是否可以换一个权威节点重试
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	return !IsTerminal(err)
}
