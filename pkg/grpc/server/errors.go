package server

import "github.com/cockroachdb/errors"

var (
	// ErrInvalidConfig 无效配置
	ErrInvalidConfig = errors.New("grpc/server: invalid config")

	// ErrServerAlreadyStarted Server 已启动
	ErrServerAlreadyStarted = errors.New("grpc/server: server already started")

	// ErrServerNotStarted Server 未启动
	ErrServerNotStarted = errors.New("grpc/server: server not started")
)
