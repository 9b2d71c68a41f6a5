package client

import (
	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-gdid/pkg/gdid"
)

var (
	// ErrOverrideLocked 已经发生过分配后不能再修改 authority 覆盖
	ErrOverrideLocked = errors.New("gdid client: authority override cannot change after the first allocation")

	// ErrNoHosts 没有配置权威节点也没有覆盖
	ErrNoHosts = errors.Mark(errors.New("gdid client: no authority hosts configured"), gdid.ErrValidation)

	// ErrInvalidCount 批量生成数量必须为正数
	ErrInvalidCount = errors.Mark(errors.New("gdid client: count must be positive"), gdid.ErrValidation)

	// ErrClosed Generator 已关闭
	ErrClosed = errors.New("gdid client: generator closed")
)
