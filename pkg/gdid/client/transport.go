package client

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-gdid/pkg/gdid"
)

// Transport 访问权威节点
//
// 返回的错误必须可以分类：校验错误与 era 耗尽会终止故障转移，其余错误换下一个节点。
type Transport interface {
	AllocateBlock(ctx context.Context, host, scope, sequence string, blockSize int, vicinity *uint64) (*gdid.Block, error)
	Close() error
}

// Allocator 进程内分配接口，*authority.Allocator 满足
type Allocator interface {
	Allocate(ctx context.Context, scope, sequence string, blockSize int, vicinity *uint64) (*gdid.Block, error)
}

// LocalTransport 直接调用进程内的 Allocator，忽略 host（测试与单机部署）
type LocalTransport struct {
	allocator Allocator
}

// NewLocalTransport 创建进程内传输
func NewLocalTransport(a Allocator) *LocalTransport {
	return &LocalTransport{allocator: a}
}

func (t *LocalTransport) AllocateBlock(ctx context.Context, _ string, scope, sequence string, blockSize int, vicinity *uint64) (*gdid.Block, error) {
	if t.allocator == nil {
		return nil, errors.Wrap(gdid.ErrAuthorityUnavailable, "local allocator is nil")
	}
	return t.allocator.Allocate(ctx, scope, sequence, blockSize, vicinity)
}

func (t *LocalTransport) Close() error { return nil }
