package grpctransport

import (
	"context"

	"github.com/lk2023060901/xdooria-gdid/pkg/gdid"
	"github.com/lk2023060901/xdooria-gdid/pkg/logger"
	"google.golang.org/grpc"
)

// Allocator 进程内分配器，*authority.Allocator 满足
type Allocator interface {
	Allocate(ctx context.Context, scope, sequence string, blockSize int, vicinity *uint64) (*gdid.Block, error)
}

// Service 把 Allocator 暴露为 gdid.Authority 服务
type Service struct {
	allocator Allocator
	logger    logger.Logger
}

// NewService 创建服务
func NewService(a Allocator, l logger.Logger) *Service {
	if l == nil {
		l = logger.NewNoop()
	}
	return &Service{allocator: a, logger: l.Named("grpctransport")}
}

// Register 注册到 gRPC server
func (s *Service) Register(r grpc.ServiceRegistrar) {
	r.RegisterService(&ServiceDesc, s)
}

// AllocateBlock 分配一个 block
func (s *Service) AllocateBlock(ctx context.Context, req *AllocateRequest) (*AllocateResponse, error) {
	block, err := s.allocator.Allocate(ctx, req.Scope, req.Sequence, int(req.BlockSize), req.Vicinity)
	if err != nil {
		if !gdid.IsValidation(err) {
			s.logger.WarnContext(ctx, "allocate failed",
				"scope", req.Scope,
				"sequence", req.Sequence,
				"block_size", req.BlockSize,
				"error", err,
			)
		}
		return nil, toStatus(err)
	}
	return newAllocateResponse(block), nil
}
