package grpctransport

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/lk2023060901/xdooria-gdid/pkg/gdid"
	grpcclient "github.com/lk2023060901/xdooria-gdid/pkg/grpc/client"
	"github.com/lk2023060901/xdooria-gdid/pkg/serializer"
)

// Transport 客户端传输，host 即 gRPC target（如 "authority-a:7700"）
type Transport struct {
	conns *grpcclient.Client
}

// NewTransport 创建传输；编码固定为 msgpack
func NewTransport(cfg *grpcclient.Config, opts ...grpcclient.Option) (*Transport, error) {
	c := grpcclient.DefaultConfig()
	if cfg != nil {
		c = new(grpcclient.Config)
		*c = *cfg
	}
	c.ContentSubtype = serializer.CodecName

	conns, err := grpcclient.New(c, opts...)
	if err != nil {
		return nil, err
	}
	return &Transport{conns: conns}, nil
}

// AllocateBlock 向 host 请求一个 block，返回的错误可被 gdid.IsTerminal 分类
func (t *Transport) AllocateBlock(ctx context.Context, host, scope, sequence string, blockSize int, vicinity *uint64) (*gdid.Block, error) {
	if blockSize <= 0 || blockSize > gdid.MaxBlockSizeLimit {
		return nil, errors.Wrapf(gdid.ErrInvalidBlockSize, "block size %d", blockSize)
	}
	conn, err := t.conns.Conn(host)
	if err != nil {
		return nil, fromStatus(host, err)
	}

	req := &AllocateRequest{
		Scope:     scope,
		Sequence:  sequence,
		BlockSize: int32(blockSize),
		Vicinity:  vicinity,
	}
	resp := new(AllocateResponse)
	if err := conn.Invoke(ctx, AllocateBlockMethod, req, resp); err != nil {
		return nil, fromStatus(host, err)
	}
	return resp.Block(), nil
}

// Close 关闭所有连接
func (t *Transport) Close() error {
	return t.conns.Close()
}
