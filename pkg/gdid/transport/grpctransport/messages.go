package grpctransport

import (
	"time"

	"github.com/lk2023060901/xdooria-gdid/pkg/gdid"
)

// AllocateRequest 分配请求，msgpack 编码
type AllocateRequest struct {
	Scope     string  `codec:"scope"`
	Sequence  string  `codec:"sequence"`
	BlockSize int32   `codec:"block_size"`
	Vicinity  *uint64 `codec:"vicinity,omitempty"`
}

// AllocateResponse 分配结果
type AllocateResponse struct {
	Scope          string `codec:"scope"`
	Sequence       string `codec:"sequence"`
	Authority      uint8  `codec:"authority"`
	AuthorityHost  string `codec:"authority_host"`
	Era            uint32 `codec:"era"`
	Start          uint64 `codec:"start"`
	BlockSize      int32  `codec:"block_size"`
	ServerUnixNano int64  `codec:"server_unix_nano"`
}

func newAllocateResponse(b *gdid.Block) *AllocateResponse {
	return &AllocateResponse{
		Scope:          b.ScopeName,
		Sequence:       b.SequenceName,
		Authority:      b.Authority,
		AuthorityHost:  b.AuthorityHost,
		Era:            b.Era,
		Start:          b.StartCounterInclusive,
		BlockSize:      int32(b.BlockSize),
		ServerUnixNano: b.ServerTimeUTC.UnixNano(),
	}
}

// Block 转换为 gdid.Block
func (r *AllocateResponse) Block() *gdid.Block {
	return &gdid.Block{
		ScopeName:             r.Scope,
		SequenceName:          r.Sequence,
		Authority:             r.Authority,
		AuthorityHost:         r.AuthorityHost,
		Era:                   r.Era,
		StartCounterInclusive: r.Start,
		BlockSize:             int(r.BlockSize),
		ServerTimeUTC:         time.Unix(0, r.ServerUnixNano).UTC(),
	}
}
