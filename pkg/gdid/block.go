package gdid

import (
	"math"
	"time"
)

// MaxBlockSizeLimit 单个 block 大小的硬上限，传输层用 int32 编码
const MaxBlockSizeLimit = math.MaxInt32

// Block 一次分配授予的连续 counter 区间 [Start, Start+BlockSize)
type Block struct {
	ScopeName             string    `json:"scope_name"`
	SequenceName          string    `json:"sequence_name"`
	Authority             uint8     `json:"authority"`
	AuthorityHost         string    `json:"authority_host"`
	Era                   uint32    `json:"era"`
	StartCounterInclusive uint64    `json:"start_counter_inclusive"`
	BlockSize             int       `json:"block_size"`
	ServerTimeUTC         time.Time `json:"server_time_utc"`
}

// EndCounterExclusive 区间上界（不含）
func (b *Block) EndCounterExclusive() uint64 {
	return b.StartCounterInclusive + uint64(b.BlockSize)
}

// At 返回区间内第 offset 个 ID
func (b *Block) At(offset int) GDID {
	return GDID{
		Era:       b.Era,
		Authority: b.Authority,
		Counter:   b.StartCounterInclusive + uint64(offset),
	}
}

// Validate 校验从网络收到的 Block
func (b *Block) Validate() error {
	if b == nil {
		return ErrInvalidBlock
	}
	if b.BlockSize <= 0 {
		return ErrInvalidBlock
	}
	if b.Authority > AuthorityMax {
		return ErrInvalidBlock
	}
	if b.EndCounterExclusive() < b.StartCounterInclusive || b.EndCounterExclusive()-1 > CounterMax {
		return ErrInvalidBlock
	}
	if b.Era == 0 && b.Authority == 0 && b.StartCounterInclusive == 0 {
		// 区间包含 Zero
		return ErrInvalidBlock
	}
	return nil
}

// Host 权威节点地址及距离（km），用于故障转移排序
type Host struct {
	Name       string  `mapstructure:"name" json:"name" validate:"required"`
	DistanceKm float64 `mapstructure:"distance_km" json:"distance_km" validate:"gte=0"`
}
