// Package gdid 定义全局分布式 ID (GDID) 的数据模型与名称校验规则。
package gdid

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

const (
	// AuthorityBits authority 占用的位数
	AuthorityBits = 6
	// CounterBits counter 占用的位数
	CounterBits = 64 - AuthorityBits

	// AuthorityMax authority 最大值 (63)
	AuthorityMax = 1<<AuthorityBits - 1
	// CounterMax counter 最大值 (2^58-1)
	CounterMax uint64 = 1<<CounterBits - 1
)

// GDID 全局分布式 ID: (era, authority, counter)
// 排序只比较 era 和 counter，authority 不参与排序
type GDID struct {
	Era       uint32
	Authority uint8
	Counter   uint64
}

// Zero 保留值，永远不会被发放
var Zero = GDID{}

// New 创建 GDID，authority/counter 超出范围时返回错误
func New(era uint32, authority uint8, counter uint64) (GDID, error) {
	if authority > AuthorityMax {
		return Zero, errors.Wrapf(ErrInvalidAuthority, "authority %d exceeds %d", authority, AuthorityMax)
	}
	if counter > CounterMax {
		return Zero, errors.Newf("gdid: counter %d exceeds %d", counter, CounterMax)
	}
	return GDID{Era: era, Authority: authority, Counter: counter}, nil
}

// IsZero 是否为保留的零值
func (g GDID) IsZero() bool {
	return g == Zero
}

// ID 返回 authority 与 counter 打包后的 64 位值
func (g GDID) ID() uint64 {
	return uint64(g.Authority)<<CounterBits | (g.Counter & CounterMax)
}

// Compare 比较两个 GDID：-1 / 0 / 1
func (g GDID) Compare(o GDID) int {
	switch {
	case g.Era < o.Era:
		return -1
	case g.Era > o.Era:
		return 1
	case g.Counter < o.Counter:
		return -1
	case g.Counter > o.Counter:
		return 1
	default:
		return 0
	}
}

// Less g 是否排在 o 之前
func (g GDID) Less(o GDID) bool {
	return g.Compare(o) < 0
}

// String 格式: era:authority:counter
func (g GDID) String() string {
	return fmt.Sprintf("%d:%d:%d", g.Era, g.Authority, g.Counter)
}

// Parse 解析 String() 的输出
func Parse(s string) (GDID, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return Zero, errors.Newf("gdid: malformed value %q", s)
	}

	era, err := strconv.ParseUint(parts[0], 10, 32)
	if err != nil {
		return Zero, errors.Wrapf(err, "gdid: malformed era in %q", s)
	}
	authority, err := strconv.ParseUint(parts[1], 10, 8)
	if err != nil {
		return Zero, errors.Wrapf(err, "gdid: malformed authority in %q", s)
	}
	counter, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return Zero, errors.Wrapf(err, "gdid: malformed counter in %q", s)
	}

	return New(uint32(era), uint8(authority), counter)
}
