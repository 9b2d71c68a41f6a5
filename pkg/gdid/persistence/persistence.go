// Package persistence 记录每个 (authority, scope, sequence) 最后一次预留到的 (era, value)
package persistence

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrMalformedID 存储内容无法解析为 "<era>::<value>"
var ErrMalformedID = errors.New("persistence: malformed persisted id")

const idSeparator = "::"

// PersistedID 持久化记录，Value 为下一次分配的起点
type PersistedID struct {
	Era   uint32
	Value uint64
}

// String 编码为 "<era>::<value>"，与已有存储保持兼容
func (p PersistedID) String() string {
	return strconv.FormatUint(uint64(p.Era), 10) + idSeparator + strconv.FormatUint(p.Value, 10)
}

// Less 按 (era, value) 字典序比较
func (p PersistedID) Less(other PersistedID) bool {
	if p.Era != other.Era {
		return p.Era < other.Era
	}
	return p.Value < other.Value
}

// ParsePersistedID 解析 "<era>::<value>"
func ParsePersistedID(s string) (PersistedID, error) {
	eraPart, valuePart, ok := strings.Cut(strings.TrimSpace(s), idSeparator)
	if !ok {
		return PersistedID{}, errors.Wrapf(ErrMalformedID, "%q", s)
	}
	era, err := strconv.ParseUint(eraPart, 10, 32)
	if err != nil {
		return PersistedID{}, errors.Wrapf(ErrMalformedID, "era %q", eraPart)
	}
	value, err := strconv.ParseUint(valuePart, 10, 64)
	if err != nil {
		return PersistedID{}, errors.Wrapf(ErrMalformedID, "value %q", valuePart)
	}
	return PersistedID{Era: uint32(era), Value: value}, nil
}

// Location 一个持久化位置
//
// Read 在从未写入时返回 found=false 且 err=nil。
// scope 和 sequence 已经过规范化，可以直接作为键使用。
type Location interface {
	Name() string
	Write(ctx context.Context, authority uint8, scope, sequence string, id PersistedID) error
	Read(ctx context.Context, authority uint8, scope, sequence string) (PersistedID, bool, error)
}

// Key 生成各位置共用的键 "<prefix><scope>/<sequence>/<authority>"
func Key(prefix string, authority uint8, scope, sequence string) string {
	return fmt.Sprintf("%s%s/%s/%d", prefix, scope, sequence, authority)
}
