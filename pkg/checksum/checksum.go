// Package checksum 持久化文件的校验和
package checksum

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrUnsupported 未知校验算法
var ErrUnsupported = errors.New("checksum: unsupported type")

// ErrMismatch 校验和不匹配
var ErrMismatch = errors.New("checksum: mismatch")

// Hasher 校验和计算器
type Hasher interface {
	Sum(data []byte) uint32
	Name() string
}

// Type 校验算法类型
type Type string

const (
	// TypeCRC32 IEEE 多项式
	TypeCRC32 Type = "crc32"
	// TypeCRC32C Castagnoli 多项式，SSE4.2 硬件加速
	TypeCRC32C Type = "crc32c"
	// TypeXXHash xxhash64 取低 32 位
	TypeXXHash Type = "xxhash"
)

// New 创建校验器
func New(t Type) (Hasher, error) {
	switch t {
	case TypeCRC32:
		return newCRC32Hasher(), nil
	case TypeCRC32C:
		return newCRC32CHasher(), nil
	case TypeXXHash:
		return xxhashHasher{}, nil
	default:
		return nil, errors.Wrapf(ErrUnsupported, "%q", t)
	}
}

// Default CRC32C
func Default() Hasher {
	return newCRC32CHasher()
}

// Seal 返回 "<name>:<hex>"，附在数据之后
func Seal(h Hasher, data []byte) string {
	return fmt.Sprintf("%s:%08x", h.Name(), h.Sum(data))
}

// Verify 检查 Seal 生成的标记，算法由标记本身决定
func Verify(data []byte, seal string) error {
	name, hex, ok := strings.Cut(strings.TrimSpace(seal), ":")
	if !ok {
		return errors.Wrapf(ErrMismatch, "malformed seal %q", seal)
	}
	h, err := New(Type(name))
	if err != nil {
		return err
	}
	want, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return errors.Wrapf(ErrMismatch, "malformed seal %q", seal)
	}
	if got := h.Sum(data); got != uint32(want) {
		return errors.Wrapf(ErrMismatch, "%s: got %08x, want %08x", name, got, want)
	}
	return nil
}
