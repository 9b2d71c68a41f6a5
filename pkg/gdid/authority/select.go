package authority

import (
	"encoding/binary"
	"time"

	"github.com/cespare/xxhash/v2"
)

// SelectAuthority 按小时轮换 authority ID：xxhash(dayOfYear*24+hour) mod len(pool)
//
// 同一小时内结果固定，调用方无法指定 authority。
func SelectAuthority(pool []uint8, now time.Time) uint8 {
	if len(pool) == 1 {
		return pool[0]
	}
	now = now.UTC()
	slot := uint64(now.YearDay()*24 + now.Hour())

	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], slot)
	return pool[xxhash.Sum64(buf[:])%uint64(len(pool))]
}
