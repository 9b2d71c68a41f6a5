package checksum

import (
	"github.com/cespare/xxhash/v2"
)

type xxhashHasher struct{}

func (xxhashHasher) Sum(data []byte) uint32 {
	return uint32(xxhash.Sum64(data))
}

func (xxhashHasher) Name() string {
	return string(TypeXXHash)
}
