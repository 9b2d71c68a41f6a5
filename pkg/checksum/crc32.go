package checksum

import (
	"hash/crc32"
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

type crc32Hasher struct {
	table *crc32.Table
	name  Type
}

func newCRC32Hasher() *crc32Hasher {
	return &crc32Hasher{table: crc32.IEEETable, name: TypeCRC32}
}

func newCRC32CHasher() *crc32Hasher {
	return &crc32Hasher{table: castagnoli, name: TypeCRC32C}
}

func (h *crc32Hasher) Sum(data []byte) uint32 {
	return crc32.Checksum(data, h.table)
}

func (h *crc32Hasher) Name() string {
	return string(h.name)
}
