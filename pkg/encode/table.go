package encode

import (
	. "github.com/weberc2/diskfs/pkg/types"
)

// EncodePointerTable packs an indirect sector: 128 pointers, no
// header.
func EncodePointerTable(table *PointerTable, b *[SectorSize]byte) {
	p := b[:]
	for i := int32(0); i < PointersPerSector; i++ {
		putSectorIdx(p, Byte(i)*PointerSize, table[i])
	}
}

// DecodePointerTable unpacks an indirect sector.
func DecodePointerTable(table *PointerTable, b *[SectorSize]byte) {
	p := b[:]
	for i := int32(0); i < PointersPerSector; i++ {
		table[i] = getSectorIdx(p, Byte(i)*PointerSize)
	}
}
