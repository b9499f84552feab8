package encode

import (
	"encoding/binary"

	. "github.com/weberc2/diskfs/pkg/types"
)

func putSectorIdx(b []byte, start Byte, s SectorIdx) {
	putU32(b, start, uint32(s))
}

func getSectorIdx(b []byte, start Byte) SectorIdx {
	return SectorIdx(getU32(b, start))
}

func putByteCount(b []byte, start Byte, n Byte) {
	putU32(b, start, uint32(n))
}

func getByteCount(b []byte, start Byte) Byte {
	return Byte(getU32(b, start))
}

func putI32(b []byte, start Byte, i int32) {
	putU32(b, start, uint32(i))
}

func getI32(b []byte, start Byte) int32 {
	return int32(getU32(b, start))
}

func putU32(b []byte, start Byte, u uint32) {
	binary.LittleEndian.PutUint32(b[start:start+4], u)
}

func getU32(b []byte, start Byte) uint32 {
	return binary.LittleEndian.Uint32(b[start : start+4])
}

func putU16(b []byte, start Byte, u uint16) {
	binary.LittleEndian.PutUint16(b[start:start+2], u)
}

func getU16(b []byte, start Byte) uint16 {
	return binary.LittleEndian.Uint16(b[start : start+2])
}

func putBool(b []byte, start Byte, v bool) {
	if v {
		b[start] = 1
	} else {
		b[start] = 0
	}
}

func getBool(b []byte, start Byte) bool {
	return b[start] != 0
}
