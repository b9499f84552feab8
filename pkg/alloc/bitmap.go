package alloc

import (
	"github.com/weberc2/diskfs/pkg/math"
)

const bitsPerByte = 8

// Bitmap is a dense bit set; bit i tracks sector i. A high bit means
// "in use".
type Bitmap struct {
	bytes []byte
	bits  int32
}

func New(bits int32) Bitmap {
	return Bitmap{
		bytes: make([]byte, math.DivRoundUp(bits, bitsPerByte)),
		bits:  bits,
	}
}

func (bm Bitmap) Len() int32 { return bm.bits }

func (bm Bitmap) IsSet(i int32) bool {
	return byteIsHigh(bm.bytes[i/bitsPerByte], uint8(i%bitsPerByte))
}

func (bm Bitmap) Set(i int32) {
	b := &bm.bytes[i/bitsPerByte]
	*b = byteSetHigh(*b, uint8(i%bitsPerByte))
}

func (bm Bitmap) Clear(i int32) {
	b := &bm.bytes[i/bitsPerByte]
	*b = byteSetLow(*b, uint8(i%bitsPerByte))
}

// FindRun returns the first index of n consecutive clear bits, or
// false when no such run exists.
func (bm Bitmap) FindRun(n int32) (int32, bool) {
	var run int32
	for i := int32(0); i < bm.bits; i++ {
		if bm.IsSet(i) {
			run = 0
			continue
		}
		run++
		if run == n {
			return i - n + 1, true
		}
	}
	return 0, false
}

// Count returns the number of set bits.
func (bm Bitmap) Count() int32 {
	var count int32
	for i := int32(0); i < bm.bits; i++ {
		if bm.IsSet(i) {
			count++
		}
	}
	return count
}

// Bytes exposes the backing storage for persistence.
func (bm Bitmap) Bytes() []byte { return bm.bytes }

func byteIsHigh(byt byte, bit uint8) bool {
	return byt&(0b1000_0000>>bit) != 0
}

func byteSetHigh(byt byte, bit uint8) byte {
	return byt | (0b1000_0000 >> bit)
}

func byteSetLow(byt byte, bit uint8) byte {
	return byt & ^(0b1000_0000 >> bit)
}
