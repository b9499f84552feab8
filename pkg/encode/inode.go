package encode

import (
	"fmt"

	. "github.com/weberc2/diskfs/pkg/types"
)

// EncodeInode packs a disk inode into one sector. The layout is fixed;
// slack beyond inodeDindirectEnd is left zeroed.
func EncodeInode(inode *DiskInode, b *[SectorSize]byte) {
	p := b[:]

	putByteCount(p, inodeLengthStart, inode.Length)
	putU32(p, inodeMagicStart, inode.Magic)
	putSectorIdx(p, inodeSelfStart, inode.Self)
	putBool(p, inodeIsDirStart, inode.IsDir)

	putI32(p, inodeDirectCountStart, inode.DirectCount)
	for i := Byte(0); i < DirectSectors; i++ {
		putSectorIdx(p, inodeDirectStart+i*PointerSize, inode.Direct[i])
	}

	putI32(p, inodeIndirCountStart, inode.IndirCount)
	putI32(p, inodeIndirFillStart, inode.IndirFill)
	for i := Byte(0); i < IndirectSectors; i++ {
		putSectorIdx(p, inodeIndirectStart+i*PointerSize, inode.Indirect[i])
	}

	putI32(p, inodeDindirCountStart, inode.DindirCount)
	putI32(p, inodeDindirL1FillStart, inode.DindirL1Fill)
	putI32(p, inodeDindirL2FillStart, inode.DindirL2Fill)
	for i := Byte(0); i < DoublyIndirectSectors; i++ {
		putSectorIdx(p, inodeDindirectStart+i*PointerSize, inode.Dindirect[i])
	}
}

// DecodeInode unpacks a disk inode from one sector, validating the
// magic before mutating the pointee.
func DecodeInode(inode *DiskInode, b *[SectorSize]byte) error {
	p := b[:]

	magic := getU32(p, inodeMagicStart)
	if magic != InodeMagic {
		return fmt.Errorf(
			"decoding inode: magic `%#x` (wanted `%#x`): %w",
			magic,
			InodeMagic,
			BadMagicErr,
		)
	}

	inode.Length = getByteCount(p, inodeLengthStart)
	inode.Magic = magic
	inode.Self = getSectorIdx(p, inodeSelfStart)
	inode.IsDir = getBool(p, inodeIsDirStart)

	inode.DirectCount = getI32(p, inodeDirectCountStart)
	for i := Byte(0); i < DirectSectors; i++ {
		inode.Direct[i] = getSectorIdx(p, inodeDirectStart+i*PointerSize)
	}

	inode.IndirCount = getI32(p, inodeIndirCountStart)
	inode.IndirFill = getI32(p, inodeIndirFillStart)
	for i := Byte(0); i < IndirectSectors; i++ {
		inode.Indirect[i] = getSectorIdx(p, inodeIndirectStart+i*PointerSize)
	}

	inode.DindirCount = getI32(p, inodeDindirCountStart)
	inode.DindirL1Fill = getI32(p, inodeDindirL1FillStart)
	inode.DindirL2Fill = getI32(p, inodeDindirL2FillStart)
	for i := Byte(0); i < DoublyIndirectSectors; i++ {
		inode.Dindirect[i] = getSectorIdx(p, inodeDindirectStart+i*PointerSize)
	}

	return nil
}

const (
	inodeLengthStart = 0
	inodeLengthSize  = 4
	inodeLengthEnd   = inodeLengthStart + inodeLengthSize

	inodeMagicStart = inodeLengthEnd
	inodeMagicSize  = 4
	inodeMagicEnd   = inodeMagicStart + inodeMagicSize

	inodeSelfStart = inodeMagicEnd
	inodeSelfSize  = 4
	inodeSelfEnd   = inodeSelfStart + inodeSelfSize

	inodeIsDirStart = inodeSelfEnd
	inodeIsDirSize  = 4
	inodeIsDirEnd   = inodeIsDirStart + inodeIsDirSize

	inodeDirectCountStart = inodeIsDirEnd
	inodeDirectCountSize  = 4
	inodeDirectCountEnd   = inodeDirectCountStart + inodeDirectCountSize

	inodeDirectStart = inodeDirectCountEnd
	inodeDirectSize  = DirectSectors * PointerSize
	inodeDirectEnd   = inodeDirectStart + inodeDirectSize

	inodeIndirCountStart = inodeDirectEnd
	inodeIndirCountSize  = 4
	inodeIndirCountEnd   = inodeIndirCountStart + inodeIndirCountSize

	inodeIndirFillStart = inodeIndirCountEnd
	inodeIndirFillSize  = 4
	inodeIndirFillEnd   = inodeIndirFillStart + inodeIndirFillSize

	inodeIndirectStart = inodeIndirFillEnd
	inodeIndirectSize  = IndirectSectors * PointerSize
	inodeIndirectEnd   = inodeIndirectStart + inodeIndirectSize

	inodeDindirCountStart = inodeIndirectEnd
	inodeDindirCountSize  = 4
	inodeDindirCountEnd   = inodeDindirCountStart + inodeDindirCountSize

	inodeDindirL1FillStart = inodeDindirCountEnd
	inodeDindirL1FillSize  = 4
	inodeDindirL1FillEnd   = inodeDindirL1FillStart + inodeDindirL1FillSize

	inodeDindirL2FillStart = inodeDindirL1FillEnd
	inodeDindirL2FillSize  = 4
	inodeDindirL2FillEnd   = inodeDindirL2FillStart + inodeDindirL2FillSize

	inodeDindirectStart = inodeDindirL2FillEnd
	inodeDindirectSize  = DoublyIndirectSectors * PointerSize
	inodeDindirectEnd   = inodeDindirectStart + inodeDindirectSize
)

const BadMagicErr ConstError = "bad inode magic"
