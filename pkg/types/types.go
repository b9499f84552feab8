package types

// SectorIdx is a block-device sector index. Persistent slots use
// SectorNil (0) for "unused"; in-memory lookups use SectorNone (-1)
// for "no such sector". The two must never be conflated at rest.
type SectorIdx int32

// Byte is a byte offset or length within a file (off_t).
type Byte int32

const (
	SectorSize Byte = 512

	SectorNil  SectorIdx = 0
	SectorNone SectorIdx = -1

	// BootSector holds the volume boot record; it is never allocated.
	BootSector SectorIdx = 0
)

const (
	DirectSectors         = 12
	IndirectSectors       = 1
	DoublyIndirectSectors = 1

	// PointerSize is the width of a sector index inside an indirect
	// sector: 128 pointers per 512-byte sector.
	PointerSize       Byte = 4
	PointersPerSector      = int32(SectorSize / PointerSize)

	MaxFileSectors = int32(DirectSectors) +
		IndirectSectors*PointersPerSector +
		DoublyIndirectSectors*PointersPerSector*PointersPerSector

	MaxFileLength = Byte(MaxFileSectors) * SectorSize
)

const InodeMagic uint32 = 0x494e4f44 // "INOD"

// DiskInode is the persistent inode. Its encoded form is exactly one
// sector (see pkg/encode). The fill counters always point one past the
// last populated slot of the current partially-filled container; they
// are the sole source of truth for resuming growth, and are never
// reconstructed from Length.
type DiskInode struct {
	Length Byte
	Magic  uint32
	Self   SectorIdx
	IsDir  bool

	DirectCount int32
	Direct      [DirectSectors]SectorIdx

	IndirCount int32
	IndirFill  int32
	Indirect   [IndirectSectors]SectorIdx

	DindirCount  int32
	DindirL1Fill int32
	DindirL2Fill int32
	Dindirect    [DoublyIndirectSectors]SectorIdx
}

// PointerTable is the in-memory form of an indirect sector: a dense
// array of sector indices with no header.
type PointerTable [PointersPerSector]SectorIdx

type ConstError string

func (err ConstError) Error() string { return string(err) }
