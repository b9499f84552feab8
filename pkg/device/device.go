package device

import (
	. "github.com/weberc2/diskfs/pkg/types"
)

// Device is the sector I/O facade. Implementations transfer whole
// sectors; buffers passed to ReadSector and WriteSector are always
// exactly SectorSize bytes.
type Device interface {
	ReadSector(idx SectorIdx, b []byte) error
	WriteSector(idx SectorIdx, b []byte) error
	SectorCount() SectorIdx
}

const OutOfRangeErr ConstError = "sector index out of range"
