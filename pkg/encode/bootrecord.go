package encode

import (
	"fmt"

	. "github.com/weberc2/diskfs/pkg/types"
)

// BootRecord is the volume header kept in sector 0. It carries no
// filesystem state beyond identity; the allocator and root directory
// live at fixed positions derived from the sector count.
type BootRecord struct {
	Version     uint16
	SectorCount SectorIdx
	VolumeID    [16]byte
}

const BootMagic uint32 = 0x444b4653 // "DKFS"

func EncodeBootRecord(rec *BootRecord, b *[SectorSize]byte) {
	p := b[:]
	putU32(p, bootMagicStart, BootMagic)
	putU16(p, bootVersionStart, rec.Version)
	putSectorIdx(p, bootSectorCountStart, rec.SectorCount)
	copy(p[bootVolumeIDStart:bootVolumeIDEnd], rec.VolumeID[:])
}

func DecodeBootRecord(rec *BootRecord, b *[SectorSize]byte) error {
	p := b[:]
	magic := getU32(p, bootMagicStart)
	if magic != BootMagic {
		return fmt.Errorf(
			"decoding boot record: magic `%#x` (wanted `%#x`): %w",
			magic,
			BootMagic,
			NotFormattedErr,
		)
	}
	rec.Version = getU16(p, bootVersionStart)
	rec.SectorCount = getSectorIdx(p, bootSectorCountStart)
	copy(rec.VolumeID[:], p[bootVolumeIDStart:bootVolumeIDEnd])
	return nil
}

const (
	bootMagicStart = 0
	bootMagicSize  = 4
	bootMagicEnd   = bootMagicStart + bootMagicSize

	bootVersionStart = bootMagicEnd
	bootVersionSize  = 2
	bootVersionEnd   = bootVersionStart + bootVersionSize

	bootSectorCountStart = bootVersionEnd
	bootSectorCountSize  = 4
	bootSectorCountEnd   = bootSectorCountStart + bootSectorCountSize

	bootVolumeIDStart = bootSectorCountEnd
	bootVolumeIDSize  = 16
	bootVolumeIDEnd   = bootVolumeIDStart + bootVolumeIDSize
)

const NotFormattedErr ConstError = "volume not formatted"
