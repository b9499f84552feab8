package device

import (
	"fmt"

	. "github.com/weberc2/diskfs/pkg/types"
)

// MemDevice is a RAM-backed device, used by tests.
type MemDevice struct {
	data []byte
}

func NewMemDevice(sectors SectorIdx) *MemDevice {
	return &MemDevice{data: make([]byte, Byte(sectors)*SectorSize)}
}

func (d *MemDevice) ReadSector(idx SectorIdx, b []byte) error {
	if idx < 0 || idx >= d.SectorCount() {
		return fmt.Errorf("reading sector `%d`: %w", idx, OutOfRangeErr)
	}
	start := Byte(idx) * SectorSize
	copy(b, d.data[start:start+SectorSize])
	return nil
}

func (d *MemDevice) WriteSector(idx SectorIdx, b []byte) error {
	if idx < 0 || idx >= d.SectorCount() {
		return fmt.Errorf("writing sector `%d`: %w", idx, OutOfRangeErr)
	}
	start := Byte(idx) * SectorSize
	copy(d.data[start:start+SectorSize], b)
	return nil
}

func (d *MemDevice) SectorCount() SectorIdx {
	return SectorIdx(len(d.data) / int(SectorSize))
}
