package alloc

import (
	"fmt"

	"github.com/weberc2/diskfs/pkg/device"
	"github.com/weberc2/diskfs/pkg/math"
	. "github.com/weberc2/diskfs/pkg/types"
)

// FreeMap is the persistent free-sector allocator. Its bitmap covers
// every sector on the device and lives in a fixed run of sectors
// immediately after the boot sector; those sectors, and the boot
// sector itself, are born reserved.
type FreeMap struct {
	dev    device.Device
	bitmap Bitmap
}

// MapSectors returns the size of the bitmap region for a device with
// the given total sector count.
func MapSectors(total SectorIdx) SectorIdx {
	bitsPerSector := int32(SectorSize) * bitsPerByte
	return SectorIdx(math.DivRoundUp(int32(total), bitsPerSector))
}

func NewFreeMap(dev device.Device) *FreeMap {
	return &FreeMap{dev: dev, bitmap: New(int32(dev.SectorCount()))}
}

// Create initializes a fresh map with the reserved prefix (boot sector
// plus the map's own sectors) marked in use, and persists it.
func (fm *FreeMap) Create() error {
	fm.bitmap = New(fm.bitmap.Len())
	reserved := 1 + int32(MapSectors(fm.dev.SectorCount()))
	for i := int32(0); i < reserved; i++ {
		fm.bitmap.Set(i)
	}
	if err := fm.Close(); err != nil {
		return fmt.Errorf("creating free map: %w", err)
	}
	return nil
}

// Open loads the persisted bitmap.
func (fm *FreeMap) Open() error {
	var sector [SectorSize]byte
	bytes := fm.bitmap.Bytes()
	for i := SectorIdx(0); i < MapSectors(fm.dev.SectorCount()); i++ {
		if err := fm.dev.ReadSector(1+i, sector[:]); err != nil {
			return fmt.Errorf("opening free map: %w", err)
		}
		start := int(i) * int(SectorSize)
		end := math.Min(start+int(SectorSize), len(bytes))
		copy(bytes[start:end], sector[:end-start])
	}
	return nil
}

// Close persists the bitmap into its reserved sectors.
func (fm *FreeMap) Close() error {
	var sector [SectorSize]byte
	bytes := fm.bitmap.Bytes()
	for i := SectorIdx(0); i < MapSectors(fm.dev.SectorCount()); i++ {
		for j := range sector {
			sector[j] = 0
		}
		start := int(i) * int(SectorSize)
		end := math.Min(start+int(SectorSize), len(bytes))
		copy(sector[:end-start], bytes[start:end])
		if err := fm.dev.WriteSector(1+i, sector[:]); err != nil {
			return fmt.Errorf("closing free map: %w", err)
		}
	}
	return nil
}

// Allocate finds and claims n consecutive free sectors, returning the
// first. The extent engine only ever asks for one at a time.
func (fm *FreeMap) Allocate(n int32) (SectorIdx, bool) {
	first, ok := fm.bitmap.FindRun(n)
	if !ok {
		return SectorNone, false
	}
	for i := int32(0); i < n; i++ {
		fm.bitmap.Set(first + i)
	}
	return SectorIdx(first), true
}

// Release returns n sectors starting at first to the free pool.
func (fm *FreeMap) Release(first SectorIdx, n int32) {
	for i := int32(0); i < n; i++ {
		fm.bitmap.Clear(int32(first) + i)
	}
}

// InUse reports the number of allocated sectors, reserved prefix
// included.
func (fm *FreeMap) InUse() int32 { return fm.bitmap.Count() }
