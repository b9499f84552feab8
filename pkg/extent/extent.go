// Package extent maps file byte offsets to data sectors and manages
// the lazy growth and teardown of an inode's sector footprint across
// the direct, single-indirect, and double-indirect regions.
package extent

import (
	"fmt"

	"github.com/weberc2/diskfs/pkg/alloc"
	"github.com/weberc2/diskfs/pkg/device"
	"github.com/weberc2/diskfs/pkg/encode"
	"github.com/weberc2/diskfs/pkg/math"
	. "github.com/weberc2/diskfs/pkg/types"
)

// Region thresholds in byte offsets.
const (
	directLimit = Byte(DirectSectors) * SectorSize
	indirSpan   = Byte(PointersPerSector) * SectorSize
	indirLimit  = directLimit + IndirectSectors*indirSpan
	dindirSpan  = Byte(PointersPerSector) * indirSpan
)

var zeros [SectorSize]byte

// SectorsFor returns the number of data sectors backing a file of the
// given length.
func SectorsFor(length Byte) int32 {
	return math.DivRoundUp(int32(length), int32(SectorSize))
}

// Locate returns the data sector backing pos, or SectorNone when pos
// is outside [0, inode.Length). Indirect sectors are read on demand
// and never cached.
func Locate(
	dev device.Device,
	inode *DiskInode,
	pos Byte,
) (SectorIdx, error) {
	if pos < 0 || pos >= inode.Length {
		return SectorNone, nil
	}
	orig := pos

	if pos < directLimit {
		return inode.Direct[pos/SectorSize], nil
	}

	if pos < indirLimit {
		pos -= directLimit
		var table PointerTable
		if err := readTable(
			dev,
			inode.Indirect[pos/indirSpan],
			&table,
		); err != nil {
			return SectorNone, fmt.Errorf(
				"locating inode `%d` offset `%d`: %w",
				inode.Self,
				orig,
				err,
			)
		}
		return table[(pos%indirSpan)/SectorSize], nil
	}

	pos -= indirLimit
	if pos/dindirSpan >= DoublyIndirectSectors {
		return SectorNone, nil
	}

	var l1 PointerTable
	if err := readTable(dev, inode.Dindirect[pos/dindirSpan], &l1); err != nil {
		return SectorNone, fmt.Errorf(
			"locating inode `%d` offset `%d`: %w",
			inode.Self,
			orig,
			err,
		)
	}
	pos %= dindirSpan

	var l2 PointerTable
	if err := readTable(dev, l1[pos/indirSpan], &l2); err != nil {
		return SectorNone, fmt.Errorf(
			"locating inode `%d` offset `%d`: %w",
			inode.Self,
			orig,
			err,
		)
	}
	return l2[(pos%indirSpan)/SectorSize], nil
}

// Extend grows the inode to newLength, allocating and zero-filling
// data sectors (and whatever container sectors the new extents need)
// as it goes. It returns the length actually reached: newLength on
// success, less when the allocator runs dry or the maximum file size
// is hit. Sectors allocated before a failure are retained. The on-disk
// inode is rewritten before returning; each container touched is
// written once, after its last mutation of this call.
func Extend(
	dev device.Device,
	fm *alloc.FreeMap,
	inode *DiskInode,
	newLength Byte,
) (Byte, error) {
	remaining := SectorsFor(newLength) - SectorsFor(inode.Length)
	if remaining < 0 {
		panic(fmt.Sprintf(
			"extending inode `%d`: contraction from `%d` to `%d` bytes",
			inode.Self,
			inode.Length,
			newLength,
		))
	}

	remaining, err := extendDirect(dev, fm, inode, remaining)
	if err == nil && remaining > 0 {
		remaining, err = extendIndirect(dev, fm, inode, remaining)
	}
	if err == nil && remaining > 0 {
		remaining, err = extendDoublyIndirect(dev, fm, inode, remaining)
	}
	if err != nil {
		return inode.Length, fmt.Errorf(
			"extending inode `%d` to `%d` bytes: %w",
			inode.Self,
			newLength,
			err,
		)
	}

	// On a shortfall the file keeps every sector it reached; the
	// length never moves backward (an over-max request changes
	// nothing).
	inode.Length = math.Max(inode.Length, newLength-Byte(remaining)*SectorSize)
	if err := WriteInode(dev, inode); err != nil {
		return inode.Length, fmt.Errorf(
			"extending inode `%d` to `%d` bytes: %w",
			inode.Self,
			newLength,
			err,
		)
	}
	return inode.Length, nil
}

func extendDirect(
	dev device.Device,
	fm *alloc.FreeMap,
	inode *DiskInode,
	remaining int32,
) (int32, error) {
	for remaining > 0 && inode.DirectCount < DirectSectors {
		s, ok := fm.Allocate(1)
		if !ok {
			return remaining, nil
		}
		inode.Direct[inode.DirectCount] = s
		inode.DirectCount++
		if err := dev.WriteSector(s, zeros[:]); err != nil {
			return remaining, err
		}
		remaining--
	}
	return remaining, nil
}

func extendIndirect(
	dev device.Device,
	fm *alloc.FreeMap,
	inode *DiskInode,
	remaining int32,
) (int32, error) {
	for remaining > 0 {
		// Open a new container, or resume the current partially-filled
		// one; the counters, not the file length, decide which.
		var table PointerTable
		if inode.IndirCount == 0 || inode.IndirFill == PointersPerSector {
			if inode.IndirCount == IndirectSectors {
				return remaining, nil
			}
			cs, ok := fm.Allocate(1)
			if !ok {
				return remaining, nil
			}
			inode.Indirect[inode.IndirCount] = cs
			inode.IndirCount++
			inode.IndirFill = 0
		} else if err := readTable(
			dev,
			inode.Indirect[inode.IndirCount-1],
			&table,
		); err != nil {
			return remaining, err
		}

		stalled := false
		for remaining > 0 && inode.IndirFill < PointersPerSector {
			s, ok := fm.Allocate(1)
			if !ok {
				stalled = true
				break
			}
			table[inode.IndirFill] = s
			inode.IndirFill++
			if err := dev.WriteSector(s, zeros[:]); err != nil {
				return remaining, err
			}
			remaining--
		}

		if err := writeTable(
			dev,
			inode.Indirect[inode.IndirCount-1],
			&table,
		); err != nil {
			return remaining, err
		}
		if stalled {
			return remaining, nil
		}
	}
	return remaining, nil
}

func extendDoublyIndirect(
	dev device.Device,
	fm *alloc.FreeMap,
	inode *DiskInode,
	remaining int32,
) (int32, error) {
	for remaining > 0 {
		var l1 PointerTable
		currentFull := inode.DindirL1Fill == PointersPerSector &&
			inode.DindirL2Fill == PointersPerSector
		if inode.DindirCount == 0 || currentFull {
			if inode.DindirCount == DoublyIndirectSectors {
				return remaining, nil
			}
			os, ok := fm.Allocate(1)
			if !ok {
				return remaining, nil
			}
			inode.Dindirect[inode.DindirCount] = os
			inode.DindirCount++
			inode.DindirL1Fill = 0
			inode.DindirL2Fill = 0
		} else if err := readTable(
			dev,
			inode.Dindirect[inode.DindirCount-1],
			&l1,
		); err != nil {
			return remaining, err
		}
		outer := inode.Dindirect[inode.DindirCount-1]

		stalled := false
		for remaining > 0 {
			var l2 PointerTable
			if inode.DindirL1Fill == 0 ||
				inode.DindirL2Fill == PointersPerSector {
				if inode.DindirL1Fill == PointersPerSector {
					break // current outer is full
				}
				cs, ok := fm.Allocate(1)
				if !ok {
					stalled = true
					break
				}
				l1[inode.DindirL1Fill] = cs
				inode.DindirL1Fill++
				inode.DindirL2Fill = 0
			} else if err := readTable(
				dev,
				l1[inode.DindirL1Fill-1],
				&l2,
			); err != nil {
				return remaining, err
			}

			for remaining > 0 && inode.DindirL2Fill < PointersPerSector {
				s, ok := fm.Allocate(1)
				if !ok {
					stalled = true
					break
				}
				l2[inode.DindirL2Fill] = s
				inode.DindirL2Fill++
				if err := dev.WriteSector(s, zeros[:]); err != nil {
					return remaining, err
				}
				remaining--
			}

			if err := writeTable(
				dev,
				l1[inode.DindirL1Fill-1],
				&l2,
			); err != nil {
				return remaining, err
			}
			if stalled {
				break
			}
		}

		if err := writeTable(dev, outer, &l1); err != nil {
			return remaining, err
		}
		if stalled {
			return remaining, nil
		}
	}
	return remaining, nil
}

// FreeAll releases every data, indirect, and double-indirect sector
// the inode owns, deepest region first, consuming the fill counters as
// cursors on the way down. The inode's own sector stays allocated; the
// inode table releases it.
func FreeAll(
	dev device.Device,
	fm *alloc.FreeMap,
	inode *DiskInode,
) error {
	for inode.DindirCount != 0 {
		var l1 PointerTable
		if err := readTable(
			dev,
			inode.Dindirect[inode.DindirCount-1],
			&l1,
		); err != nil {
			return fmt.Errorf("freeing inode `%d`: %w", inode.Self, err)
		}
		for inode.DindirL1Fill != 0 {
			var l2 PointerTable
			if err := readTable(
				dev,
				l1[inode.DindirL1Fill-1],
				&l2,
			); err != nil {
				return fmt.Errorf("freeing inode `%d`: %w", inode.Self, err)
			}
			for inode.DindirL2Fill != 0 {
				fm.Release(l2[inode.DindirL2Fill-1], 1)
				inode.DindirL2Fill--
			}
			fm.Release(l1[inode.DindirL1Fill-1], 1)
			inode.DindirL1Fill--
			if inode.DindirL1Fill != 0 {
				inode.DindirL2Fill = PointersPerSector
			}
		}
		fm.Release(inode.Dindirect[inode.DindirCount-1], 1)
		inode.DindirCount--
		if inode.DindirCount != 0 {
			inode.DindirL1Fill = PointersPerSector
			inode.DindirL2Fill = PointersPerSector
		}
	}

	for inode.IndirCount != 0 {
		var table PointerTable
		if err := readTable(
			dev,
			inode.Indirect[inode.IndirCount-1],
			&table,
		); err != nil {
			return fmt.Errorf("freeing inode `%d`: %w", inode.Self, err)
		}
		for inode.IndirFill != 0 {
			fm.Release(table[inode.IndirFill-1], 1)
			inode.IndirFill--
		}
		fm.Release(inode.Indirect[inode.IndirCount-1], 1)
		inode.IndirCount--
		if inode.IndirCount != 0 {
			inode.IndirFill = PointersPerSector
		}
	}

	for inode.DirectCount != 0 {
		fm.Release(inode.Direct[inode.DirectCount-1], 1)
		inode.DirectCount--
	}

	return nil
}

// WriteInode rewrites the inode's own sector; every metadata mutation
// flushes through here immediately.
func WriteInode(dev device.Device, inode *DiskInode) error {
	var sector [SectorSize]byte
	encode.EncodeInode(inode, &sector)
	if err := dev.WriteSector(inode.Self, sector[:]); err != nil {
		return fmt.Errorf("writing inode sector `%d`: %w", inode.Self, err)
	}
	return nil
}

func readTable(
	dev device.Device,
	idx SectorIdx,
	table *PointerTable,
) error {
	var sector [SectorSize]byte
	if err := dev.ReadSector(idx, sector[:]); err != nil {
		return err
	}
	encode.DecodePointerTable(table, &sector)
	return nil
}

func writeTable(
	dev device.Device,
	idx SectorIdx,
	table *PointerTable,
) error {
	var sector [SectorSize]byte
	encode.EncodePointerTable(table, &sector)
	return dev.WriteSector(idx, sector[:])
}
