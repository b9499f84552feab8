package inode

import (
	"fmt"

	"github.com/weberc2/diskfs/pkg/alloc"
	"github.com/weberc2/diskfs/pkg/device"
	"github.com/weberc2/diskfs/pkg/encode"
	"github.com/weberc2/diskfs/pkg/extent"
	. "github.com/weberc2/diskfs/pkg/types"
)

// Table is the process-wide set of open inodes, keyed by sector.
type Table struct {
	dev  device.Device
	fm   *alloc.FreeMap
	open map[SectorIdx]*Inode
}

func NewTable(dev device.Device, fm *alloc.FreeMap) *Table {
	return &Table{dev: dev, fm: fm, open: make(map[SectorIdx]*Inode)}
}

// Create writes a fresh on-disk inode at sector, zero-extended to
// length. It does not open the inode. Returns false when the
// allocator cannot supply enough data sectors; sectors allocated on
// the way are retained (the caller decides whether to release the
// inode sector itself).
func (t *Table) Create(
	sector SectorIdx,
	length Byte,
	isDir bool,
) (bool, error) {
	if length < 0 {
		panic(fmt.Sprintf(
			"creating inode at sector `%d`: negative length `%d`",
			sector,
			length,
		))
	}

	disk := DiskInode{
		Magic: InodeMagic,
		Self:  sector,
		IsDir: isDir,
	}
	reached, err := extent.Extend(t.dev, t.fm, &disk, length)
	if err != nil {
		return false, fmt.Errorf(
			"creating inode at sector `%d`: %w",
			sector,
			err,
		)
	}
	return reached == length, nil
}

// Open returns a reference to the inode stored at sector, loading it
// from disk unless some other handle already has it open. Two opens of
// the same sector always share one entry.
func (t *Table) Open(sector SectorIdx) (*Inode, error) {
	if ip, ok := t.open[sector]; ok {
		ip.openCount++
		return ip, nil
	}

	var buf [SectorSize]byte
	if err := t.dev.ReadSector(sector, buf[:]); err != nil {
		return nil, fmt.Errorf("opening inode `%d`: %w", sector, err)
	}

	ip := &Inode{openCount: 1}
	if err := encode.DecodeInode(&ip.Disk, &buf); err != nil {
		// A bad magic here means the volume is corrupt; there is no
		// way to continue safely.
		panic(fmt.Sprintf("opening inode `%d`: %v", sector, err))
	}
	if ip.Disk.Self != sector {
		panic(fmt.Sprintf(
			"opening inode `%d`: self sector reads `%d`",
			sector,
			ip.Disk.Self,
		))
	}

	t.open[sector] = ip
	return ip, nil
}

// Reopen takes another reference on an already-open inode.
func (t *Table) Reopen(ip *Inode) *Inode {
	if ip != nil {
		ip.openCount++
	}
	return ip
}

// Close drops one reference. The last close evicts the entry and, if
// the inode was removed, releases its sector footprint and the inode
// sector itself.
func (t *Table) Close(ip *Inode) error {
	if ip == nil {
		return nil
	}
	if ip.openCount == 0 {
		panic(fmt.Sprintf("closing inode `%d`: not open", ip.Disk.Self))
	}

	ip.openCount--
	if ip.openCount > 0 {
		return nil
	}

	delete(t.open, ip.Disk.Self)

	if ip.removed {
		t.fm.Release(ip.Disk.Self, 1)
		if err := extent.FreeAll(t.dev, t.fm, &ip.Disk); err != nil {
			return fmt.Errorf(
				"closing removed inode `%d`: %w",
				ip.Disk.Self,
				err,
			)
		}
	}
	return nil
}

// OpenCountOf reports the reference count for a sector, zero when not
// open. Used by tests.
func (t *Table) OpenCountOf(sector SectorIdx) int {
	if ip, ok := t.open[sector]; ok {
		return ip.openCount
	}
	return 0
}
