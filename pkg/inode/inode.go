// Package inode maintains the in-memory registry of open inodes. The
// table deduplicates opens by inode sector, so every handle onto the
// same on-disk object shares one entry, and defers physical
// deallocation of removed inodes until the last reference closes.
package inode

import (
	"fmt"

	. "github.com/weberc2/diskfs/pkg/types"
)

// Inode is an open inode. Disk is authoritative for length and
// extents; the surrounding fields track the in-memory lifecycle.
type Inode struct {
	Disk DiskInode

	openCount int
	removed   bool
	denyWrite int
}

// OpenCount reports the number of live references.
func (ip *Inode) OpenCount() int { return ip.openCount }

// Number returns the inode's sector index, which doubles as its
// user-visible inode number.
func (ip *Inode) Number() SectorIdx { return ip.Disk.Self }

func (ip *Inode) Length() Byte { return ip.Disk.Length }

func (ip *Inode) IsDir() bool { return ip.Disk.IsDir }

// Remove marks the inode for deallocation at last close. Existing
// references keep working; the object is simply no longer
// discoverable once its directory entry is gone.
func (ip *Inode) Remove() { ip.removed = true }

func (ip *Inode) Removed() bool { return ip.removed }

// DenyWrite blocks writes through any handle until a matching
// AllowWrite. The count can never exceed the open count: every denier
// holds a reference.
func (ip *Inode) DenyWrite() {
	ip.denyWrite++
	if ip.denyWrite > ip.openCount {
		panic(fmt.Sprintf(
			"inode `%d`: deny-write count `%d` exceeds open count `%d`",
			ip.Disk.Self,
			ip.denyWrite,
			ip.openCount,
		))
	}
}

func (ip *Inode) AllowWrite() {
	if ip.denyWrite == 0 {
		panic(fmt.Sprintf(
			"inode `%d`: allow-write without matching deny-write",
			ip.Disk.Self,
		))
	}
	ip.denyWrite--
}

func (ip *Inode) WriteDenied() bool { return ip.denyWrite > 0 }
