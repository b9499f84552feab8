package encode

import (
	"fmt"

	. "github.com/weberc2/diskfs/pkg/types"
)

// EncodeDirEntry packs one fixed-width directory record. Names longer
// than NameMax are a caller error.
func EncodeDirEntry(entry *DirEntry, b *[DirEntrySize]byte) error {
	if len(entry.Name) > NameMax {
		return fmt.Errorf(
			"encoding dir entry `%s` (`%d` bytes): %w",
			entry.Name,
			len(entry.Name),
			NameTooLongErr,
		)
	}

	p := b[:]
	putBool(p, dirEntryInUseStart, entry.InUse)
	putBool(p, dirEntryIsSubdirStart, entry.IsSubdir)
	for i := Byte(0); i < NameMax; i++ {
		p[dirEntryNameStart+i] = 0
	}
	copy(p[dirEntryNameStart:dirEntryNameEnd], entry.Name)
	putSectorIdx(p, dirEntrySectorStart, entry.Sector)
	return nil
}

// DecodeDirEntry unpacks one directory record. Free records decode
// with InUse false and whatever stale bytes remain; callers must check
// InUse before trusting the rest.
func DecodeDirEntry(entry *DirEntry, b *[DirEntrySize]byte) {
	p := b[:]
	entry.InUse = getBool(p, dirEntryInUseStart)
	entry.IsSubdir = getBool(p, dirEntryIsSubdirStart)

	name := p[dirEntryNameStart:dirEntryNameEnd]
	end := 0
	for end < len(name) && name[end] != 0 {
		end++
	}
	entry.Name = string(name[:end])

	entry.Sector = getSectorIdx(p, dirEntrySectorStart)
}

const (
	dirEntryInUseStart = 0
	dirEntryInUseSize  = 1
	dirEntryInUseEnd   = dirEntryInUseStart + dirEntryInUseSize

	dirEntryIsSubdirStart = dirEntryInUseEnd
	dirEntryIsSubdirSize  = 1
	dirEntryIsSubdirEnd   = dirEntryIsSubdirStart + dirEntryIsSubdirSize

	dirEntryNameStart = dirEntryIsSubdirEnd
	dirEntryNameSize  = NameMax
	dirEntryNameEnd   = dirEntryNameStart + dirEntryNameSize

	dirEntrySectorStart = dirEntryNameEnd
	dirEntrySectorSize  = 4
	dirEntrySectorEnd   = dirEntrySectorStart + dirEntrySectorSize
)

const NameTooLongErr ConstError = "name too long"
