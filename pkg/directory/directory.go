// Package directory persists an ordered list of (name, inode-sector)
// records as a regular file. Record 0 of every directory is the
// reserved `..` back-pointer; free records are reused before the file
// grows.
package directory

import (
	"fmt"

	"github.com/weberc2/diskfs/pkg/alloc"
	"github.com/weberc2/diskfs/pkg/device"
	"github.com/weberc2/diskfs/pkg/encode"
	"github.com/weberc2/diskfs/pkg/file"
	"github.com/weberc2/diskfs/pkg/inode"
	. "github.com/weberc2/diskfs/pkg/types"
)

const (
	NotADirErr  ConstError = "not a directory"
	NotFoundErr ConstError = "no such entry"
	ExistsErr   ConstError = "entry exists"
	NotEmptyErr ConstError = "directory not empty"
	BusyErr     ConstError = "directory in use"
	BadNameErr  ConstError = "bad entry name"
	NoSpaceErr  ConstError = "no space for entry"
)

// Dir is a handle onto a directory inode. It owns the underlying
// inode reference (through its file handle) and carries the iterator
// cursor for readdir.
type Dir struct {
	dev   device.Device
	fm    *alloc.FreeMap
	table *inode.Table
	f     *file.File
	iter  int32
}

// Open wraps an open inode reference in a directory handle, taking
// ownership of the reference. Fails with NotADirErr on a regular
// file (the reference is still owned by the caller in that case).
func Open(
	dev device.Device,
	fm *alloc.FreeMap,
	table *inode.Table,
	ino *inode.Inode,
) (*Dir, error) {
	if !ino.IsDir() {
		return nil, fmt.Errorf(
			"opening inode `%d` as directory: %w",
			ino.Number(),
			NotADirErr,
		)
	}
	return &Dir{
		dev:   dev,
		fm:    fm,
		table: table,
		f:     file.New(dev, fm, table, ino),
	}, nil
}

func (d *Dir) Inode() *inode.Inode { return d.f.Inode() }

func (d *Dir) Close() error { return d.f.Close() }

// Records reports the record capacity of the directory file,
// free slots included.
func (d *Dir) Records() int32 {
	return int32(d.f.Size() / DirEntrySize)
}

// Init installs the reserved `..` record. The root directory is its
// own parent.
func (d *Dir) Init(parent SectorIdx) error {
	if err := d.writeEntry(ParentEntryIndex, &DirEntry{
		InUse:    true,
		IsSubdir: true,
		Name:     "..",
		Sector:   parent,
	}); err != nil {
		return fmt.Errorf(
			"initializing directory `%d`: %w",
			d.Inode().Number(),
			err,
		)
	}
	return nil
}

// Parent returns the sector of the directory's parent inode.
func (d *Dir) Parent() (SectorIdx, error) {
	entry, err := d.readEntry(ParentEntryIndex)
	if err != nil {
		return SectorNone, fmt.Errorf(
			"reading parent of directory `%d`: %w",
			d.Inode().Number(),
			err,
		)
	}
	return entry.Sector, nil
}

// Lookup resolves name to an inode sector. `.` is the directory
// itself; `..` is the stored back-pointer. First match wins;
// comparison is case-sensitive and exact.
func (d *Dir) Lookup(name string) (SectorIdx, bool, error) {
	if name == "." {
		return d.Inode().Number(), true, nil
	}
	if name == ".." {
		parent, err := d.Parent()
		if err != nil {
			return SectorNone, false, err
		}
		return parent, true, nil
	}

	for i := int32(ParentEntryIndex + 1); i < d.Records(); i++ {
		entry, err := d.readEntry(i)
		if err != nil {
			return SectorNone, false, fmt.Errorf(
				"looking up `%s` in directory `%d`: %w",
				name,
				d.Inode().Number(),
				err,
			)
		}
		if entry.InUse && entry.Name == name {
			return entry.Sector, true, nil
		}
	}
	return SectorNone, false, nil
}

// Add installs a record binding name to sector, reusing the first
// free record or appending one past the end.
func (d *Dir) Add(name string, sector SectorIdx, isSubdir bool) error {
	wrap := func(err error) error {
		return fmt.Errorf(
			"adding `%s` -> `%d` to directory `%d`: %w",
			name,
			sector,
			d.Inode().Number(),
			err,
		)
	}

	if name == "" || name == "." || name == ".." {
		return wrap(BadNameErr)
	}
	if len(name) > NameMax {
		return wrap(encode.NameTooLongErr)
	}
	if _, ok, err := d.Lookup(name); err != nil {
		return wrap(err)
	} else if ok {
		return wrap(ExistsErr)
	}

	slot := d.Records()
	for i := int32(ParentEntryIndex + 1); i < d.Records(); i++ {
		entry, err := d.readEntry(i)
		if err != nil {
			return wrap(err)
		}
		if !entry.InUse {
			slot = i
			break
		}
	}

	if err := d.writeEntry(slot, &DirEntry{
		InUse:    true,
		IsSubdir: isSubdir,
		Name:     name,
		Sector:   sector,
	}); err != nil {
		return wrap(err)
	}
	return nil
}

// Remove unlinks name. Directories must be empty and must not be in
// use (busy reports whether a sector is some process's working
// directory). The target inode is only marked removed; its sectors
// are reclaimed when the last reference closes.
func (d *Dir) Remove(name string, busy func(SectorIdx) bool) error {
	wrap := func(err error) error {
		return fmt.Errorf(
			"removing `%s` from directory `%d`: %w",
			name,
			d.Inode().Number(),
			err,
		)
	}

	if name == "" || name == "." || name == ".." {
		return wrap(BadNameErr)
	}

	slot := int32(-1)
	var victim DirEntry
	for i := int32(ParentEntryIndex + 1); i < d.Records(); i++ {
		entry, err := d.readEntry(i)
		if err != nil {
			return wrap(err)
		}
		if entry.InUse && entry.Name == name {
			slot = i
			victim = entry
			break
		}
	}
	if slot < 0 {
		return wrap(NotFoundErr)
	}

	target, err := d.table.Open(victim.Sector)
	if err != nil {
		return wrap(err)
	}

	if target.IsDir() {
		if busy != nil && busy(target.Number()) {
			d.table.Close(target)
			return wrap(BusyErr)
		}

		sub, err := Open(d.dev, d.fm, d.table, d.table.Reopen(target))
		if err != nil {
			// Open rejected the reopened reference; drop it and ours.
			d.table.Close(target)
			d.table.Close(target)
			return wrap(err)
		}
		empty, err := sub.IsEmpty()
		sub.Close()
		if err != nil {
			d.table.Close(target)
			return wrap(err)
		}
		if !empty {
			d.table.Close(target)
			return wrap(NotEmptyErr)
		}
	}

	victim.InUse = false
	if err := d.writeEntry(slot, &victim); err != nil {
		d.table.Close(target)
		return wrap(err)
	}

	target.Remove()
	if err := d.table.Close(target); err != nil {
		return wrap(err)
	}
	return nil
}

// IsEmpty reports whether the directory holds no live records beyond
// the reserved parent pointer.
func (d *Dir) IsEmpty() (bool, error) {
	for i := int32(ParentEntryIndex + 1); i < d.Records(); i++ {
		entry, err := d.readEntry(i)
		if err != nil {
			return false, fmt.Errorf(
				"scanning directory `%d`: %w",
				d.Inode().Number(),
				err,
			)
		}
		if entry.InUse {
			return false, nil
		}
	}
	return true, nil
}

// ReadNext advances the iterator to the next live entry, skipping
// free records and the `.`/`..` entries, and returns its name; ok is
// false once the directory is exhausted.
func (d *Dir) ReadNext() (string, bool, error) {
	for d.iter < d.Records() {
		entry, err := d.readEntry(d.iter)
		d.iter++
		if err != nil {
			return "", false, fmt.Errorf(
				"iterating directory `%d`: %w",
				d.Inode().Number(),
				err,
			)
		}
		if !entry.InUse || entry.Name == "." || entry.Name == ".." {
			continue
		}
		return entry.Name, true, nil
	}
	return "", false, nil
}

func (d *Dir) readEntry(i int32) (DirEntry, error) {
	var buf [DirEntrySize]byte
	n, err := d.f.ReadAt(buf[:], Byte(i)*DirEntrySize)
	if err != nil {
		return DirEntry{}, err
	}
	if n != DirEntrySize {
		return DirEntry{}, fmt.Errorf(
			"record `%d`: short read (`%d` of `%d` bytes)",
			i,
			n,
			DirEntrySize,
		)
	}
	var entry DirEntry
	encode.DecodeDirEntry(&entry, &buf)
	return entry, nil
}

func (d *Dir) writeEntry(i int32, entry *DirEntry) error {
	var buf [DirEntrySize]byte
	if err := encode.EncodeDirEntry(entry, &buf); err != nil {
		return err
	}
	n, err := d.f.WriteAt(buf[:], Byte(i)*DirEntrySize)
	if err != nil {
		return err
	}
	if n < 0 {
		return NoSpaceErr
	}
	if n != DirEntrySize {
		return fmt.Errorf(
			"record `%d`: short write (`%d` of `%d` bytes)",
			i,
			n,
			DirEntrySize,
		)
	}
	return nil
}
