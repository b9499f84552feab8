// Package file provides byte-addressed handles over inodes. Many
// handles may share one inode; each carries its own cursor and its own
// deny-write grip.
package file

import (
	"fmt"

	"github.com/weberc2/diskfs/pkg/alloc"
	"github.com/weberc2/diskfs/pkg/device"
	"github.com/weberc2/diskfs/pkg/extent"
	"github.com/weberc2/diskfs/pkg/inode"
	"github.com/weberc2/diskfs/pkg/math"
	. "github.com/weberc2/diskfs/pkg/types"
)

type File struct {
	dev    device.Device
	fm     *alloc.FreeMap
	table  *inode.Table
	ino    *inode.Inode
	pos    Byte
	denied bool
}

// New wraps an open inode reference in a handle. The handle owns the
// reference and releases it on Close.
func New(
	dev device.Device,
	fm *alloc.FreeMap,
	table *inode.Table,
	ino *inode.Inode,
) *File {
	return &File{dev: dev, fm: fm, table: table, ino: ino}
}

func (f *File) Inode() *inode.Inode { return f.ino }

func (f *File) Size() Byte { return f.ino.Length() }

func (f *File) Tell() Byte { return f.pos }

func (f *File) Seek(pos Byte) { f.pos = pos }

// Read copies from the cursor and advances it.
func (f *File) Read(p []byte) (Byte, error) {
	n, err := f.ReadAt(p, f.pos)
	if n > 0 {
		f.pos += n
	}
	return n, err
}

// Write copies at the cursor and advances it.
func (f *File) Write(p []byte) (Byte, error) {
	n, err := f.WriteAt(p, f.pos)
	if n > 0 {
		f.pos += n
	}
	return n, err
}

// ReadAt copies up to len(p) bytes starting at offset, returning the
// number copied; reads past end-of-file come back short. Partial
// sectors are staged through a bounce buffer owned by the call.
func (f *File) ReadAt(p []byte, offset Byte) (Byte, error) {
	var bytesRead Byte
	size := Byte(len(p))

	for size > 0 {
		sector, err := extent.Locate(f.dev, &f.ino.Disk, offset)
		if err != nil {
			return bytesRead, fmt.Errorf(
				"reading `%d` bytes at offset `%d`: %w",
				len(p),
				offset,
				err,
			)
		}

		sectorOfs := offset % SectorSize
		inodeLeft := f.ino.Length() - offset
		sectorLeft := SectorSize - sectorOfs
		chunk := math.Min(size, math.Min(inodeLeft, sectorLeft))
		if chunk <= 0 || sector == SectorNone {
			break
		}

		if sectorOfs == 0 && chunk == SectorSize {
			err = f.dev.ReadSector(sector, p[bytesRead:bytesRead+SectorSize])
		} else {
			var bounce [SectorSize]byte
			if err = f.dev.ReadSector(sector, bounce[:]); err == nil {
				copy(
					p[bytesRead:bytesRead+chunk],
					bounce[sectorOfs:sectorOfs+chunk],
				)
			}
		}
		if err != nil {
			return bytesRead, fmt.Errorf(
				"reading `%d` bytes at offset `%d`: %w",
				len(p),
				offset,
				err,
			)
		}

		size -= chunk
		offset += chunk
		bytesRead += chunk
	}

	return bytesRead, nil
}

// WriteAt copies len(p) bytes starting at offset, extending the file
// first when the range reaches past end-of-file. Returns 0 when the
// inode currently denies writes, and -1 when the extension falls
// short (the file keeps whatever length the extension reached).
func (f *File) WriteAt(p []byte, offset Byte) (Byte, error) {
	if f.ino.WriteDenied() {
		return 0, nil
	}

	size := Byte(len(p))
	if size == 0 {
		return 0, nil
	}

	if offset+size > f.ino.Length() {
		reached, err := extent.Extend(
			f.dev,
			f.fm,
			&f.ino.Disk,
			offset+size,
		)
		if err != nil {
			return 0, fmt.Errorf(
				"writing `%d` bytes at offset `%d`: %w",
				len(p),
				offset,
				err,
			)
		}
		if reached != offset+size {
			return -1, nil
		}
	}

	var bytesWritten Byte
	for size > 0 {
		sector, err := extent.Locate(f.dev, &f.ino.Disk, offset)
		if err != nil {
			return bytesWritten, fmt.Errorf(
				"writing `%d` bytes at offset `%d`: %w",
				len(p),
				offset,
				err,
			)
		}

		sectorOfs := offset % SectorSize
		inodeLeft := f.ino.Length() - offset
		sectorLeft := SectorSize - sectorOfs
		chunk := math.Min(size, math.Min(inodeLeft, sectorLeft))
		if chunk <= 0 || sector == SectorNone {
			break
		}

		if sectorOfs == 0 && chunk == SectorSize {
			err = f.dev.WriteSector(
				sector,
				p[bytesWritten:bytesWritten+SectorSize],
			)
		} else {
			// If any byte of this sector is live outside the chunk,
			// read it first; otherwise the bounce starts zeroed.
			var bounce [SectorSize]byte
			if sectorOfs > 0 || chunk < sectorLeft {
				err = f.dev.ReadSector(sector, bounce[:])
			}
			if err == nil {
				copy(
					bounce[sectorOfs:sectorOfs+chunk],
					p[bytesWritten:bytesWritten+chunk],
				)
				err = f.dev.WriteSector(sector, bounce[:])
			}
		}
		if err != nil {
			return bytesWritten, fmt.Errorf(
				"writing `%d` bytes at offset `%d`: %w",
				len(p),
				offset,
				err,
			)
		}

		size -= chunk
		offset += chunk
		bytesWritten += chunk
	}

	return bytesWritten, nil
}

// DenyWrite blocks writes to the underlying inode. A handle may hold
// at most one grip; repeated calls are no-ops.
func (f *File) DenyWrite() {
	if !f.denied {
		f.denied = true
		f.ino.DenyWrite()
	}
}

// AllowWrite releases this handle's grip, if it holds one.
func (f *File) AllowWrite() {
	if f.denied {
		f.denied = false
		f.ino.AllowWrite()
	}
}

// Close releases the handle's grip and its inode reference.
func (f *File) Close() error {
	f.AllowWrite()
	return f.table.Close(f.ino)
}
