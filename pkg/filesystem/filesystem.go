// Package filesystem ties the layers together: it owns the mounted
// volume, the free-sector allocator, the open-inode table, the
// process table, and the single lock that serializes every top-level
// operation.
package filesystem

import (
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"github.com/weberc2/diskfs/pkg/alloc"
	"github.com/weberc2/diskfs/pkg/device"
	"github.com/weberc2/diskfs/pkg/directory"
	"github.com/weberc2/diskfs/pkg/encode"
	"github.com/weberc2/diskfs/pkg/inode"
	. "github.com/weberc2/diskfs/pkg/types"
)

const (
	BadPathErr ConstError = "bad path"
	ProcExists ConstError = "process already exists"

	FormatVersion = 1
)

type FileSys struct {
	mu sync.Mutex

	dev    device.Device
	fm     *alloc.FreeMap
	inodes *inode.Table
	root   SectorIdx

	volumeID uuid.UUID

	procs    map[int]*Process
	cwdCount map[SectorIdx]int
}

// RootSector is where the root directory inode lives: immediately
// after the boot sector and the free map's reserved run.
func RootSector(dev device.Device) SectorIdx {
	return 1 + alloc.MapSectors(dev.SectorCount())
}

// Mount initializes the filesystem over dev, optionally formatting it
// first, and opens the allocator.
func Mount(dev device.Device, format bool) (*FileSys, error) {
	fs := &FileSys{
		dev:      dev,
		fm:       alloc.NewFreeMap(dev),
		root:     RootSector(dev),
		procs:    make(map[int]*Process),
		cwdCount: make(map[SectorIdx]int),
	}
	fs.inodes = inode.NewTable(dev, fs.fm)

	if format {
		if err := fs.Format(); err != nil {
			return nil, fmt.Errorf("mounting: %w", err)
		}
	}

	if err := fs.fm.Open(); err != nil {
		return nil, fmt.Errorf("mounting: %w", err)
	}

	var sector [SectorSize]byte
	if err := dev.ReadSector(BootSector, sector[:]); err != nil {
		return nil, fmt.Errorf("mounting: reading boot record: %w", err)
	}
	var rec encode.BootRecord
	if err := encode.DecodeBootRecord(&rec, &sector); err != nil {
		return nil, fmt.Errorf("mounting: %w", err)
	}
	fs.volumeID = uuid.UUID(rec.VolumeID)

	return fs, nil
}

// Format lays down a fresh volume: allocator prefix, boot record with
// a new volume id, and an empty root directory whose `..` points at
// itself.
func (fs *FileSys) Format() error {
	log.Printf(
		"formatting `%d`-sector volume (root at sector `%d`)",
		fs.dev.SectorCount(),
		fs.root,
	)

	if err := fs.fm.Create(); err != nil {
		return fmt.Errorf("formatting: %w", err)
	}

	id := uuid.New()
	rec := encode.BootRecord{
		Version:     FormatVersion,
		SectorCount: fs.dev.SectorCount(),
	}
	copy(rec.VolumeID[:], id[:])
	var sector [SectorSize]byte
	encode.EncodeBootRecord(&rec, &sector)
	if err := fs.dev.WriteSector(BootSector, sector[:]); err != nil {
		return fmt.Errorf("formatting: writing boot record: %w", err)
	}

	rootSector, ok := fs.fm.Allocate(1)
	if !ok {
		return fmt.Errorf("formatting: %w", directory.NoSpaceErr)
	}
	if rootSector != fs.root {
		panic(fmt.Sprintf(
			"formatting: root landed at sector `%d` (wanted `%d`)",
			rootSector,
			fs.root,
		))
	}

	created, err := fs.inodes.Create(fs.root, DirEntrySize, true)
	if err != nil {
		return fmt.Errorf("formatting: %w", err)
	}
	if !created {
		return fmt.Errorf(
			"formatting: root directory: %w",
			directory.NoSpaceErr,
		)
	}

	ino, err := fs.inodes.Open(fs.root)
	if err != nil {
		return fmt.Errorf("formatting: %w", err)
	}
	root, err := directory.Open(fs.dev, fs.fm, fs.inodes, ino)
	if err != nil {
		fs.inodes.Close(ino)
		return fmt.Errorf("formatting: %w", err)
	}
	if err := root.Init(fs.root); err != nil {
		root.Close()
		return fmt.Errorf("formatting: %w", err)
	}
	if err := root.Close(); err != nil {
		return fmt.Errorf("formatting: %w", err)
	}

	if err := fs.fm.Close(); err != nil {
		return fmt.Errorf("formatting: %w", err)
	}
	log.Printf("formatted volume `%s`", id)
	return nil
}

// Shutdown persists the allocator. Metadata writes through on every
// mutation, so nothing else is dirty.
func (fs *FileSys) Shutdown() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if err := fs.fm.Close(); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

func (fs *FileSys) VolumeID() uuid.UUID {
	return fs.volumeID
}

// SectorsInUse reports the allocator census, reserved prefix
// included.
func (fs *FileSys) SectorsInUse() int32 {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.fm.InUse()
}
