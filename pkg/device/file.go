package device

import (
	"fmt"
	"os"

	. "github.com/weberc2/diskfs/pkg/types"
)

// FileDevice backs a volume with a regular file on the host
// filesystem, one sector per SectorSize-aligned range.
type FileDevice struct {
	file    *os.File
	sectors SectorIdx
}

// OpenFileDevice opens (creating if necessary) an image file and
// truncates it to the requested geometry.
func OpenFileDevice(path string, sectors SectorIdx) (*FileDevice, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening image `%s`: %w", path, err)
	}
	if err := f.Truncate(int64(sectors) * int64(SectorSize)); err != nil {
		f.Close()
		return nil, fmt.Errorf(
			"sizing image `%s` to `%d` sectors: %w",
			path,
			sectors,
			err,
		)
	}
	return &FileDevice{file: f, sectors: sectors}, nil
}

func (d *FileDevice) ReadSector(idx SectorIdx, b []byte) error {
	if idx < 0 || idx >= d.sectors {
		return fmt.Errorf("reading sector `%d`: %w", idx, OutOfRangeErr)
	}
	if _, err := d.file.ReadAt(
		b[:SectorSize],
		int64(idx)*int64(SectorSize),
	); err != nil {
		return fmt.Errorf(
			"reading sector `%d` from `%s`: %w",
			idx,
			d.file.Name(),
			err,
		)
	}
	return nil
}

func (d *FileDevice) WriteSector(idx SectorIdx, b []byte) error {
	if idx < 0 || idx >= d.sectors {
		return fmt.Errorf("writing sector `%d`: %w", idx, OutOfRangeErr)
	}
	if _, err := d.file.WriteAt(
		b[:SectorSize],
		int64(idx)*int64(SectorSize),
	); err != nil {
		return fmt.Errorf(
			"writing sector `%d` to `%s`: %w",
			idx,
			d.file.Name(),
			err,
		)
	}
	return nil
}

func (d *FileDevice) SectorCount() SectorIdx { return d.sectors }

func (d *FileDevice) Close() error { return d.file.Close() }
