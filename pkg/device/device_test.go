package device

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	. "github.com/weberc2/diskfs/pkg/types"
)

func TestMemDevice(t *testing.T) {
	dev := NewMemDevice(8)

	var in, out [SectorSize]byte
	for i := range in {
		in[i] = byte(i)
	}
	if err := dev.WriteSector(3, in[:]); err != nil {
		t.Fatalf("WriteSector(): unexpected err: %v", err)
	}
	if err := dev.ReadSector(3, out[:]); err != nil {
		t.Fatalf("ReadSector(): unexpected err: %v", err)
	}
	if !bytes.Equal(in[:], out[:]) {
		t.Fatal("round trip: output differs from input")
	}

	if err := dev.ReadSector(8, out[:]); !errors.Is(err, OutOfRangeErr) {
		t.Fatalf("ReadSector(8): wanted OutOfRangeErr; found `%v`", err)
	}
	if err := dev.WriteSector(-1, in[:]); !errors.Is(err, OutOfRangeErr) {
		t.Fatalf("WriteSector(-1): wanted OutOfRangeErr; found `%v`", err)
	}
}

func TestFileDevicePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.img")

	dev, err := OpenFileDevice(path, 16)
	if err != nil {
		t.Fatalf("OpenFileDevice(): unexpected err: %v", err)
	}

	var in, out [SectorSize]byte
	copy(in[:], "persistent sector payload")
	if err := dev.WriteSector(5, in[:]); err != nil {
		t.Fatalf("WriteSector(): unexpected err: %v", err)
	}
	if err := dev.Close(); err != nil {
		t.Fatalf("Close(): unexpected err: %v", err)
	}

	reopened, err := OpenFileDevice(path, 16)
	if err != nil {
		t.Fatalf("OpenFileDevice() again: unexpected err: %v", err)
	}
	defer reopened.Close()
	if err := reopened.ReadSector(5, out[:]); err != nil {
		t.Fatalf("ReadSector(): unexpected err: %v", err)
	}
	if !bytes.Equal(in[:], out[:]) {
		t.Fatal("round trip across reopen: output differs from input")
	}
}
