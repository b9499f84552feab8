package encode

import (
	"errors"
	"testing"

	. "github.com/weberc2/diskfs/pkg/types"
)

func TestInodeRoundTrip(t *testing.T) {
	inode := DiskInode{
		Length:       123456,
		Magic:        InodeMagic,
		Self:         42,
		IsDir:        true,
		DirectCount:  12,
		IndirCount:   1,
		IndirFill:    77,
		DindirCount:  1,
		DindirL1Fill: 3,
		DindirL2Fill: 120,
	}
	for i := range inode.Direct {
		inode.Direct[i] = SectorIdx(100 + i)
	}
	inode.Indirect[0] = 200
	inode.Dindirect[0] = 300

	var sector [SectorSize]byte
	EncodeInode(&inode, &sector)

	var decoded DiskInode
	if err := DecodeInode(&decoded, &sector); err != nil {
		t.Fatalf("DecodeInode(): unexpected err: %v", err)
	}
	if decoded != inode {
		t.Fatalf("round trip: wanted `%+v`; found `%+v`", inode, decoded)
	}
}

func TestDecodeInode_BadMagic(t *testing.T) {
	var sector [SectorSize]byte
	var decoded DiskInode
	err := DecodeInode(&decoded, &sector)
	if !errors.Is(err, BadMagicErr) {
		t.Fatalf("DecodeInode(): wanted BadMagicErr; found `%v`", err)
	}
}

func TestInodeLayoutFitsOneSector(t *testing.T) {
	if inodeDindirectEnd > SectorSize {
		t.Fatalf(
			"inode layout is `%d` bytes; must fit in one `%d`-byte sector",
			inodeDindirectEnd,
			SectorSize,
		)
	}
}

func TestDirEntryRoundTrip(t *testing.T) {
	entry := DirEntry{
		InUse:    true,
		IsSubdir: true,
		Name:     "subdir",
		Sector:   77,
	}

	var buf [DirEntrySize]byte
	if err := EncodeDirEntry(&entry, &buf); err != nil {
		t.Fatalf("EncodeDirEntry(): unexpected err: %v", err)
	}

	var decoded DirEntry
	DecodeDirEntry(&decoded, &buf)
	if decoded != entry {
		t.Fatalf("round trip: wanted `%+v`; found `%+v`", entry, decoded)
	}
}

func TestEncodeDirEntry_NameTooLong(t *testing.T) {
	entry := DirEntry{InUse: true, Name: "name-far-too-long-to-fit"}
	var buf [DirEntrySize]byte
	if err := EncodeDirEntry(&entry, &buf); !errors.Is(err, NameTooLongErr) {
		t.Fatalf("EncodeDirEntry(): wanted NameTooLongErr; found `%v`", err)
	}
}
