package file

import (
	"bytes"
	"testing"

	"github.com/weberc2/diskfs/pkg/alloc"
	"github.com/weberc2/diskfs/pkg/device"
	"github.com/weberc2/diskfs/pkg/inode"
	. "github.com/weberc2/diskfs/pkg/types"
)

func newFile(t *testing.T, sectors SectorIdx) (*File, *inode.Table) {
	t.Helper()
	dev := device.NewMemDevice(sectors)
	fm := alloc.NewFreeMap(dev)
	if err := fm.Create(); err != nil {
		t.Fatalf("creating free map: %v", err)
	}
	table := inode.NewTable(dev, fm)

	sector, ok := fm.Allocate(1)
	if !ok {
		t.Fatal("allocating inode sector: wanted `true`; found `false`")
	}
	created, err := table.Create(sector, 0, false)
	if err != nil || !created {
		t.Fatalf("Create(): wanted success; found `%v`/`%v`", created, err)
	}
	ip, err := table.Open(sector)
	if err != nil {
		t.Fatalf("Open(): unexpected err: %v", err)
	}
	return New(dev, fm, table, ip), table
}

func pattern(n int) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = byte(i % 251)
	}
	return p
}

func TestWriteReadRoundTrip(t *testing.T) {
	type testCase struct {
		name   string
		offset Byte
		size   int
	}

	// offsets and sizes chosen to hit whole-sector transfers, bounced
	// heads and tails, and single-sector interior ranges
	testCases := []testCase{
		{name: "aligned whole sector", offset: 0, size: 512},
		{name: "interior of one sector", offset: 100, size: 100},
		{name: "unaligned spanning two sectors", offset: 500, size: 100},
		{name: "aligned long", offset: 0, size: 5000},
		{name: "unaligned long", offset: 1000, size: 10_000},
		{name: "deep offset", offset: 100_000, size: 4096},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f, _ := newFile(t, 1024)
			defer f.Close()

			input := pattern(tc.size)
			n, err := f.WriteAt(input, tc.offset)
			if err != nil {
				t.Fatalf("WriteAt(): unexpected err: %v", err)
			}
			if n != Byte(tc.size) {
				t.Fatalf("WriteAt(): wanted `%d`; found `%d`", tc.size, n)
			}

			output := make([]byte, tc.size)
			n, err = f.ReadAt(output, tc.offset)
			if err != nil {
				t.Fatalf("ReadAt(): unexpected err: %v", err)
			}
			if n != Byte(tc.size) {
				t.Fatalf("ReadAt(): wanted `%d`; found `%d`", tc.size, n)
			}
			if !bytes.Equal(input, output) {
				t.Fatal("round trip: output differs from input")
			}

			if wanted := tc.offset + Byte(tc.size); f.Size() != wanted {
				t.Fatalf("Size(): wanted `%d`; found `%d`", wanted, f.Size())
			}
		})
	}
}

func TestSparseExtensionReadsZero(t *testing.T) {
	f, _ := newFile(t, 1024)
	defer f.Close()

	if n, err := f.WriteAt(pattern(100), 0); err != nil || n != 100 {
		t.Fatalf("WriteAt(): wanted `100`; found `%d`/`%v`", n, err)
	}

	// write far past end-of-file; the gap must read as zeros
	const gapEnd = Byte(10_000)
	if n, err := f.WriteAt([]byte{0xff}, gapEnd); err != nil || n != 1 {
		t.Fatalf("WriteAt(gap): wanted `1`; found `%d`/`%v`", n, err)
	}
	if wanted := gapEnd + 1; f.Size() != wanted {
		t.Fatalf("Size(): wanted `%d`; found `%d`", wanted, f.Size())
	}

	gap := make([]byte, gapEnd-100)
	if n, err := f.ReadAt(gap, 100); err != nil || n != Byte(len(gap)) {
		t.Fatalf("ReadAt(gap): wanted `%d`; found `%d`/`%v`", len(gap), n, err)
	}
	for i, b := range gap {
		if b != 0 {
			t.Fatalf("gap byte `%d`: wanted `0`; found `%d`", i, b)
		}
	}
}

func TestReadPastEndIsShort(t *testing.T) {
	f, _ := newFile(t, 1024)
	defer f.Close()

	if n, err := f.WriteAt(pattern(700), 0); err != nil || n != 700 {
		t.Fatalf("WriteAt(): wanted `700`; found `%d`/`%v`", n, err)
	}

	buf := make([]byte, 1000)
	n, err := f.ReadAt(buf, 500)
	if err != nil {
		t.Fatalf("ReadAt(): unexpected err: %v", err)
	}
	if n != 200 {
		t.Fatalf("ReadAt() past end: wanted `200`; found `%d`", n)
	}

	n, err = f.ReadAt(buf, 700)
	if err != nil {
		t.Fatalf("ReadAt() at end: unexpected err: %v", err)
	}
	if n != 0 {
		t.Fatalf("ReadAt() at end: wanted `0`; found `%d`", n)
	}
}

func TestCursorReadWrite(t *testing.T) {
	f, _ := newFile(t, 1024)
	defer f.Close()

	input := pattern(1000)
	if n, err := f.Write(input[:600]); err != nil || n != 600 {
		t.Fatalf("Write(): wanted `600`; found `%d`/`%v`", n, err)
	}
	if f.Tell() != 600 {
		t.Fatalf("Tell(): wanted `600`; found `%d`", f.Tell())
	}
	if n, err := f.Write(input[600:]); err != nil || n != 400 {
		t.Fatalf("Write(): wanted `400`; found `%d`/`%v`", n, err)
	}

	f.Seek(0)
	output := make([]byte, 1000)
	if n, err := f.Read(output); err != nil || n != 1000 {
		t.Fatalf("Read(): wanted `1000`; found `%d`/`%v`", n, err)
	}
	if !bytes.Equal(input, output) {
		t.Fatal("cursor round trip: output differs from input")
	}
}

func TestWriteDenied(t *testing.T) {
	f, table := newFile(t, 1024)
	defer f.Close()

	// a second handle onto the same inode
	g := New(f.dev, f.fm, table, table.Reopen(f.Inode()))
	defer g.Close()

	f.DenyWrite()
	f.DenyWrite() // at most one grip per handle

	if n, err := g.WriteAt(pattern(10), 0); err != nil || n != 0 {
		t.Fatalf("WriteAt() while denied: wanted `0`; found `%d`/`%v`", n, err)
	}
	if n, err := f.WriteAt(pattern(10), 0); err != nil || n != 0 {
		t.Fatalf(
			"WriteAt() by denier: wanted `0`; found `%d`/`%v`",
			n,
			err,
		)
	}

	f.AllowWrite()
	if n, err := g.WriteAt(pattern(10), 0); err != nil || n != 10 {
		t.Fatalf(
			"WriteAt() after allow: wanted `10`; found `%d`/`%v`",
			n,
			err,
		)
	}
}

func TestWriteBeyondCapacityReturnsSentinel(t *testing.T) {
	// tiny device: extension cannot reach the requested length
	f, _ := newFile(t, 16)
	defer f.Close()

	n, err := f.WriteAt(pattern(64), 20*SectorSize)
	if err != nil {
		t.Fatalf("WriteAt(): unexpected err: %v", err)
	}
	if n != -1 {
		t.Fatalf("WriteAt() beyond capacity: wanted `-1`; found `%d`", n)
	}
}
