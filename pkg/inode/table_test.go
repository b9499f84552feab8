package inode

import (
	"testing"

	"github.com/weberc2/diskfs/pkg/alloc"
	"github.com/weberc2/diskfs/pkg/device"
	. "github.com/weberc2/diskfs/pkg/types"
)

func newTable(t *testing.T) (*alloc.FreeMap, *Table, SectorIdx) {
	t.Helper()
	dev := device.NewMemDevice(256)
	fm := alloc.NewFreeMap(dev)
	if err := fm.Create(); err != nil {
		t.Fatalf("creating free map: %v", err)
	}
	table := NewTable(dev, fm)

	sector, ok := fm.Allocate(1)
	if !ok {
		t.Fatal("allocating inode sector: wanted `true`; found `false`")
	}
	created, err := table.Create(sector, 3*SectorSize, false)
	if err != nil {
		t.Fatalf("Create(): unexpected err: %v", err)
	}
	if !created {
		t.Fatal("Create(): wanted `true`; found `false`")
	}
	return fm, table, sector
}

func TestTable_OpenDedup(t *testing.T) {
	_, table, sector := newTable(t)

	first, err := table.Open(sector)
	if err != nil {
		t.Fatalf("Open(): unexpected err: %v", err)
	}
	second, err := table.Open(sector)
	if err != nil {
		t.Fatalf("Open() again: unexpected err: %v", err)
	}

	if first != second {
		t.Fatal("two opens of one sector: wanted one entry; found two")
	}
	if count := first.OpenCount(); count != 2 {
		t.Fatalf("OpenCount(): wanted `2`; found `%d`", count)
	}

	table.Close(second)
	if count := table.OpenCountOf(sector); count != 1 {
		t.Fatalf("OpenCountOf(): wanted `1`; found `%d`", count)
	}
	table.Close(first)
	if count := table.OpenCountOf(sector); count != 0 {
		t.Fatalf("OpenCountOf(): wanted `0`; found `%d`", count)
	}
}

func TestTable_RemoveDefersFree(t *testing.T) {
	fm, table, sector := newTable(t)
	baseline := fm.InUse() // inode sector + 3 data sectors

	first, err := table.Open(sector)
	if err != nil {
		t.Fatalf("Open(): unexpected err: %v", err)
	}
	second := table.Reopen(first)

	first.Remove()
	if err := table.Close(first); err != nil {
		t.Fatalf("Close(): unexpected err: %v", err)
	}

	// still one reference: nothing freed yet
	if found := fm.InUse(); found != baseline {
		t.Fatalf(
			"InUse() before last close: wanted `%d`; found `%d`",
			baseline,
			found,
		)
	}

	if err := table.Close(second); err != nil {
		t.Fatalf("Close() last: unexpected err: %v", err)
	}
	if found := fm.InUse(); found != baseline-4 {
		t.Fatalf(
			"InUse() after last close: wanted `%d`; found `%d`",
			baseline-4,
			found,
		)
	}
}

func TestTable_ReloadAfterEviction(t *testing.T) {
	_, table, sector := newTable(t)

	first, err := table.Open(sector)
	if err != nil {
		t.Fatalf("Open(): unexpected err: %v", err)
	}
	if first.Length() != 3*SectorSize {
		t.Fatalf(
			"Length(): wanted `%d`; found `%d`",
			3*SectorSize,
			first.Length(),
		)
	}
	table.Close(first)

	// last close evicted the entry; a fresh open reloads from disk
	second, err := table.Open(sector)
	if err != nil {
		t.Fatalf("Open() after eviction: unexpected err: %v", err)
	}
	if second == first {
		t.Fatal("Open() after eviction: wanted a fresh entry")
	}
	if second.Length() != 3*SectorSize {
		t.Fatalf(
			"Length() after reload: wanted `%d`; found `%d`",
			3*SectorSize,
			second.Length(),
		)
	}
	table.Close(second)
}

func TestInode_DenyWrite(t *testing.T) {
	_, table, sector := newTable(t)

	ip, err := table.Open(sector)
	if err != nil {
		t.Fatalf("Open(): unexpected err: %v", err)
	}
	defer table.Close(ip)

	if ip.WriteDenied() {
		t.Fatal("WriteDenied(): wanted `false`; found `true`")
	}
	ip.DenyWrite()
	if !ip.WriteDenied() {
		t.Fatal("WriteDenied(): wanted `true`; found `false`")
	}
	ip.AllowWrite()
	if ip.WriteDenied() {
		t.Fatal("WriteDenied() after allow: wanted `false`; found `true`")
	}
}
