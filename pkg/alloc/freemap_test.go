package alloc

import (
	"testing"

	"github.com/weberc2/diskfs/pkg/device"
	. "github.com/weberc2/diskfs/pkg/types"
)

func TestFreeMap_CreateReservesPrefix(t *testing.T) {
	dev := device.NewMemDevice(1024)
	fm := NewFreeMap(dev)
	if err := fm.Create(); err != nil {
		t.Fatalf("Create(): unexpected err: %v", err)
	}

	// boot sector + one bitmap sector for a 1024-sector device
	if wanted, found := int32(2), fm.InUse(); wanted != found {
		t.Fatalf("InUse(): wanted `%d`; found `%d`", wanted, found)
	}

	first, ok := fm.Allocate(1)
	if !ok {
		t.Fatal("Allocate(1): wanted `true`; found `false`")
	}
	if wanted := SectorIdx(2); first != wanted {
		t.Fatalf("Allocate(1): wanted sector `%d`; found `%d`", wanted, first)
	}
}

func TestFreeMap_RoundTrip(t *testing.T) {
	dev := device.NewMemDevice(1024)
	fm := NewFreeMap(dev)
	if err := fm.Create(); err != nil {
		t.Fatalf("Create(): unexpected err: %v", err)
	}

	var sectors []SectorIdx
	for i := 0; i < 5; i++ {
		s, ok := fm.Allocate(1)
		if !ok {
			t.Fatalf("Allocate(1) #%d: wanted `true`; found `false`", i)
		}
		sectors = append(sectors, s)
	}
	if err := fm.Close(); err != nil {
		t.Fatalf("Close(): unexpected err: %v", err)
	}

	// reopen from the persisted bitmap
	reopened := NewFreeMap(dev)
	if err := reopened.Open(); err != nil {
		t.Fatalf("Open(): unexpected err: %v", err)
	}
	if wanted, found := int32(7), reopened.InUse(); wanted != found {
		t.Fatalf("InUse(): wanted `%d`; found `%d`", wanted, found)
	}

	for _, s := range sectors {
		reopened.Release(s, 1)
	}
	if wanted, found := int32(2), reopened.InUse(); wanted != found {
		t.Fatalf(
			"InUse() after Release: wanted `%d`; found `%d`",
			wanted,
			found,
		)
	}
}
