package alloc

import (
	"testing"
)

func TestBitmap_FindRun(t *testing.T) {
	type testCase struct {
		name   string
		bits   int32
		set    []int32
		run    int32
		wanted int32
		ok     bool
	}

	testCases := []testCase{{
		name:   "empty",
		bits:   16,
		run:    1,
		wanted: 0,
		ok:     true,
	}, {
		name:   "skips leading set bits",
		bits:   16,
		set:    []int32{0, 1, 2},
		run:    1,
		wanted: 3,
		ok:     true,
	}, {
		name:   "run straddles a byte boundary",
		bits:   16,
		set:    []int32{0, 1, 2, 3, 4, 5},
		run:    4,
		wanted: 6,
		ok:     true,
	}, {
		name:   "fragmented space has no long run",
		bits:   8,
		set:    []int32{2, 5},
		run:    3,
		wanted: 0,
		ok:     false,
	}, {
		name: "full",
		bits: 4,
		set:  []int32{0, 1, 2, 3},
		run:  1,
		ok:   false,
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			bm := New(tc.bits)
			for _, i := range tc.set {
				bm.Set(i)
			}
			found, ok := bm.FindRun(tc.run)
			if ok != tc.ok {
				t.Fatalf("FindRun(%d): wanted ok `%v`; found `%v`", tc.run, tc.ok, ok)
			}
			if ok && found != tc.wanted {
				t.Fatalf(
					"FindRun(%d): wanted `%d`; found `%d`",
					tc.run,
					tc.wanted,
					found,
				)
			}
		})
	}
}

func TestBitmap_SetClearCount(t *testing.T) {
	bm := New(64)
	for _, i := range []int32{0, 7, 8, 63} {
		bm.Set(i)
	}
	if count := bm.Count(); count != 4 {
		t.Fatalf("Count(): wanted `4`; found `%d`", count)
	}
	if !bm.IsSet(63) {
		t.Fatal("IsSet(63): wanted `true`; found `false`")
	}
	bm.Clear(7)
	if bm.IsSet(7) {
		t.Fatal("IsSet(7) after Clear: wanted `false`; found `true`")
	}
	if count := bm.Count(); count != 3 {
		t.Fatalf("Count() after Clear: wanted `3`; found `%d`", count)
	}
}
