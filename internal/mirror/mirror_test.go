// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mirror

import (
	"reflect"
	"testing"
)

type withPointer struct {
	name string
}

type plainRecord struct {
	a int64
	b [4]uint32
}

func TestPointerFree(t *testing.T) {
	cases := []struct {
		v    any
		want bool
	}{
		{int64(0), true},
		{plainRecord{}, true},
		{[8]byte{}, true},
		{withPointer{}, false},
		{[]byte{}, false},
		{"", false},
		{map[int]int{}, false},
	}
	for _, c := range cases {
		got := PointerFree(reflect.TypeOf(c.v))
		if got != c.want {
			t.Errorf("PointerFree(%T): got %v, want %v", c.v, got, c.want)
		}
	}
}

func TestBufferContiguousAcrossWrap(t *testing.T) {
	const capacity = 5
	buf, err := New[int64](capacity, true) // portable: exercise the bounce buffer regardless of platform
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	win := buf.Acquire(0, 4)
	for i := range win {
		win[i] = int64(i + 1)
	}
	buf.Flush(0, 4, win)

	// Simulate releasing 2 and reading the remaining 2, then writing 2
	// more so the next read grant straddles the capacity boundary.
	win = buf.Acquire(4, 2)
	for i := range win {
		win[i] = int64(i + 5)
	}
	buf.Flush(4, 2, win)

	read := buf.Acquire(2, 4)
	want := []int64{3, 4, 5, 6}
	if !reflect.DeepEqual(read, want) {
		t.Fatalf("Acquire(2,4): got %v, want %v", read, want)
	}
}

func TestBufferPortableFlushRoundTrip(t *testing.T) {
	const capacity = 4
	buf, err := New[byte](capacity, true)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	win := buf.Acquire(3, 3) // straddles the boundary: positions 3, 0, 1
	copy(win, []byte{0xAA, 0xBB, 0xCC})
	buf.Flush(3, 3, win)

	again := buf.Acquire(3, 3)
	if again[0] != 0xAA || again[1] != 0xBB || again[2] != 0xCC {
		t.Fatalf("round trip mismatch: got %v", again)
	}
}
