// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rivulet_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"code.hybscloud.com/rivulet"
)

// TestSPSCSimpleTransfer covers spec scenario 1: sink grants 3, writes
// [1,2,3], releases 3; source grants 3, reads [1,2,3], releases 3.
func TestSPSCSimpleTransfer(t *testing.T) {
	ctx := context.Background()
	sink, source := rivulet.SPSCBuffer[int](4, rivulet.WithPortable())

	if err := sink.Grant(ctx, 3); err != nil {
		t.Fatalf("sink.Grant: %v", err)
	}
	copy(sink.ViewMut(), []int{1, 2, 3})
	sink.Release(3)

	if err := source.Grant(ctx, 3); err != nil {
		t.Fatalf("source.Grant: %v", err)
	}
	got := append([]int(nil), source.View()...)
	want := []int{1, 2, 3}
	if !equalInts(got, want) {
		t.Fatalf("View: got %v, want %v", got, want)
	}
	source.Release(3)
}

// TestSPSCFillAndWrap covers spec scenario 2: the mirrored-mapping
// contiguity guarantee across the ring's wraparound point.
func TestSPSCFillAndWrap(t *testing.T) {
	ctx := context.Background()
	sink, source := rivulet.SPSCBuffer[int](4, rivulet.WithPortable())

	if err := sink.Grant(ctx, 4); err != nil {
		t.Fatalf("sink.Grant(4): %v", err)
	}
	copy(sink.ViewMut(), []int{1, 2, 3, 4})
	sink.Release(4)

	if err := source.Grant(ctx, 2); err != nil {
		t.Fatalf("source.Grant(2): %v", err)
	}
	source.Release(2)

	if err := sink.Grant(ctx, 2); err != nil {
		t.Fatalf("sink.Grant(2): %v", err)
	}
	copy(sink.ViewMut(), []int{5, 6})
	sink.Release(2)

	if err := source.Grant(ctx, 4); err != nil {
		t.Fatalf("source.Grant(4): %v", err)
	}
	got := append([]int(nil), source.View()...)
	want := []int{3, 4, 5, 6}
	if !equalInts(got, want) {
		t.Fatalf("contiguous view across wrap: got %v, want %v", got, want)
	}
}

// TestSPSCEndOfStream covers spec scenario 3: the sink closes after
// releasing [1,2]; the source drains exactly those elements and then
// observes a short, then empty, grant.
func TestSPSCEndOfStream(t *testing.T) {
	ctx := context.Background()
	sink, source := rivulet.SPSCBuffer[int](4, rivulet.WithPortable())

	if err := sink.Grant(ctx, 2); err != nil {
		t.Fatalf("sink.Grant: %v", err)
	}
	copy(sink.ViewMut(), []int{1, 2})
	sink.Release(2)
	sink.Close()

	if err := source.Grant(ctx, 4); err != nil {
		t.Fatalf("source.Grant(4) after close: %v", err)
	}
	if got, want := len(source.View()), 2; got != want {
		t.Fatalf("View length after close: got %d, want %d", got, want)
	}
	source.Release(2)

	if err := source.Grant(ctx, 1); err != nil {
		t.Fatalf("source.Grant(1) fully drained: %v", err)
	}
	if got := len(source.View()); got != 0 {
		t.Fatalf("View after drain: got len %d, want 0", got)
	}
}

// TestSPSCOverflow covers spec scenario 4: a grant exceeding C-1 on a
// min_size=4 (C=5) buffer is reported as Overflow.
func TestSPSCOverflow(t *testing.T) {
	ctx := context.Background()
	_, source := rivulet.SPSCBuffer[int](4, rivulet.WithPortable())

	if err := source.Grant(ctx, 5); !errors.Is(err, rivulet.ErrOverflow) {
		t.Fatalf("Grant(5) on C=5 buffer: got %v, want ErrOverflow", err)
	}
	if _, err := source.TryGrant(5); !errors.Is(err, rivulet.ErrOverflow) {
		t.Fatalf("TryGrant(5) on C=5 buffer: got %v, want ErrOverflow", err)
	}
}

// TestSPSCSinkBlocksAtCapacity covers the boundary behavior: producing
// C-1 elements then granting one more slot suspends until the source
// releases.
func TestSPSCSinkBlocksAtCapacity(t *testing.T) {
	ctx := context.Background()
	sink, source := rivulet.SPSCBuffer[int](4, rivulet.WithPortable())

	if err := sink.Grant(ctx, 4); err != nil {
		t.Fatalf("sink.Grant(4): %v", err)
	}
	sink.Release(4)

	ok, err := sink.TryGrant(1)
	if err != nil {
		t.Fatalf("TryGrant(1) at capacity: %v", err)
	}
	if ok {
		t.Fatalf("TryGrant(1) at capacity should not succeed")
	}

	done := make(chan error, 1)
	go func() {
		done <- sink.Grant(ctx, 1)
	}()

	select {
	case <-done:
		t.Fatalf("sink.Grant(1) returned before source released any space")
	case <-time.After(20 * time.Millisecond):
	}

	if err := source.Grant(ctx, 1); err != nil {
		t.Fatalf("source.Grant(1): %v", err)
	}
	source.Release(1)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("sink.Grant(1) after release: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("sink.Grant(1) never unblocked after source released space")
	}
}

// TestSPSCReleaseExceedsGrantPanics covers the programmer-error
// contract: releasing more than the current grant panics. Grant(2) on an
// empty C=5 buffer over-grants all 4 writable slots, so the release has
// to go one past the granted window.
func TestSPSCReleaseExceedsGrantPanics(t *testing.T) {
	ctx := context.Background()
	sink, _ := rivulet.SPSCBuffer[int](4, rivulet.WithPortable())

	if err := sink.Grant(ctx, 2); err != nil {
		t.Fatalf("sink.Grant: %v", err)
	}

	defer func() {
		if recover() == nil {
			t.Fatalf("Release(len(View())+1) after Grant(2) did not panic")
		}
	}()
	sink.Release(len(sink.View()) + 1)
}

func equalInts(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
