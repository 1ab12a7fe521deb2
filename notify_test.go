// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rivulet

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNotifierCoalesces(t *testing.T) {
	n := newNotifier()

	if !n.trySend() {
		t.Fatalf("trySend on fresh notifier: got false")
	}
	if !n.trySend() {
		t.Fatalf("second trySend before recv: got false")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := n.recv(ctx); err != nil {
		t.Fatalf("recv after coalesced sends: %v", err)
	}

	ctx2, cancel2 := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel2()
	if err := n.recv(ctx2); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("recv with nothing pending: got %v, want DeadlineExceeded", err)
	}
}

func TestNotifierCloseWakesRecv(t *testing.T) {
	n := newNotifier()

	done := make(chan error, 1)
	go func() { done <- n.recv(context.Background()) }()

	time.Sleep(10 * time.Millisecond)
	n.close()

	select {
	case err := <-done:
		if !errors.Is(err, ErrClosed) {
			t.Fatalf("recv after close: got %v, want ErrClosed", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("recv never woke after close")
	}
}

func TestNotifierCloseIdempotent(t *testing.T) {
	n := newNotifier()
	n.close()
	n.close() // must not panic

	if n.trySend() {
		t.Fatalf("trySend on closed notifier: got true")
	}
}
