// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rivulet

import (
	"context"
	"sync"
)

// notifier is a bounded, capacity-1 signalling channel: many TrySend
// calls between a single Recv coalesce into at most one wakeup, the
// property spec.md §4.4 requires. It is the Go translation of the
// tokio::sync::mpsc::channel(1) pairs in the original rivulet buffers,
// and its close-then-broadcast shutdown is the same idiom
// fanoutbuffer.Buffer uses for its own notify channel.
type notifier struct {
	mu     sync.Mutex
	ch     chan struct{}
	closed bool
}

func newNotifier() *notifier {
	return &notifier{ch: make(chan struct{}, 1)}
}

// trySend deposits a unit of work, coalescing with any pending signal.
// It reports false if the receiving end has already been closed, in
// which case the signal was dropped.
func (n *notifier) trySend() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return false
	}
	select {
	case n.ch <- struct{}{}:
	default:
	}
	return true
}

// close tears down the channel, waking every blocked recv with
// ErrClosed. Idempotent.
func (n *notifier) close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		return
	}
	n.closed = true
	close(n.ch)
}

// recv suspends the calling goroutine until a signal is deposited, the
// channel is closed (ErrClosed), or ctx is cancelled.
func (n *notifier) recv(ctx context.Context) error {
	select {
	case _, ok := <-n.ch:
		if !ok {
			return ErrClosed
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
