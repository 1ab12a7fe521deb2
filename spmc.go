// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rivulet

import (
	"context"
	"errors"
	"sync"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// SPMCBuffer creates a single-producer, multiple-consumer mirrored ring
// buffer: one SPMCSink and one cloneable SPMCSource, each observing the
// full stream from its clone-point forward (broadcast, not work
// distribution — every consumer sees every element).
//
// Panics if minSize is 0, or if the backing store cannot be allocated or
// mapped.
func SPMCBuffer[T any](minSize int, opts ...Option) (*SPMCSink[T], *SPMCSource[T]) {
	o := resolveOptions(opts)
	ring, err := newRingState[T](minSize, o.portable)
	if err != nil {
		panic(err)
	}

	heads := &spmcHeads{}
	senders := &spmcSenders{}

	sourceToSink := newNotifier()
	sinkToThisSource := newNotifier()
	senders.register(sinkToThisSource)

	myHead := new(atomix.Uint64)
	heads.register(myHead)

	sink := &SPMCSink[T]{ring: ring, heads: heads, senders: senders, rx: sourceToSink}
	source := &SPMCSource[T]{ring: ring, heads: heads, senders: senders, head: myHead, rx: sinkToThisSource, tx: sourceToSink}
	return sink, source
}

// spmcHeads is the shared, read-mostly registry of every live consumer's
// personal cursor (spec.md §4.6's "shared heads list").
type spmcHeads struct {
	mu    sync.RWMutex
	heads []*atomix.Uint64
}

func (h *spmcHeads) register(head *atomix.Uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.heads = append(h.heads, head)
}

func (h *spmcHeads) deregister(head *atomix.Uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, hd := range h.heads {
		if hd == head {
			h.heads = append(h.heads[:i], h.heads[i+1:]...)
			return
		}
	}
}

// slowest returns the live head with the smallest distance from current,
// i.e. the consumer that has progressed the least since current.
func (h *spmcHeads) slowest(current, capacity uint64) (uint64, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if len(h.heads) == 0 {
		return 0, false
	}
	best := h.heads[0].LoadAcquire()
	bestDist := dist(current, best, capacity)
	for _, hd := range h.heads[1:] {
		v := hd.LoadAcquire()
		if d := dist(current, v, capacity); d < bestDist {
			best, bestDist = v, d
		}
	}
	return best, true
}

// spmcSenders is the sink-owned registry of per-consumer wakeup channels
// (spec.md §4.6's "shared sender list"). The sink holds it strongly;
// sources reach it only to register/deregister their own notifier, the
// explicit-deregistration substitute for the original's weak reference
// (no stable public weak-pointer API exists in Go — see DESIGN.md).
type spmcSenders struct {
	mu      sync.Mutex
	senders []*notifier
}

func (s *spmcSenders) register(n *notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.senders = append(s.senders, n)
}

func (s *spmcSenders) deregister(n *notifier) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sn := range s.senders {
		if sn == n {
			s.senders = append(s.senders[:i], s.senders[i+1:]...)
			return
		}
	}
}

// notifyAll attempts to wake every registered consumer, evicting any
// whose notifier reports closed. Returns whether any sender remains.
func (s *spmcSenders) notifyAll() (remaining bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	live := s.senders[:0]
	for _, n := range s.senders {
		if n.trySend() {
			live = append(live, n)
		}
	}
	s.senders = live
	return len(s.senders) > 0
}

// SPMCSink is the single producer end of an SPMC buffer.
type SPMCSink[T any] struct {
	ring    *ringState[T]
	heads   *spmcHeads
	senders *spmcSenders
	rx      *notifier
	base    uint64
	grant   uint64
	window  []T
	closed  bool // true once the sender list has drained to empty
}

func (s *SPMCSink[T]) View() []T    { return s.window }
func (s *SPMCSink[T]) ViewMut() []T { return s.window }

func (s *SPMCSink[T]) TryGrant(count int) (bool, error) {
	if uint64(count) > s.ring.capacity-1 {
		return false, ErrOverflow
	}
	return s.tryAcquire(uint64(count)), nil
}

func (s *SPMCSink[T]) tryAcquire(count uint64) bool {
	// The global head tracks the slowest consumer (advanced on every
	// consumer release); reading it directly is sufficient here, the
	// heads list is only needed to compute writable space at release
	// time when head itself moves.
	head := s.ring.head.LoadAcquire()
	tail := s.ring.tail.LoadRelaxed()
	writable := s.ring.writable(head, tail)
	if writable < count {
		return false
	}
	s.base = tail
	s.grant = writable
	s.window = s.ring.buf.Acquire(s.base, s.grant)
	return true
}

// acquireShort grants whatever writable space currently exists, even
// zero, without regard to any requested count. Used once every consumer
// is known gone: no further space will ever be freed.
func (s *SPMCSink[T]) acquireShort() {
	head := s.ring.head.LoadAcquire()
	tail := s.ring.tail.LoadRelaxed()
	writable := s.ring.writable(head, tail)
	s.base = tail
	s.grant = writable
	s.window = s.ring.buf.Acquire(s.base, s.grant)
}

// Grant blocks until the window holds at least count writable slots, ctx
// is cancelled, or every consumer is gone — in which case it returns
// successfully with whatever writable space remains.
func (s *SPMCSink[T]) Grant(ctx context.Context, count int) error {
	if uint64(count) > s.ring.capacity-1 {
		return ErrOverflow
	}
	for {
		if s.tryAcquire(uint64(count)) {
			return nil
		}
		if s.closed {
			s.acquireShort()
			return nil
		}
		if err := s.rx.recv(ctx); err != nil {
			if errors.Is(err, ErrClosed) {
				s.closed = true
				continue
			}
			return err
		}
	}
}

// Release publishes the written prefix and wakes every live consumer,
// evicting any whose channel reports closed. If no consumers remain
// afterward, the sink enters the closed state: all subsequent grants
// return immediately with whatever space is available.
func (s *SPMCSink[T]) Release(n int) {
	if uint64(n) > s.grant {
		panic("rivulet: release exceeds current grant")
	}
	count := uint64(n)
	s.ring.buf.Flush(s.base, count, s.window[:count])
	s.base = (s.base + count) % s.ring.capacity
	s.grant -= count
	s.window = s.window[count:]
	s.ring.tail.StoreRelease(s.base)
	if !s.senders.notifyAll() {
		s.closed = true
	}
}

// SPMCSource is one consumer of an SPMC buffer, observing the full
// stream from its clone-point forward. It is safe to Clone but not for
// concurrent use by multiple goroutines on the same instance.
type SPMCSource[T any] struct {
	ring    *ringState[T]
	heads   *spmcHeads
	senders *spmcSenders
	head    *atomix.Uint64 // this consumer's personal cursor
	rx      *notifier      // sink -> this source
	tx      *notifier      // this source -> sink
	base    uint64
	grant   uint64
	window  []T
	closed  bool // true once the sink is known gone
}

func (s *SPMCSource[T]) View() []T { return s.window }

func (s *SPMCSource[T]) TryGrant(count int) (bool, error) {
	if uint64(count) > s.ring.capacity-1 {
		return false, ErrOverflow
	}
	return s.tryAcquire(uint64(count)), nil
}

func (s *SPMCSource[T]) tryAcquire(count uint64) bool {
	tail := s.ring.tail.LoadAcquire()
	myHead := s.head.LoadRelaxed()
	readable := dist(myHead, tail, s.ring.capacity)
	if readable < count {
		return false
	}
	s.base = myHead
	s.grant = readable
	s.window = s.ring.buf.Acquire(s.base, s.grant)
	return true
}

// acquireShort grants whatever readable data currently exists for this
// consumer, even zero, without regard to any requested count. Used once
// the sink is known gone: no further elements will ever arrive.
func (s *SPMCSource[T]) acquireShort() {
	tail := s.ring.tail.LoadAcquire()
	myHead := s.head.LoadRelaxed()
	readable := dist(myHead, tail, s.ring.capacity)
	s.base = myHead
	s.grant = readable
	s.window = s.ring.buf.Acquire(s.base, s.grant)
}

// Grant blocks until the window holds at least count readable elements,
// ctx is cancelled, or the sink is known gone — in which case it returns
// successfully with whatever this consumer has left, possibly nothing.
func (s *SPMCSource[T]) Grant(ctx context.Context, count int) error {
	if uint64(count) > s.ring.capacity-1 {
		return ErrOverflow
	}
	for {
		if s.tryAcquire(uint64(count)) {
			return nil
		}
		if s.closed {
			s.acquireShort()
			return nil
		}
		if err := s.rx.recv(ctx); err != nil {
			if errors.Is(err, ErrClosed) {
				s.closed = true
				continue
			}
			return err
		}
	}
}

// Release advances this consumer's personal cursor, then attempts to
// advance the shared global head to the slowest live consumer's
// position — the bookkeeping that actually frees space for the sink —
// retrying under a spin backoff if the computed minimum goes stale
// against a concurrent CAS (spec.md §9's open question on this loop).
func (s *SPMCSource[T]) Release(n int) {
	if uint64(n) > s.grant {
		panic("rivulet: release exceeds current grant")
	}
	count := uint64(n)
	s.base = (s.base + count) % s.ring.capacity
	s.grant -= count
	s.window = s.window[count:]
	s.head.StoreRelease(s.base)
	advanceGlobalHead(s.ring, s.heads)
	s.tx.trySend()
}

// advanceGlobalHead runs the compare-and-swap loop from spec.md §4.6: the
// global head advances to the slowest live consumer's position, or, if
// no consumer remains, all the way to tail (nothing constrains it any
// longer). A spin backoff absorbs the case where the computed minimum
// goes stale against a concurrent CAS before it lands (spec.md §9's open
// question on this loop).
func advanceGlobalHead[T any](ring *ringState[T], heads *spmcHeads) {
	sw := spin.Wait{}
	for {
		current := ring.head.LoadAcquire()
		earliest, ok := heads.slowest(current, ring.capacity)
		if !ok {
			earliest = ring.tail.LoadAcquire()
		}
		if earliest == current {
			return
		}
		if ring.head.CompareAndSwapAcqRel(current, earliest) {
			return
		}
		sw.Once()
	}
}

// Clone yields a new source at this source's current position: it will
// observe data still in the ring from this source's position forward,
// never the historical data this source has already consumed.
func (s *SPMCSource[T]) Clone() *SPMCSource[T] {
	head := new(atomix.Uint64)
	head.StoreRelease(s.head.LoadAcquire())
	s.heads.register(head)

	sinkToClone := newNotifier()
	s.senders.register(sinkToClone)

	return &SPMCSource[T]{
		ring:    s.ring,
		heads:   s.heads,
		senders: s.senders,
		head:    head,
		rx:      sinkToClone,
		tx:      s.tx,
	}
}

// Close removes this consumer from the shared heads and sender lists.
// Its departure may itself unblock a pending sink grant, since the
// global head can now leap forward to whichever consumer remains
// slowest.
func (s *SPMCSource[T]) Close() {
	s.heads.deregister(s.head)
	s.senders.deregister(s.rx)
	s.rx.close()
	advanceGlobalHead(s.ring, s.heads)
	s.tx.trySend()
}

// Close tears down the sink, waking every registered consumer with
// ErrClosed on their notifier.
func (s *SPMCSink[T]) Close() {
	s.senders.mu.Lock()
	senders := s.senders.senders
	s.senders.senders = nil
	s.senders.mu.Unlock()
	for _, n := range senders {
		n.close()
	}
}
