// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rivulet

import (
	"context"
	"errors"
)

// SPSCBuffer creates a single-producer, single-consumer mirrored ring
// buffer. The buffer holds at least minSize elements, though capacity
// may be larger (one slot is always reserved as the empty/full
// discriminator, per spec.md §3).
//
// Panics if minSize is 0, or if the backing store cannot be allocated or
// mapped — the only fatal failure mode of the core (spec.md §4.2, §7).
func SPSCBuffer[T any](minSize int, opts ...Option) (*Sink[T], *Source[T]) {
	o := resolveOptions(opts)
	ring, err := newRingState[T](minSize, o.portable)
	if err != nil {
		panic(err)
	}

	sinkToSource, sourceToSink := newNotifier(), newNotifier()

	sink := &Sink[T]{ring: ring, rx: sourceToSink, tx: sinkToSource}
	source := &Source[T]{ring: ring, rx: sinkToSource, tx: sourceToSink}
	return sink, source
}

// Sink is the single producer end of an SPSC buffer.
type Sink[T any] struct {
	ring   *ringState[T]
	rx     *notifier // wakes this sink when the source releases
	tx     *notifier // wakes the source when this sink releases
	base   uint64
	grant  uint64
	window []T
	closed bool // true once the source is known gone
}

// View returns the currently granted writable window.
func (s *Sink[T]) View() []T { return s.window }

// ViewMut returns the currently granted writable window, mutable.
func (s *Sink[T]) ViewMut() []T { return s.window }

// TryGrant is the non-blocking form of Grant.
func (s *Sink[T]) TryGrant(count int) (bool, error) {
	if uint64(count) > s.ring.capacity-1 {
		return false, ErrOverflow
	}
	return s.tryAcquire(uint64(count)), nil
}

// tryAcquire attempts to grow the sink's window to hold at least count
// writable slots, returning whether it succeeded.
func (s *Sink[T]) tryAcquire(count uint64) bool {
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
// zero, without regard to any requested count. Used once the source is
// known gone: no further space will ever be freed, so there is nothing
// left to wait for.
func (s *Sink[T]) acquireShort() {
	head := s.ring.head.LoadAcquire()
	tail := s.ring.tail.LoadRelaxed()
	writable := s.ring.writable(head, tail)
	s.base = tail
	s.grant = writable
	s.window = s.ring.buf.Acquire(s.base, s.grant)
}

// Grant blocks until the window holds at least count writable slots, ctx
// is cancelled, or the source is known gone — in which case it returns
// successfully with whatever writable space remains, which may be none.
func (s *Sink[T]) Grant(ctx context.Context, count int) error {
	if uint64(count) > s.ring.capacity-1 {
		return ErrOverflow
	}
	for {
		if s.tryAcquire(uint64(count)) {
			return nil
		}
		if s.closed {
			s.acquireShort() // no one left to free space; caller sees a short/empty grant
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

// Release advances the sink's base by n, committing the written prefix
// and notifying the source. Panics if n exceeds the current grant.
func (s *Sink[T]) Release(n int) {
	if uint64(n) > s.grant {
		panic("rivulet: release exceeds current grant")
	}
	count := uint64(n)
	s.ring.buf.Flush(s.base, count, s.window[:count])
	s.base = (s.base + count) % s.ring.capacity
	s.grant -= count
	s.window = s.window[count:]
	s.ring.tail.StoreRelease(s.base)
	s.tx.trySend()
}

// Source is the single consumer end of an SPSC buffer.
type Source[T any] struct {
	ring   *ringState[T]
	rx     *notifier // wakes this source when the sink releases
	tx     *notifier // wakes the sink when this source releases
	base   uint64
	grant  uint64
	window []T
	closed bool // true once the sink is known gone
}

// View returns the currently granted readable window.
func (s *Source[T]) View() []T { return s.window }

// TryGrant is the non-blocking form of Grant.
func (s *Source[T]) TryGrant(count int) (bool, error) {
	if uint64(count) > s.ring.capacity-1 {
		return false, ErrOverflow
	}
	return s.tryAcquire(uint64(count)), nil
}

func (s *Source[T]) tryAcquire(count uint64) bool {
	tail := s.ring.tail.LoadAcquire()
	head := s.ring.head.LoadRelaxed()
	readable := s.ring.readable(head, tail)
	if readable < count {
		return false
	}
	s.base = head
	s.grant = readable
	s.window = s.ring.buf.Acquire(s.base, s.grant)
	return true
}

// acquireShort grants whatever readable data currently exists, even
// zero, without regard to any requested count. Used once the sink is
// known gone: no further elements will ever arrive, so the remaining
// readable region — possibly empty — is the end of the stream.
func (s *Source[T]) acquireShort() {
	tail := s.ring.tail.LoadAcquire()
	head := s.ring.head.LoadRelaxed()
	readable := s.ring.readable(head, tail)
	s.base = head
	s.grant = readable
	s.window = s.ring.buf.Acquire(s.base, s.grant)
}

// Grant blocks until the window holds at least count readable elements,
// ctx is cancelled, or the sink is known gone — in which case it returns
// successfully with whatever is left, which may be shorter than count or
// empty (end of stream).
func (s *Source[T]) Grant(ctx context.Context, count int) error {
	if uint64(count) > s.ring.capacity-1 {
		return ErrOverflow
	}
	for {
		if s.tryAcquire(uint64(count)) {
			return nil
		}
		if s.closed {
			s.acquireShort() // draining complete or nothing left: short/empty grant signals end of stream
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

// Release advances the source's base by n and notifies the sink. Panics
// if n exceeds the current grant.
func (s *Source[T]) Release(n int) {
	if uint64(n) > s.grant {
		panic("rivulet: release exceeds current grant")
	}
	count := uint64(n)
	s.base = (s.base + count) % s.ring.capacity
	s.grant -= count
	s.window = s.window[count:]
	s.ring.head.StoreRelease(s.base)
	s.tx.trySend()
}

// Close tears down this sink's notification channel to the source,
// signalling the source that no further data will ever arrive.
func (s *Sink[T]) Close() {
	s.tx.close()
}

// Close tears down this source's notification channel to the sink,
// signalling the sink that no further space will ever be reclaimed from this source.
func (s *Source[T]) Close() {
	s.tx.close()
}
