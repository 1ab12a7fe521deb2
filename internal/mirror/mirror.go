// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package mirror provides the mirrored-mapping backing store for rivulet's
// ring buffers: a region that can be addressed as [0, 2*capacity) where
// logical slot i and logical slot i+capacity refer to the same element, so
// a window that would wrap past the end of the ring is always a single
// contiguous slice.
//
// On linux, with a pointer-free element type and a ring whose byte size
// (capacity times the element size) is a whole number of pages, this is a
// genuine virtual memory alias: two mappings of the same anonymous shared memory object
// placed back to back, the technique used by POSIX shm-backed ring buffers
// (see the double mmap in diskring's Ring). Everywhere else — other
// platforms, ring sizes that are not page multiples, or an element type
// that can itself hold a Go pointer, which
// the garbage collector must be able to scan — Buffer falls back to a
// single heap-backed slice and materializes crossing windows by copying,
// the "bounce buffer" alternative spec.md §9 sanctions.
package mirror

import (
	"errors"
	"reflect"
	"unsafe"
)

// errUnsupported is returned internally by platform-specific mirror
// constructors when no virtual-aliasing mechanism is available. It is not
// a construction failure: Buffer silently falls back to the portable
// bounce-buffer implementation.
var errUnsupported = errors.New("mirror: no virtual-aliasing mechanism on this platform")

// Buffer is the mirrored backing store for capacity logical slots.
type Buffer[T any] struct {
	capacity uint64
	ring     []T // length 2*capacity; see real for how the upper half is kept consistent
	real     bool
	unmap    func() error
}

// New allocates a Buffer holding capacity logical slots (2*capacity
// physical slots). portable forces the pure-Go bounce-buffer
// implementation even when a real mirrored mapping would be available,
// which is useful for tests and for callers that cannot tolerate the
// extra address space a double mapping reserves.
//
// The only fatal error this package produces is a genuine mapping failure
// on a platform that does support mirrored mapping (e.g. ftruncate or
// mmap returning an error); an unsupported platform, a memfd_create
// failure, a ring size that is not a page multiple or a pointer-carrying
// T is not an error, it is a silent fallback.
func New[T any](capacity uint64, portable bool) (*Buffer[T], error) {
	var zero *T
	elemType := reflect.TypeOf(zero).Elem()

	if !portable && PointerFree(elemType) {
		if ptr, unmap, err := newMirroredBytes(capacity * uint64(elemType.Size())); err == nil {
			ring := unsafe.Slice((*T)(ptr), 2*capacity)
			return &Buffer[T]{capacity: capacity, ring: ring, real: true, unmap: unmap}, nil
		} else if !errors.Is(err, errUnsupported) {
			return nil, err
		}
	}

	return &Buffer[T]{capacity: capacity, ring: make([]T, 2*capacity)}, nil
}

// Capacity returns the number of logical slots (C in spec.md's notation).
func (b *Buffer[T]) Capacity() uint64 {
	return b.capacity
}

// Real reports whether this Buffer is backed by a genuine virtual-memory
// mirrored mapping rather than the portable bounce-buffer fallback.
func (b *Buffer[T]) Real() bool {
	return b.real
}

// Acquire returns a contiguous window of n logical slots starting at pos
// (pos < capacity, pos+n <= 2*capacity-2 by the ring's occupancy
// invariant). For the real mirrored mapping this is a zero-copy reslice
// of the live storage; for the fallback it is a fresh copy assembled from
// the two physical ranges the window straddles, or a direct reslice when
// it doesn't straddle them at all.
func (b *Buffer[T]) Acquire(pos, n uint64) []T {
	if b.real || pos+n <= b.capacity {
		return b.ring[pos : pos+n : pos+n]
	}
	win := make([]T, n)
	first := b.capacity - pos
	copy(win[:first], b.ring[pos:b.capacity])
	copy(win[first:], b.ring[:n-first])
	return win
}

// Flush commits the first n elements of win, a slice previously returned
// by Acquire (or a suffix of one), back into the backing storage at
// logical position pos. It is the counterpart to a bounce-buffer Acquire
// and must be called by sinks before a Release is considered durable.
//
// For the real mirrored mapping win already aliases the backing storage,
// so this copies a slice onto itself — correct, and cheap enough not to
// warrant a separate code path.
func (b *Buffer[T]) Flush(pos, n uint64, win []T) {
	if pos+n <= b.capacity {
		copy(b.ring[pos:pos+n], win[:n])
		return
	}
	first := b.capacity - pos
	copy(b.ring[pos:b.capacity], win[:first])
	copy(b.ring[:n-first], win[first:n])
}

// Close releases any OS resources backing a real mirrored mapping. It is
// a no-op for the portable fallback.
func (b *Buffer[T]) Close() error {
	if b.unmap == nil {
		return nil
	}
	unmap := b.unmap
	b.unmap = nil
	return unmap()
}
