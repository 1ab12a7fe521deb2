// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rivulet

import (
	"code.hybscloud.com/atomix"

	"code.hybscloud.com/rivulet/internal/mirror"
)

// pad is cache line padding to prevent false sharing between hot atomic
// cursors, the same technique as the teacher's options.go.
type pad [64]byte

// ringState is the shared, atomically-coordinated state behind one SPSC
// or SPMC buffer: the mirrored backing store plus the head and tail
// cursors defined in spec.md §3-§4.3.
type ringState[T any] struct {
	_        pad
	head     atomix.Uint64
	_        pad
	tail     atomix.Uint64
	_        pad
	capacity uint64 // C = minSize+1
	buf      *mirror.Buffer[T]
}

func newRingState[T any](minSize int, portable bool) (*ringState[T], error) {
	if minSize <= 0 {
		panic("rivulet: min_size must be greater than 0")
	}
	capacity := uint64(minSize) + 1
	buf, err := mirror.New[T](capacity, portable)
	if err != nil {
		return nil, err
	}
	return &ringState[T]{capacity: capacity, buf: buf}, nil
}

// dist returns the number of elements from cursor a up to but not
// including cursor b, modulo capacity.
func dist(a, b, capacity uint64) uint64 {
	return (b + capacity - a) % capacity
}

func (r *ringState[T]) readable(head, tail uint64) uint64 {
	return dist(head, tail, r.capacity)
}

func (r *ringState[T]) writable(head, tail uint64) uint64 {
	return r.capacity - r.readable(head, tail) - 1
}

func (r *ringState[T]) close() error {
	return r.buf.Close()
}
