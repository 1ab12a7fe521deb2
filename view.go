// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package rivulet

import "context"

// View is the polymorphic, suspendable contract every rivulet endpoint
// implements: a source or sink of a contiguous, lazily-advanced window
// into a mirrored ring buffer.
//
// Example:
//
//	sink, source := rivulet.SPSCBuffer[byte](4096)
//	go func() {
//	    for {
//	        if err := sink.Grant(ctx, 1); err != nil {
//	            return
//	        }
//	        n := copy(sink.ViewMut(), nextChunk())
//	        sink.Release(n)
//	    }
//	}()
//	for {
//	    if err := source.Grant(ctx, 1); err != nil {
//	        return
//	    }
//	    view := source.View()
//	    if len(view) == 0 {
//	        break // end of stream
//	    }
//	    consume(view)
//	    source.Release(len(view))
//	}
type View[T any] interface {
	// View returns the currently granted window. Before the first
	// successful Grant this is empty. After a successful grant of n,
	// it has length >= n (endpoints are free to over-grant). A
	// returned slice strictly shorter than the last requested count
	// signals end-of-stream: no further elements will arrive.
	View() []T

	// Grant blocks the calling goroutine — never an OS thread, since
	// goroutines suspend on a channel receive under ctx — until the
	// window holds at least count elements (Source) or count writable
	// slots (Sink), returning when it does, when ctx is cancelled, or
	// when the counterparty is gone and no more will ever arrive (in
	// which case View() afterward may be shorter than count: that is
	// success, not an error). Returns ErrOverflow if count exceeds the
	// maximum possible grant.
	Grant(ctx context.Context, count int) error

	// TryGrant is the non-blocking form of Grant: it reports whether
	// count elements/slots were immediately available without
	// suspending, or an error if count exceeds the maximum possible
	// grant.
	TryGrant(count int) (bool, error)

	// Release advances the granted window's base by count, publishing
	// writes (Sink) or returning slots (Source). It never suspends and
	// always notifies the counterparty. It panics if count exceeds the
	// current grant.
	Release(count int)
}

// ViewMut is the mutable counterpart to View, implemented only by sinks.
type ViewMut[T any] interface {
	View[T]

	// ViewMut returns the same window as View, mutable.
	ViewMut() []T
}

var (
	_ ViewMut[byte] = (*Sink[byte])(nil)
	_ View[byte]    = (*Source[byte])(nil)
	_ ViewMut[byte] = (*SPMCSink[byte])(nil)
	_ View[byte]    = (*SPMCSource[byte])(nil)
)
