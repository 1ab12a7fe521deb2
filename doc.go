// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package rivulet provides an asynchronous, contiguous-memory streaming
// buffer: producers and consumers exchange bulk data through a shared
// ring while always seeing the live, unconsumed region as a single flat
// slice, never wrapped across the buffer's end.
//
// The package offers two topologies:
//
//   - SPSC: single-producer single-consumer, built with SPSCBuffer
//   - SPMC: single-producer multi-consumer broadcast, built with
//     SPMCBuffer; every consumer observes the full stream from its own
//     clone-point, not a share of it (this is fan-out, not work queueing)
//
// # Quick Start
//
//	sink, source := rivulet.SPSCBuffer[byte](4096)
//
//	go func() { // producer
//	    for {
//	        if err := sink.Grant(ctx, 1); err != nil {
//	            return
//	        }
//	        n := copy(sink.ViewMut(), nextChunk())
//	        sink.Release(n)
//	    }
//	}()
//
//	for { // consumer
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
//
// # Grant/Release
//
// Every endpoint — Sink, Source, SPMCSink, SPMCSource — implements View
// or ViewMut (view.go): Grant suspends the calling goroutine until the
// requested count of elements or slots is available, then View or
// ViewMut exposes them as one contiguous slice regardless of where they
// sit relative to the ring's wraparound point. Release advances the
// window and wakes the counterparty; it never blocks.
//
// A view shorter than the last requested count signals end of stream,
// not an error: Grant only returns an error for ErrOverflow (the request
// can never be satisfied, even at peak capacity) or a cancelled context.
//
//	ok, err := source.TryGrant(64)
//	if rivulet.IsOverflow(err) {
//	    // requested more than the buffer can ever hold; shrink the request
//	}
//
// # Backing store
//
// By default, SPSCBuffer and SPMCBuffer request a mirrored virtual
// mapping for pointer-free element types on platforms that support it
// (currently Linux, via memfd_create+mmap — see internal/mirror), when
// the ring's byte size (minSize+1 elements) is a whole number of pages: two
// adjacent mappings of the same physical pages so a read or write that
// crosses the ring's wraparound still lands in one contiguous slice. On
// platforms without that mechanism, for other ring sizes, or for element types that may hold
// Go pointers (which the runtime cannot trace through non-Go-heap
// memory), the buffer transparently falls back to a copy-based bounce
// buffer for grants that straddle the wrap. WithPortable forces the
// fallback unconditionally:
//
//	sink, source := rivulet.SPSCBuffer[Event](1024, rivulet.WithPortable())
//
// # Broadcast fan-out (SPMC)
//
//	sink, a := rivulet.SPMCBuffer[Frame](1024)
//	b := a.Clone() // b observes a's stream from this moment forward
//
//	go func() {
//	    for {
//	        if err := sink.Grant(ctx, 1); err != nil {
//	            return
//	        }
//	        n := copy(sink.ViewMut(), nextFrame())
//	        sink.Release(n)
//	    }
//	}()
//
// Every clone must keep draining or it will eventually stall the
// producer: the global head only advances to the position reached by
// the slowest live consumer. Call Close on a consumer that is no longer
// read to let the producer's grants progress past it.
//
// # Error handling
//
// ErrOverflow and ErrClosed are the two error values the package
// defines. Grant and TryGrant report ErrOverflow; Grant also returns
// ctx.Err() when its context is cancelled. ErrClosed is consumed inside
// the endpoints and surfaces as a short grant, not as an error.
// IsOverflow, IsClosed, and IsSemantic (which also recognizes
// code.hybscloud.com/iox's own semantic errors, for callers juggling
// both packages) classify them without a type assertion.
package rivulet
