// Copyright 2024 The zerocopy Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package zerocopy

import (
	"github.com/bpowers/zerocopy/internal/zero"
)

const minArenaCap = 64

// Arena is an append-only byte region that values are stored into.  Stored
// values are addressed by offsets relative to the start of the arena, so
// growing or re-aligning the backing storage never invalidates a
// reference.
//
// An Arena is not safe for concurrent use.
type Arena struct {
	data      []byte
	requested int
	width     Width
}

type arenaOptions struct {
	capacity int
	width    Width
	align    int
}

// ArenaOption configures NewArena.
type ArenaOption func(*arenaOptions)

// WithCapacity preallocates n bytes.
func WithCapacity(n int) ArenaOption {
	return func(o *arenaOptions) {
		o.capacity = n
	}
}

// WithWidth sets the offset width, which bounds the arena's length.
func WithWidth(w Width) ArenaOption {
	return func(o *arenaOptions) {
		o.width = w
	}
}

// WithAlignment sets the minimum alignment of the arena's base address.
func WithAlignment(align int) ArenaOption {
	return func(o *arenaOptions) {
		o.align = align
	}
}

// NewArena returns an empty arena.
func NewArena(opts ...ArenaOption) *Arena {
	o := arenaOptions{width: DefaultWidth, align: 1}
	for _, opt := range opts {
		opt(&o)
	}
	o.width.check()
	checkAlign(o.align)
	a := &Arena{requested: o.align, width: o.width}
	if o.capacity > 0 {
		a.mustFit(o.capacity)
		a.data = allocAligned(o.capacity, a.requested)[:0]
	}
	return a
}

// Len returns the number of bytes stored.
func (a *Arena) Len() int { return len(a.data) }

// Cap returns the capacity of the current backing storage.
func (a *Arena) Cap() int { return cap(a.data) }

// Width returns the offset width of the arena.
func (a *Arena) Width() Width { return a.width }

// Requested returns the largest alignment requested so far, either through
// WithAlignment or by storing a value.
func (a *Arena) Requested() int { return a.requested }

// IsAligned reports whether the backing storage currently satisfies the
// requested alignment.
func (a *Arena) IsAligned() bool {
	return addrOf(a.data)&uintptr(a.requested-1) == 0
}

// Bytes returns the stored bytes.  The result is invalidated by the next
// call that grows the arena.
func (a *Arena) Bytes() []byte { return a.data }

func (a *Arena) mustFit(n int) {
	if n < 0 || !a.width.Fits(uint64(n)) {
		invariantf("arena length %d exceeds the %s offset maximum", n, a.width)
	}
}

// Reserve ensures at least n more bytes can be stored without
// reallocating.
func (a *Arena) Reserve(n int) {
	need := len(a.data) + n
	if n < 0 || need < len(a.data) {
		invariantf("cannot reserve %d bytes", n)
	}
	a.mustFit(need)
	if need <= cap(a.data) {
		return
	}
	newCap := max(minArenaCap, 2*cap(a.data), need)
	if !a.width.Fits(uint64(newCap)) {
		newCap = need
	}
	a.realloc(newCap)
}

func (a *Arena) realloc(capacity int) {
	data := allocAligned(capacity, a.requested)[:len(a.data)]
	copy(data, a.data)
	a.data = data
}

// Pad appends zero bytes until the length is a multiple of align and
// records align as requested.
func (a *Arena) Pad(align int) {
	checkAlign(align)
	a.requested = max(a.requested, align)
	n := alignUp(len(a.data), align) - len(a.data)
	if n == 0 {
		return
	}
	a.alloc(n)
}

// alloc appends n zero bytes and returns their offset.
func (a *Arena) alloc(n int) int {
	a.Reserve(n)
	off := len(a.data)
	a.data = a.data[:off+n]
	zero.Bytes(a.data[off:])
	return off
}

// place pads to align and then appends n zero bytes.
func (a *Arena) place(n, align int) int {
	a.Pad(align)
	return a.alloc(n)
}

// ExtendFromSlice appends b without padding and returns its offset.
func (a *Arena) ExtendFromSlice(b []byte) uint64 {
	off := a.alloc(len(b))
	copy(a.data[off:], b)
	return uint64(off)
}

// AlignInPlace moves the contents to storage whose base satisfies the
// requested alignment.  Offsets are relative, so existing references stay
// valid.
func (a *Arena) AlignInPlace() {
	if a.IsAligned() {
		return
	}
	a.realloc(max(cap(a.data), minArenaCap))
}

// Buf returns an aligned view of the stored bytes.  The view shares memory
// with the arena and must not be used after the arena is modified.
func (a *Arena) Buf() *Buf {
	a.AlignInPlace()
	return &Buf{data: a.data[:len(a.data):len(a.data)]}
}

// Freeze hands the stored bytes over to an immutable Buf and resets the
// arena to empty.
func (a *Arena) Freeze() *Buf {
	b := a.Buf()
	a.data = nil
	return b
}

// Clear discards the contents but keeps the backing storage.
func (a *Arena) Clear() {
	a.data = a.data[:0]
}

// slot returns the bytes of a previously stored fixed-size value.  Refs
// into the arena are produced by the arena itself, so a bad one is a
// programmer error.
func (a *Arena) slot(off uint64, size int) []byte {
	end := off + uint64(size)
	if end < off || end > uint64(len(a.data)) {
		invariantf("range %d..%d outside arena of length %d", off, end, len(a.data))
	}
	return a.data[off:end:end]
}
