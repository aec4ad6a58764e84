// Copyright 2024 The zerocopy Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package zerocopy

import (
	"math/bits"

	"github.com/bpowers/zerocopy/internal/zero"
)

// Store appends v in native byte order and returns a reference to it.
func Store[T any](a *Arena, l Layout[T], v T) Ref[T] {
	return StoreWith(a, l, Native, v)
}

// StoreWith appends v in byte order o, after padding the arena to the
// layout's alignment with zero bytes.
func StoreWith[T any](a *Arena, l Layout[T], o ByteOrder, v T) Ref[T] {
	r := StoreUninitWith(a, l, o)
	l.Encode(a.slot(r.offset, l.Size()), o.Binary(), v)
	return r
}

// StoreUninit reserves a zeroed, aligned slot for a value.  The slot is
// filled in later with Replace.
func StoreUninit[T any](a *Arena, l Layout[T]) Ref[T] {
	return StoreUninitWith(a, l, Native)
}

// StoreUninitWith is StoreUninit with an explicit byte order.
func StoreUninitWith[T any](a *Arena, l Layout[T], o ByteOrder) Ref[T] {
	checkLayout(l)
	off := a.place(l.Size(), l.Align())
	return Ref[T]{offset: uint64(off), layout: l, order: o}
}

// Replace overwrites the value referenced by r.  r must have been returned
// by a store into a.
func Replace[T any](a *Arena, r Ref[T], v T) {
	p := a.slot(r.offset, r.layout.Size())
	zero.Bytes(p)
	r.layout.Encode(p, r.order.Binary(), v)
}

// Swap exchanges the values referenced by x and y, which must not
// partially overlap.
func Swap[T any](a *Arena, x, y Ref[T]) {
	size := x.layout.Size()
	if y.layout.Size() != size {
		invariantf("cannot swap values of size %d and %d", size, y.layout.Size())
	}
	if x.offset == y.offset {
		return
	}
	px := a.slot(x.offset, size)
	py := a.slot(y.offset, size)
	lo, hi := min(x.offset, y.offset), max(x.offset, y.offset)
	if hi-lo < uint64(size) {
		invariantf("cannot swap overlapping values at %d and %d", x.offset, y.offset)
	}
	for i := range px {
		px[i], py[i] = py[i], px[i]
	}
}

// StoreSlice appends vs contiguously in native byte order.
func StoreSlice[T any](a *Arena, l Layout[T], vs []T) Slice[T] {
	return StoreSliceWith(a, l, Native, vs)
}

// StoreSliceWith appends vs contiguously in byte order o.
func StoreSliceWith[T any](a *Arena, l Layout[T], o ByteOrder, vs []T) Slice[T] {
	checkLayout(l)
	size := l.Size()
	hi, n := bits.Mul64(uint64(len(vs)), uint64(size))
	if hi != 0 || !a.width.Fits(n) {
		invariantf("slice of %d elements of size %d exceeds the %s offset maximum", len(vs), size, a.width)
	}
	off := a.place(int(n), l.Align())
	bo := o.Binary()
	for i, v := range vs {
		start := off + i*size
		l.Encode(a.data[start:start+size], bo, v)
	}
	return Slice[T]{offset: uint64(off), length: uint64(len(vs)), layout: l, order: o}
}

// StoreSliceUninit reserves n zeroed, contiguous element slots.  Elements
// are filled in with Replace through Slice.Index.
func StoreSliceUninit[T any](a *Arena, l Layout[T], n int) Slice[T] {
	return StoreSliceUninitWith(a, l, Native, n)
}

// StoreSliceUninitWith is StoreSliceUninit with an explicit byte order.
func StoreSliceUninitWith[T any](a *Arena, l Layout[T], o ByteOrder, n int) Slice[T] {
	checkLayout(l)
	hi, size := bits.Mul64(uint64(n), uint64(l.Size()))
	if n < 0 || hi != 0 || !a.width.Fits(size) {
		invariantf("slice of %d elements of size %d exceeds the %s offset maximum", n, l.Size(), a.width)
	}
	off := a.place(int(size), l.Align())
	return Slice[T]{offset: uint64(off), length: uint64(n), layout: l, order: o}
}

// StoreUnsized appends the encoding of a dynamically sized value.
func StoreUnsized[T any](a *Arena, l UnsizedLayout[T], v T) Unsized[T] {
	checkAlign(l.Align())
	b := l.Bytes(v)
	off := a.place(len(b), l.Align())
	copy(a.data[off:], b)
	return Unsized[T]{offset: uint64(off), size: uint64(len(b)), layout: l}
}

// StoreString appends s as UTF-8 text.
func StoreString(a *Arena, s string) Unsized[string] {
	return StoreUnsized(a, Str, s)
}

// StoreBytes appends raw bytes.
func StoreBytes(a *Arena, b []byte) Unsized[[]byte] {
	return StoreUnsized(a, Bytes, b)
}
