// Copyright 2024 The zerocopy Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package zerocopy

import (
	"encoding/binary"
	"math/bits"
)

// Ref is a typed offset into a buffer.  It carries no size information of
// its own: the layout determines how many bytes the value occupies.
type Ref[T any] struct {
	offset uint64
	layout Layout[T]
	order  ByteOrder
}

// NewRef constructs a reference with the default offset width and native
// byte order.  It panics if offset does not fit in DefaultWidth.
func NewRef[T any](l Layout[T], offset uint64) Ref[T] {
	return NewRefWith(l, DefaultWidth, Native, offset)
}

// NewRefWith constructs a reference with an explicit width and byte order.
func NewRefWith[T any](l Layout[T], w Width, o ByteOrder, offset uint64) Ref[T] {
	checkLayout(l)
	w.mustFit("offset", offset)
	return Ref[T]{offset: offset, layout: l, order: o}
}

func (r Ref[T]) Offset() uint64    { return r.offset }
func (r Ref[T]) Layout() Layout[T] { return r.layout }
func (r Ref[T]) Order() ByteOrder  { return r.order }

// Slice is a typed (offset, length) pair naming length contiguous elements.
type Slice[T any] struct {
	offset uint64
	length uint64
	layout Layout[T]
	order  ByteOrder
}

// NewSlice constructs a slice reference with the default width.  It panics
// if offset or length does not fit in DefaultWidth.
func NewSlice[T any](l Layout[T], offset, length uint64) Slice[T] {
	return NewSliceWith(l, DefaultWidth, Native, offset, length)
}

// NewSliceWith constructs a slice reference with an explicit width and
// byte order.
func NewSliceWith[T any](l Layout[T], w Width, o ByteOrder, offset, length uint64) Slice[T] {
	checkLayout(l)
	w.mustFit("offset", offset)
	w.mustFit("length", length)
	return Slice[T]{offset: offset, length: length, layout: l, order: o}
}

func (s Slice[T]) Offset() uint64    { return s.offset }
func (s Slice[T]) Len() uint64       { return s.length }
func (s Slice[T]) Layout() Layout[T] { return s.layout }
func (s Slice[T]) Order() ByteOrder  { return s.order }

// Index returns a reference to element i.  It panics if i is out of range
// or the element's offset is not representable.
func (s Slice[T]) Index(i uint64) Ref[T] {
	if i >= s.length {
		invariantf("index %d out of range for slice of length %d", i, s.length)
	}
	hi, off := bits.Mul64(i, uint64(s.layout.Size()))
	off += s.offset
	if hi != 0 || off < s.offset {
		invariantf("element %d of slice at %d overflows", i, s.offset)
	}
	return Ref[T]{offset: off, layout: s.layout, order: s.order}
}

// byteLen returns the number of bytes spanned by the slice and whether that
// number is representable.
func (s Slice[T]) byteLen() (uint64, bool) {
	hi, lo := bits.Mul64(s.length, uint64(s.layout.Size()))
	if hi != 0 {
		return 0, false
	}
	if _, carry := bits.Add64(s.offset, lo, 0); carry != 0 {
		return 0, false
	}
	return lo, true
}

// Unsized references a dynamically sized value, such as a string, by offset
// and byte length.
type Unsized[T any] struct {
	offset uint64
	size   uint64
	layout UnsizedLayout[T]
}

// NewUnsized constructs an unsized reference with the default width.
func NewUnsized[T any](l UnsizedLayout[T], offset, size uint64) Unsized[T] {
	return NewUnsizedWith(l, DefaultWidth, offset, size)
}

// NewUnsizedWith constructs an unsized reference with an explicit width.
func NewUnsizedWith[T any](l UnsizedLayout[T], w Width, offset, size uint64) Unsized[T] {
	checkAlign(l.Align())
	w.mustFit("offset", offset)
	w.mustFit("length", size)
	return Unsized[T]{offset: offset, size: size, layout: l}
}

func (u Unsized[T]) Offset() uint64           { return u.offset }
func (u Unsized[T]) Size() uint64             { return u.size }
func (u Unsized[T]) Layout() UnsizedLayout[T] { return u.layout }

// RefLayout stores a Ref as a single offset of a fixed width.  Any offset
// is a valid encoding; whether it points anywhere useful is checked when
// the reference is loaded.
type RefLayout[T any] struct {
	elem  Layout[T]
	width Width
	order ByteOrder
}

// RefOf returns the layout of a reference to elem.  Decoded references
// read their target with byte order o.
func RefOf[T any](elem Layout[T], w Width, o ByteOrder) *RefLayout[T] {
	checkLayout(elem)
	w.check()
	return &RefLayout[T]{elem: elem, width: w, order: o}
}

func (l *RefLayout[T]) Size() int                                   { return l.width.Bytes() }
func (l *RefLayout[T]) Align() int                                  { return l.width.Bytes() }
func (l *RefLayout[T]) Padded() bool                                { return false }
func (l *RefLayout[T]) Trivial() bool                               { return true }
func (l *RefLayout[T]) Validate(b []byte, o binary.ByteOrder) error { return nil }

func (l *RefLayout[T]) Decode(b []byte, o binary.ByteOrder) Ref[T] {
	return Ref[T]{offset: l.width.get(b, o), layout: l.elem, order: l.order}
}

func (l *RefLayout[T]) Encode(b []byte, o binary.ByteOrder, r Ref[T]) {
	l.width.mustFit("offset", r.offset)
	l.width.put(b, o, r.offset)
}

// SliceLayout stores a Slice as an (offset, length) pair of a fixed width.
type SliceLayout[T any] struct {
	elem  Layout[T]
	width Width
	order ByteOrder
}

// SliceOf returns the layout of a slice reference to elements of elem.
func SliceOf[T any](elem Layout[T], w Width, o ByteOrder) *SliceLayout[T] {
	checkLayout(elem)
	w.check()
	return &SliceLayout[T]{elem: elem, width: w, order: o}
}

func (l *SliceLayout[T]) Size() int    { return 2 * l.width.Bytes() }
func (l *SliceLayout[T]) Align() int   { return l.width.Bytes() }
func (l *SliceLayout[T]) Padded() bool { return false }

// Validate rejects slices whose byte extent overflows; bounds against the
// buffer are checked when the slice is loaded.
func (l *SliceLayout[T]) Validate(b []byte, o binary.ByteOrder) error {
	s := l.Decode(b, o)
	if _, ok := s.byteLen(); !ok {
		return &LengthOverflowError{Offset: s.offset, Len: s.length, ElemSize: l.elem.Size()}
	}
	return nil
}

func (l *SliceLayout[T]) Decode(b []byte, o binary.ByteOrder) Slice[T] {
	n := l.width.Bytes()
	return Slice[T]{
		offset: l.width.get(b[:n], o),
		length: l.width.get(b[n:], o),
		layout: l.elem,
		order:  l.order,
	}
}

func (l *SliceLayout[T]) Encode(b []byte, o binary.ByteOrder, s Slice[T]) {
	l.width.mustFit("offset", s.offset)
	l.width.mustFit("length", s.length)
	n := l.width.Bytes()
	l.width.put(b[:n], o, s.offset)
	l.width.put(b[n:], o, s.length)
}

// UnsizedRefLayout stores an Unsized reference as an (offset, size) pair.
type UnsizedRefLayout[T any] struct {
	elem  UnsizedLayout[T]
	width Width
}

// UnsizedOf returns the layout of a reference to an unsized value.
func UnsizedOf[T any](elem UnsizedLayout[T], w Width) *UnsizedRefLayout[T] {
	checkAlign(elem.Align())
	w.check()
	return &UnsizedRefLayout[T]{elem: elem, width: w}
}

func (l *UnsizedRefLayout[T]) Size() int    { return 2 * l.width.Bytes() }
func (l *UnsizedRefLayout[T]) Align() int   { return l.width.Bytes() }
func (l *UnsizedRefLayout[T]) Padded() bool { return false }

func (l *UnsizedRefLayout[T]) Validate(b []byte, o binary.ByteOrder) error {
	u := l.Decode(b, o)
	if _, carry := bits.Add64(u.offset, u.size, 0); carry != 0 {
		return &LengthOverflowError{Offset: u.offset, Len: u.size, ElemSize: 1}
	}
	return nil
}

func (l *UnsizedRefLayout[T]) Decode(b []byte, o binary.ByteOrder) Unsized[T] {
	n := l.width.Bytes()
	return Unsized[T]{
		offset: l.width.get(b[:n], o),
		size:   l.width.get(b[n:], o),
		layout: l.elem,
	}
}

func (l *UnsizedRefLayout[T]) Encode(b []byte, o binary.ByteOrder, u Unsized[T]) {
	l.width.mustFit("offset", u.offset)
	l.width.mustFit("length", u.size)
	n := l.width.Bytes()
	l.width.put(b[:n], o, u.offset)
	l.width.put(b[n:], o, u.size)
}
