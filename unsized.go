// Copyright 2024 The zerocopy Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package zerocopy

import (
	"unicode/utf8"

	"github.com/bpowers/zerocopy/internal/unsafestring"
)

// UnsizedLayout is the layout contract of a dynamically sized type.  The
// size of a value is carried by its reference.
type UnsizedLayout[T any] interface {
	Align() int
	// Validate checks that b is a legal encoding.  On failure it returns a
	// data error describing the first bad byte relative to b.
	Validate(b []byte) error
	// View returns the value stored in b.  The result may alias b.
	View(b []byte) T
	// Bytes returns the encoding of v.  The result may alias v.
	Bytes(v T) []byte
}

// Str is the layout of UTF-8 text.  Loaded strings alias the buffer.
var Str UnsizedLayout[string] = strLayout{}

type strLayout struct{}

func (strLayout) Align() int { return 1 }

func (strLayout) Validate(b []byte) error {
	if utf8.Valid(b) {
		return nil
	}
	return &BadUTF8Error{ValidUpTo: validUpTo(b)}
}

func (strLayout) View(b []byte) string  { return unsafestring.FromBytes(b) }
func (strLayout) Bytes(v string) []byte { return unsafestring.ToBytes(v) }

// validUpTo returns the length of the longest valid UTF-8 prefix of b.
func validUpTo(b []byte) int {
	n := 0
	for n < len(b) {
		r, size := utf8.DecodeRune(b[n:])
		if r == utf8.RuneError && size <= 1 {
			break
		}
		n += size
	}
	return n
}

// Bytes is the layout of raw bytes.
var Bytes UnsizedLayout[[]byte] = bytesLayout{}

type bytesLayout struct{}

func (bytesLayout) Align() int            { return 1 }
func (bytesLayout) Validate([]byte) error { return nil }
func (bytesLayout) View(b []byte) []byte  { return b[:len(b):len(b)] }
func (bytesLayout) Bytes(v []byte) []byte { return v }

// UnsizedSlice is the layout of a run of fixed-size elements whose count
// is derived from the reference's byte length.
type UnsizedSlice[T any] struct {
	elem Layout[T]
	o    ByteOrder
}

// SliceOfUnsized returns an unsized layout for a dynamically sized run of
// elem values in byte order o.  It is used where a slice is referenced by
// byte length instead of element count.
func SliceOfUnsized[T any](elem Layout[T], o ByteOrder) *UnsizedSlice[T] {
	checkLayout(elem)
	if elem.Size() == 0 {
		invariantf("unsized slices of zero-sized elements are not supported")
	}
	return &UnsizedSlice[T]{elem: elem, o: o}
}

func (l *UnsizedSlice[T]) Align() int { return l.elem.Align() }

func (l *UnsizedSlice[T]) Validate(b []byte) error {
	size := l.elem.Size()
	if len(b)%size != 0 {
		return &LengthOverflowError{Len: uint64(len(b)), ElemSize: size}
	}
	if isTrivial(l.elem) {
		return nil
	}
	bo := l.o.Binary()
	for off := 0; off < len(b); off += size {
		if err := l.elem.Validate(b[off:off+size], bo); err != nil {
			return err
		}
	}
	return nil
}

func (l *UnsizedSlice[T]) View(b []byte) []T {
	size := l.elem.Size()
	bo := l.o.Binary()
	out := make([]T, len(b)/size)
	for i := range out {
		out[i] = l.elem.Decode(b[i*size:(i+1)*size], bo)
	}
	return out
}

func (l *UnsizedSlice[T]) Bytes(v []T) []byte {
	size := l.elem.Size()
	bo := l.o.Binary()
	out := make([]byte, len(v)*size)
	for i := range v {
		l.elem.Encode(out[i*size:(i+1)*size], bo, v[i])
	}
	return out
}
