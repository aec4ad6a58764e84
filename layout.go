// Copyright 2024 The zerocopy Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package zerocopy

import (
	"encoding/binary"
	"fmt"
	"math"
	"unicode/utf8"
)

// Layout is the byte-layout contract of a storable type T.
//
// Validate, Decode and Encode are always handed exactly Size() bytes that
// start at an offset aligned to Align().  Validate must accept every byte
// pattern that Decode can interpret and reject everything else; Decode is
// only called on bytes that passed Validate.  Encode writes into zeroed
// bytes, so gaps a layout leaves untouched stay zero.
//
// Size must be a multiple of Align so that elements of a slice stay
// aligned.
type Layout[T any] interface {
	Size() int
	Align() int
	// Padded reports whether the encoding contains bytes that belong to no
	// field.
	Padded() bool
	Validate(b []byte, o binary.ByteOrder) error
	Decode(b []byte, o binary.ByteOrder) T
	Encode(b []byte, o binary.ByteOrder, v T)
}

// TrivialLayout is implemented by layouts that accept any byte pattern, so
// validation can be skipped entirely.
type TrivialLayout interface {
	Trivial() bool
}

func isTrivial(l any) bool {
	t, ok := l.(TrivialLayout)
	return ok && t.Trivial()
}

func checkLayout[T any](l Layout[T]) {
	checkAlign(l.Align())
	if l.Size() < 0 || l.Size()%l.Align() != 0 {
		invariantf("layout size %d is not a multiple of its alignment %d", l.Size(), l.Align())
	}
}

// scalar is a fixed-size number for which every bit pattern is valid.
type scalar[T any] struct {
	size int
	get  func(b []byte, o binary.ByteOrder) T
	put  func(b []byte, o binary.ByteOrder, v T)
}

func (s scalar[T]) Size() int                                   { return s.size }
func (s scalar[T]) Align() int                                  { return s.size }
func (s scalar[T]) Padded() bool                                { return false }
func (s scalar[T]) Trivial() bool                               { return true }
func (s scalar[T]) Validate(b []byte, o binary.ByteOrder) error { return nil }
func (s scalar[T]) Decode(b []byte, o binary.ByteOrder) T       { return s.get(b, o) }
func (s scalar[T]) Encode(b []byte, o binary.ByteOrder, v T)    { s.put(b, o, v) }

// Layouts of the fixed-size numeric types.
var (
	U8 Layout[uint8] = scalar[uint8]{
		size: 1,
		get:  func(b []byte, _ binary.ByteOrder) uint8 { return b[0] },
		put:  func(b []byte, _ binary.ByteOrder, v uint8) { b[0] = v },
	}
	U16 Layout[uint16] = scalar[uint16]{
		size: 2,
		get:  func(b []byte, o binary.ByteOrder) uint16 { return o.Uint16(b) },
		put:  func(b []byte, o binary.ByteOrder, v uint16) { o.PutUint16(b, v) },
	}
	U32 Layout[uint32] = scalar[uint32]{
		size: 4,
		get:  func(b []byte, o binary.ByteOrder) uint32 { return o.Uint32(b) },
		put:  func(b []byte, o binary.ByteOrder, v uint32) { o.PutUint32(b, v) },
	}
	U64 Layout[uint64] = scalar[uint64]{
		size: 8,
		get:  func(b []byte, o binary.ByteOrder) uint64 { return o.Uint64(b) },
		put:  func(b []byte, o binary.ByteOrder, v uint64) { o.PutUint64(b, v) },
	}
	I8 Layout[int8] = scalar[int8]{
		size: 1,
		get:  func(b []byte, _ binary.ByteOrder) int8 { return int8(b[0]) },
		put:  func(b []byte, _ binary.ByteOrder, v int8) { b[0] = uint8(v) },
	}
	I16 Layout[int16] = scalar[int16]{
		size: 2,
		get:  func(b []byte, o binary.ByteOrder) int16 { return int16(o.Uint16(b)) },
		put:  func(b []byte, o binary.ByteOrder, v int16) { o.PutUint16(b, uint16(v)) },
	}
	I32 Layout[int32] = scalar[int32]{
		size: 4,
		get:  func(b []byte, o binary.ByteOrder) int32 { return int32(o.Uint32(b)) },
		put:  func(b []byte, o binary.ByteOrder, v int32) { o.PutUint32(b, uint32(v)) },
	}
	I64 Layout[int64] = scalar[int64]{
		size: 8,
		get:  func(b []byte, o binary.ByteOrder) int64 { return int64(o.Uint64(b)) },
		put:  func(b []byte, o binary.ByteOrder, v int64) { o.PutUint64(b, uint64(v)) },
	}
	F32 Layout[float32] = scalar[float32]{
		size: 4,
		get:  func(b []byte, o binary.ByteOrder) float32 { return math.Float32frombits(o.Uint32(b)) },
		put:  func(b []byte, o binary.ByteOrder, v float32) { o.PutUint32(b, math.Float32bits(v)) },
	}
	F64 Layout[float64] = scalar[float64]{
		size: 8,
		get:  func(b []byte, o binary.ByteOrder) float64 { return math.Float64frombits(o.Uint64(b)) },
		put:  func(b []byte, o binary.ByteOrder, v float64) { o.PutUint64(b, math.Float64bits(v)) },
	}
)

// Bool is a single byte that must be 0 or 1.
var Bool Layout[bool] = boolLayout{}

type boolLayout struct{}

func (boolLayout) Size() int    { return 1 }
func (boolLayout) Align() int   { return 1 }
func (boolLayout) Padded() bool { return false }

func (boolLayout) Validate(b []byte, _ binary.ByteOrder) error {
	if b[0] > 1 {
		return &IllegalValueError{Type: "bool", Value: uint64(b[0])}
	}
	return nil
}

func (boolLayout) Decode(b []byte, _ binary.ByteOrder) bool { return b[0] == 1 }

func (boolLayout) Encode(b []byte, _ binary.ByteOrder, v bool) {
	if v {
		b[0] = 1
	} else {
		b[0] = 0
	}
}

// Char is a 32-bit Unicode scalar value; surrogates and values above
// U+10FFFF are rejected.
var Char Layout[rune] = charLayout{}

type charLayout struct{}

func (charLayout) Size() int    { return 4 }
func (charLayout) Align() int   { return 4 }
func (charLayout) Padded() bool { return false }

func (charLayout) Validate(b []byte, o binary.ByteOrder) error {
	if r := o.Uint32(b); r > math.MaxInt32 || !utf8.ValidRune(rune(r)) {
		return &IllegalValueError{Type: "char", Value: uint64(r)}
	}
	return nil
}

func (charLayout) Decode(b []byte, o binary.ByteOrder) rune { return rune(o.Uint32(b)) }

func (charLayout) Encode(b []byte, o binary.ByteOrder, v rune) {
	if !utf8.ValidRune(v) {
		invariantf("cannot encode invalid rune %#x", v)
	}
	o.PutUint32(b, uint32(v))
}

// Unit is the zero-sized value, used for the values of sets.
type Unit struct{}

// UnitLayout occupies no bytes.
var UnitLayout Layout[Unit] = unitLayout{}

type unitLayout struct{}

func (unitLayout) Size() int                               { return 0 }
func (unitLayout) Align() int                              { return 1 }
func (unitLayout) Padded() bool                            { return false }
func (unitLayout) Trivial() bool                           { return true }
func (unitLayout) Validate([]byte, binary.ByteOrder) error { return nil }
func (unitLayout) Decode([]byte, binary.ByteOrder) Unit    { return Unit{} }

func (unitLayout) Encode([]byte, binary.ByteOrder, Unit) {}

// ArrayLayout stores exactly n elements back to back.
type ArrayLayout[T any] struct {
	elem    Layout[T]
	n       int
	trivial bool
}

// Array returns the layout of a fixed-length array of n elements.  Values
// shorter or longer than n are a programmer error when encoded.
func Array[T any](elem Layout[T], n int) *ArrayLayout[T] {
	checkLayout(elem)
	if n < 0 || (elem.Size() > 0 && n > math.MaxInt/elem.Size()) {
		invariantf("array of %d elements of size %d is not representable", n, elem.Size())
	}
	return &ArrayLayout[T]{elem: elem, n: n, trivial: isTrivial(elem)}
}

func (a *ArrayLayout[T]) Size() int     { return a.elem.Size() * a.n }
func (a *ArrayLayout[T]) Align() int    { return a.elem.Align() }
func (a *ArrayLayout[T]) Padded() bool  { return a.n > 0 && a.elem.Padded() }
func (a *ArrayLayout[T]) Trivial() bool { return a.trivial }

// Len returns the number of elements in the array.
func (a *ArrayLayout[T]) Len() int { return a.n }

func (a *ArrayLayout[T]) Validate(b []byte, o binary.ByteOrder) error {
	if a.trivial {
		return nil
	}
	size := a.elem.Size()
	for i := 0; i < a.n; i++ {
		if err := a.elem.Validate(b[i*size:(i+1)*size], o); err != nil {
			return fmt.Errorf("element %d: %w", i, err)
		}
	}
	return nil
}

func (a *ArrayLayout[T]) Decode(b []byte, o binary.ByteOrder) []T {
	size := a.elem.Size()
	out := make([]T, a.n)
	for i := range out {
		out[i] = a.elem.Decode(b[i*size:(i+1)*size], o)
	}
	return out
}

func (a *ArrayLayout[T]) Encode(b []byte, o binary.ByteOrder, v []T) {
	if len(v) != a.n {
		invariantf("array layout holds %d elements, got %d", a.n, len(v))
	}
	size := a.elem.Size()
	for i := range v {
		a.elem.Encode(b[i*size:(i+1)*size], o, v[i])
	}
}
