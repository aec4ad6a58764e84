// Copyright 2024 The zerocopy Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package zerocopy

import (
	"encoding/binary"
	"fmt"

	"github.com/bpowers/zerocopy/internal/zero"
)

// Field describes one field of a struct S.  Fields are created with FieldOf
// and combined with StructOf.
type Field[S any] interface {
	Name() string
	size() int
	align() int
	padded() bool
	trivial() bool
	validate(b []byte, o binary.ByteOrder) error
	decode(s *S, b []byte, o binary.ByteOrder)
	encode(s *S, b []byte, o binary.ByteOrder)
}

type field[S, F any] struct {
	name   string
	layout Layout[F]
	get    func(*S) F
	set    func(*S, F)
}

// FieldOf describes a field of type F inside S, stored with layout l.  get
// and set access the field on a Go value.
func FieldOf[S, F any](name string, l Layout[F], get func(*S) F, set func(*S, F)) Field[S] {
	checkLayout(l)
	return &field[S, F]{name: name, layout: l, get: get, set: set}
}

func (f *field[S, F]) Name() string  { return f.name }
func (f *field[S, F]) size() int     { return f.layout.Size() }
func (f *field[S, F]) align() int    { return f.layout.Align() }
func (f *field[S, F]) padded() bool  { return f.layout.Padded() }
func (f *field[S, F]) trivial() bool { return isTrivial(f.layout) }

func (f *field[S, F]) validate(b []byte, o binary.ByteOrder) error {
	return f.layout.Validate(b, o)
}

func (f *field[S, F]) decode(s *S, b []byte, o binary.ByteOrder) {
	f.set(s, f.layout.Decode(b, o))
}

func (f *field[S, F]) encode(s *S, b []byte, o binary.ByteOrder) {
	f.layout.Encode(b, o, f.get(s))
}

// StructLayout lays fields out sequentially in declaration order, each at
// the next offset satisfying its alignment, like a C struct.
type StructLayout[S any] struct {
	fields  []Field[S]
	offsets []int
	size    int
	align   int
	padded  bool
	trivial bool
}

// StructOf computes the layout of a struct with the given fields.
func StructOf[S any](fields ...Field[S]) *StructLayout[S] {
	l := &StructLayout[S]{
		fields:  fields,
		offsets: make([]int, len(fields)),
		align:   1,
		trivial: true,
	}
	off := 0
	for i, f := range fields {
		start := alignUp(off, f.align())
		if start != off || f.padded() {
			l.padded = true
		}
		l.offsets[i] = start
		off = start + f.size()
		l.align = max(l.align, f.align())
		l.trivial = l.trivial && f.trivial()
	}
	l.size = alignUp(off, l.align)
	if l.size != off {
		l.padded = true
	}
	// a trivial struct with gaps still accepts any bytes: padding is never
	// interpreted.
	return l
}

func (l *StructLayout[S]) Size() int     { return l.size }
func (l *StructLayout[S]) Align() int    { return l.align }
func (l *StructLayout[S]) Padded() bool  { return l.padded }
func (l *StructLayout[S]) Trivial() bool { return l.trivial }

// Offset returns the byte offset of the named field, or -1.
func (l *StructLayout[S]) Offset(name string) int {
	for i, f := range l.fields {
		if f.Name() == name {
			return l.offsets[i]
		}
	}
	return -1
}

func (l *StructLayout[S]) Validate(b []byte, o binary.ByteOrder) error {
	if l.trivial {
		return nil
	}
	for i, f := range l.fields {
		off := l.offsets[i]
		if err := f.validate(b[off:off+f.size()], o); err != nil {
			return fmt.Errorf("field %s: %w", f.Name(), err)
		}
	}
	return nil
}

func (l *StructLayout[S]) Decode(b []byte, o binary.ByteOrder) S {
	var s S
	for i, f := range l.fields {
		off := l.offsets[i]
		f.decode(&s, b[off:off+f.size()], o)
	}
	return s
}

func (l *StructLayout[S]) Encode(b []byte, o binary.ByteOrder, v S) {
	if l.padded {
		zero.Bytes(b[:l.size])
	}
	for i, f := range l.fields {
		off := l.offsets[i]
		f.encode(&v, b[off:off+f.size()], o)
	}
}

// Pair is an ordered pair.  Map entries are stored as pairs of key and
// value.
type Pair[A, B any] struct {
	A A
	B B
}

// PairOf returns the struct layout of a pair.
func PairOf[A, B any](a Layout[A], b Layout[B]) *StructLayout[Pair[A, B]] {
	return StructOf(
		FieldOf("a", a,
			func(p *Pair[A, B]) A { return p.A },
			func(p *Pair[A, B], v A) { p.A = v }),
		FieldOf("b", b,
			func(p *Pair[A, B]) B { return p.B },
			func(p *Pair[A, B], v B) { p.B = v }),
	)
}
