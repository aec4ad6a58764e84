// Copyright 2024 The zerocopy Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package zerocopy

import (
	"encoding/binary"
	"fmt"

	"github.com/bpowers/zerocopy/internal/zero"
)

// Repr is the width of an enum discriminant.
type Repr uint8

const (
	Repr8  Repr = 1
	Repr16 Repr = 2
	Repr32 Repr = 4
)

func (r Repr) max() uint64 {
	switch r {
	case Repr8:
		return 1<<8 - 1
	case Repr16:
		return 1<<16 - 1
	case Repr32:
		return 1<<32 - 1
	}
	invariantf("invalid enum repr %d", uint8(r))
	return 0
}

func (r Repr) get(b []byte, o binary.ByteOrder) uint32 {
	switch r {
	case Repr8:
		return uint32(b[0])
	case Repr16:
		return uint32(o.Uint16(b))
	}
	return o.Uint32(b)
}

func (r Repr) put(b []byte, o binary.ByteOrder, v uint32) {
	switch r {
	case Repr8:
		b[0] = uint8(v)
	case Repr16:
		o.PutUint16(b, uint16(v))
	default:
		o.PutUint32(b, v)
	}
}

// Variant describes one alternative of an enum E.  Variants are created
// with VariantOf and combined with EnumOf.
type Variant[E any] interface {
	Name() string
	Discriminant() uint32
	size() int
	align() int
	padded() bool
	validate(b []byte, o binary.ByteOrder) error
	decode(b []byte, o binary.ByteOrder) E
	encode(b []byte, o binary.ByteOrder, v E) bool
}

type variant[E, P any] struct {
	name    string
	disc    uint32
	payload Layout[P]
	match   func(E) (P, bool)
	build   func(P) E
}

// VariantOf describes the variant with discriminant disc whose payload is
// stored with layout payload.  match reports whether a Go value is this
// variant and extracts its payload; build turns a payload back into an E.
// Variants without data use UnitLayout.
func VariantOf[E, P any](name string, disc uint32, payload Layout[P], match func(E) (P, bool), build func(P) E) Variant[E] {
	checkLayout(payload)
	return &variant[E, P]{name: name, disc: disc, payload: payload, match: match, build: build}
}

func (v *variant[E, P]) Name() string         { return v.name }
func (v *variant[E, P]) Discriminant() uint32 { return v.disc }
func (v *variant[E, P]) size() int            { return v.payload.Size() }
func (v *variant[E, P]) align() int           { return v.payload.Align() }
func (v *variant[E, P]) padded() bool         { return v.payload.Padded() }

func (v *variant[E, P]) validate(b []byte, o binary.ByteOrder) error {
	if isTrivial(v.payload) {
		return nil
	}
	return v.payload.Validate(b[:v.payload.Size()], o)
}

func (v *variant[E, P]) decode(b []byte, o binary.ByteOrder) E {
	return v.build(v.payload.Decode(b[:v.payload.Size()], o))
}

func (v *variant[E, P]) encode(b []byte, o binary.ByteOrder, e E) bool {
	p, ok := v.match(e)
	if !ok {
		return false
	}
	v.payload.Encode(b[:v.payload.Size()], o, p)
	return true
}

// EnumLayout stores a discriminant followed by the active variant's
// payload.  Every payload starts at the same offset, which is aligned for
// the most-aligned payload.
type EnumLayout[E any] struct {
	repr       Repr
	variants   []Variant[E]
	byDisc     map[uint32]Variant[E]
	payloadOff int
	size       int
	align      int
	padded     bool
}

// EnumOf computes the layout of an enum.  It panics on duplicate
// discriminants or discriminants that do not fit in repr.
func EnumOf[E any](repr Repr, variants ...Variant[E]) *EnumLayout[E] {
	l := &EnumLayout[E]{
		repr:     repr,
		variants: variants,
		byDisc:   make(map[uint32]Variant[E], len(variants)),
		align:    int(repr),
	}
	maxSize := 0
	for _, v := range variants {
		if uint64(v.Discriminant()) > repr.max() {
			invariantf("discriminant %d of variant %s does not fit in %d bytes", v.Discriminant(), v.Name(), repr)
		}
		if prev, ok := l.byDisc[v.Discriminant()]; ok {
			invariantf("variants %s and %s share discriminant %d", prev.Name(), v.Name(), v.Discriminant())
		}
		l.byDisc[v.Discriminant()] = v
		l.align = max(l.align, v.align())
		maxSize = max(maxSize, v.size())
	}
	l.payloadOff = alignUp(int(repr), l.align)
	l.size = alignUp(l.payloadOff+maxSize, l.align)
	l.padded = l.payloadOff != int(repr) || l.size != l.payloadOff+maxSize
	for _, v := range variants {
		if v.size() != maxSize || v.padded() {
			l.padded = true
		}
	}
	return l
}

func (l *EnumLayout[E]) Size() int    { return l.size }
func (l *EnumLayout[E]) Align() int   { return l.align }
func (l *EnumLayout[E]) Padded() bool { return l.padded }

// PayloadOffset returns the offset of every variant's payload.
func (l *EnumLayout[E]) PayloadOffset() int { return l.payloadOff }

func (l *EnumLayout[E]) Validate(b []byte, o binary.ByteOrder) error {
	d := l.repr.get(b, o)
	v, ok := l.byDisc[d]
	if !ok {
		return &IllegalDiscriminantError{Value: uint64(d)}
	}
	if err := v.validate(b[l.payloadOff:], o); err != nil {
		return fmt.Errorf("variant %s: %w", v.Name(), err)
	}
	return nil
}

func (l *EnumLayout[E]) Decode(b []byte, o binary.ByteOrder) E {
	v := l.byDisc[l.repr.get(b, o)]
	return v.decode(b[l.payloadOff:], o)
}

// Encode writes the first variant whose match accepts v.  It panics if no
// variant does.
func (l *EnumLayout[E]) Encode(b []byte, o binary.ByteOrder, e E) {
	zero.Bytes(b[:l.size])
	for _, v := range l.variants {
		if v.encode(b[l.payloadOff:l.size], o, e) {
			l.repr.put(b, o, v.Discriminant())
			return
		}
	}
	invariantf("no variant matches value %v", e)
}
