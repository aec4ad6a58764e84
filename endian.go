// Copyright 2024 The zerocopy Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package zerocopy

// Endian holds the encoded bytes of a value together with the byte order
// they were written in.  Reading converts to the machine's order; storing
// copies the bytes as they are.
type Endian[T any] struct {
	raw    []byte
	layout Layout[T]
	order  ByteOrder
}

// NewEndian encodes v in byte order o.
func NewEndian[T any](l Layout[T], o ByteOrder, v T) Endian[T] {
	checkLayout(l)
	raw := make([]byte, l.Size())
	l.Encode(raw, o.Binary(), v)
	return Endian[T]{raw: raw, layout: l, order: o}
}

// LoadEndian validates the value referenced by r and returns its raw bytes
// without decoding them.  The bytes alias the buffer.
func LoadEndian[T any](b *Buf, r Ref[T]) (Endian[T], error) {
	p, err := b.span(r.offset, uint64(r.layout.Size()), r.layout.Align())
	if err != nil {
		return Endian[T]{}, err
	}
	if !isTrivial(r.layout) {
		if err := r.layout.Validate(p, r.order.Binary()); err != nil {
			return Endian[T]{}, err
		}
	}
	return Endian[T]{raw: p, layout: r.layout, order: r.order}, nil
}

// Get decodes the value.
func (e Endian[T]) Get() T {
	return e.layout.Decode(e.raw, e.order.Binary())
}

// Raw returns the encoded bytes.
func (e Endian[T]) Raw() []byte { return e.raw }

func (e Endian[T]) Order() ByteOrder { return e.order }

// To re-encodes the value in byte order o.
func (e Endian[T]) To(o ByteOrder) Endian[T] {
	if o.Resolve() == e.order.Resolve() {
		return Endian[T]{raw: e.raw, layout: e.layout, order: o}
	}
	return NewEndian(e.layout, o, e.Get())
}

// StoreEndian appends the raw bytes of e unchanged and returns a reference
// that reads them back in e's byte order.
func StoreEndian[T any](a *Arena, e Endian[T]) Ref[T] {
	r := StoreUninitWith(a, e.layout, e.order)
	copy(a.slot(r.offset, e.layout.Size()), e.raw)
	return r
}
