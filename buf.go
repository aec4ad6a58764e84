// Copyright 2024 The zerocopy Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package zerocopy

import (
	"encoding/binary"
	"errors"
	"fmt"
	"iter"
	"math"
	"math/bits"
	"unsafe"
)

// Buf is a finalized, read-only byte buffer.  All loads go through a Buf and
// are checked against its length and the alignment of its memory, so a Buf
// may safely hold untrusted bytes.  A Buf is safe for concurrent use as long
// as nobody mutates the underlying bytes.
type Buf struct {
	data []byte
}

// NewBuf wraps b without copying.  Alignment checks are made against the
// actual address of b, so values that need alignment greater than one only
// load if b itself is suitably aligned; see CopyAligned.
func NewBuf(b []byte) *Buf {
	return &Buf{data: b}
}

// CopyAligned copies b into new storage whose base address is a multiple of
// align.
func CopyAligned(b []byte, align int) *Buf {
	data := MakeAligned(len(b), align)
	copy(data, b)
	return &Buf{data: data}
}

// MakeAligned returns n zeroed bytes whose base address is a multiple of
// align, for filling in before wrapping with NewBuf.
func MakeAligned(n, align int) []byte {
	checkAlign(align)
	return allocAligned(n, align)
}

// Len returns the length of the buffer in bytes.
func (b *Buf) Len() int { return len(b.data) }

// Bytes returns the buffer contents.  The caller must not modify them.
func (b *Buf) Bytes() []byte { return b.data }

// IsAligned reports whether the base of the buffer is a multiple of align.
func (b *Buf) IsAligned(align int) bool {
	return addrOf(b.data)&uintptr(align-1) == 0
}

// span returns the n bytes starting at off after checking that they are
// in bounds and that their address is a multiple of align.
func (b *Buf) span(off, n uint64, align int) ([]byte, error) {
	end, carry := bits.Add64(off, n, 0)
	if carry != 0 {
		return nil, &OutOfBoundsError{Start: off, End: math.MaxUint64, Len: len(b.data)}
	}
	if end > uint64(len(b.data)) {
		return nil, &OutOfBoundsError{Start: off, End: end, Len: len(b.data)}
	}
	if (addrOf(b.data)+uintptr(off))&uintptr(align-1) != 0 {
		return nil, &UnalignedError{Offset: off, Align: align}
	}
	return b.data[off:end:end], nil
}

func addrOf(b []byte) uintptr {
	return uintptr(unsafe.Pointer(unsafe.SliceData(b)))
}

// allocAligned returns n zeroed bytes whose base address is a multiple of
// align.  Go's heap does not move objects, so the alignment is stable.
func allocAligned(n, align int) []byte {
	raw := make([]byte, n+align)
	off := int(-addrOf(raw) & uintptr(align-1))
	return raw[off : off+n : off+n]
}

// Load reads the value referenced by r.  It checks bounds, then the
// alignment of the value's address, then runs the layout's validator before
// decoding.
func Load[T any](b *Buf, r Ref[T]) (T, error) {
	var v T
	p, err := b.span(r.offset, uint64(r.layout.Size()), r.layout.Align())
	if err != nil {
		return v, err
	}
	if !isTrivial(r.layout) {
		if err := r.layout.Validate(p, r.order.Binary()); err != nil {
			return v, fmt.Errorf("zerocopy.Load: value at %d: %w", r.offset, err)
		}
	}
	return r.layout.Decode(p, r.order.Binary()), nil
}

// LoadUnsized reads the dynamically sized value referenced by u.  Strings
// are validated as UTF-8 and alias the buffer.
func LoadUnsized[T any](b *Buf, u Unsized[T]) (T, error) {
	var v T
	p, err := b.span(u.offset, u.size, u.layout.Align())
	if err != nil {
		return v, err
	}
	if err := u.layout.Validate(p); err != nil {
		var utf8Err *BadUTF8Error
		if errors.As(err, &utf8Err) {
			utf8Err.Offset = u.offset + uint64(utf8Err.ValidUpTo)
		}
		return v, err
	}
	return u.layout.View(p), nil
}

// SliceView is a validated view of the elements of a Slice.
type SliceView[T any] struct {
	data   []byte
	n      int
	layout Layout[T]
	order  binary.ByteOrder
}

// LoadSlice checks bounds and alignment of s and validates every element.
// Zero-sized elements are validated once.
func LoadSlice[T any](b *Buf, s Slice[T]) (SliceView[T], error) {
	p, n, err := loadSliceBytes(b, s)
	if err != nil {
		return SliceView[T]{}, err
	}
	view := SliceView[T]{data: p, n: n, layout: s.layout, order: s.order.Binary()}
	if isTrivial(s.layout) || n == 0 {
		return view, nil
	}
	size := s.layout.Size()
	if size == 0 {
		if err := s.layout.Validate(nil, view.order); err != nil {
			return SliceView[T]{}, fmt.Errorf("zerocopy.LoadSlice: element 0: %w", err)
		}
		return view, nil
	}
	for i := 0; i < n; i++ {
		if err := s.layout.Validate(p[i*size:(i+1)*size], view.order); err != nil {
			return SliceView[T]{}, fmt.Errorf("zerocopy.LoadSlice: element %d: %w", i, err)
		}
	}
	return view, nil
}

func loadSliceBytes[T any](b *Buf, s Slice[T]) ([]byte, int, error) {
	nbytes, ok := s.byteLen()
	if !ok || s.length > math.MaxInt {
		return nil, 0, &LengthOverflowError{Offset: s.offset, Len: s.length, ElemSize: s.layout.Size()}
	}
	p, err := b.span(s.offset, nbytes, s.layout.Align())
	if err != nil {
		return nil, 0, err
	}
	return p, int(s.length), nil
}

// Len returns the number of elements.
func (v SliceView[T]) Len() int { return v.n }

// At returns element i.  It panics if i is out of range.
func (v SliceView[T]) At(i int) T {
	if uint(i) >= uint(v.n) {
		invariantf("index %d out of range for slice of length %d", i, v.n)
	}
	size := v.layout.Size()
	return v.layout.Decode(v.data[i*size:(i+1)*size], v.order)
}

// Get returns element i, or an IndexOutOfBoundsError.  It is used where
// the index itself comes from buffer contents.
func (v SliceView[T]) Get(i uint64) (T, error) {
	if i >= uint64(v.n) {
		var zero T
		return zero, &IndexOutOfBoundsError{Index: i, Len: uint64(v.n)}
	}
	return v.At(int(i)), nil
}

// All iterates over the elements in order.
func (v SliceView[T]) All() iter.Seq2[int, T] {
	return func(yield func(int, T) bool) {
		for i := 0; i < v.n; i++ {
			if !yield(i, v.At(i)) {
				return
			}
		}
	}
}

// Bytes returns the raw bytes backing the view.
func (v SliceView[T]) Bytes() []byte { return v.data }

// Collect decodes every element into a new Go slice.
func (v SliceView[T]) Collect() []T {
	out := make([]T, v.n)
	for i := range out {
		out[i] = v.At(i)
	}
	return out
}

// LazySliceView is a bounds- and alignment-checked view whose elements are
// validated one at a time as they are read.
type LazySliceView[T any] struct {
	data   []byte
	n      int
	layout Layout[T]
	order  binary.ByteOrder
	offset uint64
}

// LoadSliceLazy checks bounds and alignment of s but defers element
// validation to Get.  It suits large tables where only a few elements are
// ever read.
func LoadSliceLazy[T any](b *Buf, s Slice[T]) (LazySliceView[T], error) {
	p, n, err := loadSliceBytes(b, s)
	if err != nil {
		return LazySliceView[T]{}, err
	}
	return LazySliceView[T]{data: p, n: n, layout: s.layout, order: s.order.Binary(), offset: s.offset}, nil
}

func (v LazySliceView[T]) Len() int      { return v.n }
func (v LazySliceView[T]) Bytes() []byte { return v.data }

// Get validates and returns element i.
func (v LazySliceView[T]) Get(i uint64) (T, error) {
	var zero T
	if i >= uint64(v.n) {
		return zero, &IndexOutOfBoundsError{Index: i, Len: uint64(v.n)}
	}
	size := v.layout.Size()
	p := v.data[int(i)*size : (int(i)+1)*size]
	if !isTrivial(v.layout) {
		if err := v.layout.Validate(p, v.order); err != nil {
			return zero, fmt.Errorf("zerocopy: element %d of slice at %d: %w", i, v.offset, err)
		}
	}
	return v.layout.Decode(p, v.order), nil
}
