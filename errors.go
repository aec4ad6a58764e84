// Copyright 2024 The zerocopy Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package zerocopy

import (
	"errors"
	"fmt"
)

// Sentinels for the data-dependent failure kinds.  Every concrete error
// type below matches its sentinel with errors.Is.
var (
	ErrOutOfBounds         = errors.New("zerocopy: out of bounds")
	ErrIndexOutOfBounds    = errors.New("zerocopy: index out of bounds")
	ErrFailedPhf           = errors.New("zerocopy: failed to construct perfect hash")
	ErrBadUTF8             = errors.New("zerocopy: invalid utf-8")
	ErrUnaligned           = errors.New("zerocopy: unaligned access")
	ErrLengthOverflow      = errors.New("zerocopy: length overflow")
	ErrIllegalValue        = errors.New("zerocopy: illegal value")
	ErrIllegalDiscriminant = errors.New("zerocopy: illegal discriminant")
)

// OutOfBoundsError reports a byte range that does not fit in a buffer.
type OutOfBoundsError struct {
	Start, End uint64
	Len        int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("zerocopy: range %d..%d out of bounds for buffer of length %d", e.Start, e.End, e.Len)
}

func (e *OutOfBoundsError) Is(target error) bool { return target == ErrOutOfBounds }

// IndexOutOfBoundsError reports a table index derived from buffer contents
// that exceeds the table's length.
type IndexOutOfBoundsError struct {
	Index uint64
	Len   uint64
}

func (e *IndexOutOfBoundsError) Error() string {
	return fmt.Sprintf("zerocopy: index %d out of bounds for length %d", e.Index, e.Len)
}

func (e *IndexOutOfBoundsError) Is(target error) bool { return target == ErrIndexOutOfBounds }

// BadUTF8Error reports text that does not decode as UTF-8.  ValidUpTo is the
// length of the longest valid prefix.
type BadUTF8Error struct {
	Offset    uint64
	ValidUpTo int
}

func (e *BadUTF8Error) Error() string {
	return fmt.Sprintf("zerocopy: invalid utf-8 at offset %d (valid up to %d)", e.Offset, e.ValidUpTo)
}

func (e *BadUTF8Error) Is(target error) bool { return target == ErrBadUTF8 }

// UnalignedError reports an offset whose address does not satisfy the
// alignment of the type being loaded.
type UnalignedError struct {
	Offset uint64
	Align  int
}

func (e *UnalignedError) Error() string {
	return fmt.Sprintf("zerocopy: offset %d is not %d-byte aligned", e.Offset, e.Align)
}

func (e *UnalignedError) Is(target error) bool { return target == ErrUnaligned }

// LengthOverflowError reports a slice whose byte size is not representable.
type LengthOverflowError struct {
	Offset   uint64
	Len      uint64
	ElemSize int
}

func (e *LengthOverflowError) Error() string {
	return fmt.Sprintf("zerocopy: slice at %d with %d elements of size %d overflows", e.Offset, e.Len, e.ElemSize)
}

func (e *LengthOverflowError) Is(target error) bool { return target == ErrLengthOverflow }

// IllegalValueError reports a byte pattern that is not a legal value of a
// primitive type, such as a bool that is neither 0 nor 1.
type IllegalValueError struct {
	Type  string
	Value uint64
}

func (e *IllegalValueError) Error() string {
	return fmt.Sprintf("zerocopy: illegal %s value %#x", e.Type, e.Value)
}

func (e *IllegalValueError) Is(target error) bool { return target == ErrIllegalValue }

// IllegalDiscriminantError reports an enum tag that names no variant.
type IllegalDiscriminantError struct {
	Value uint64
}

func (e *IllegalDiscriminantError) Error() string {
	return fmt.Sprintf("zerocopy: illegal discriminant %d", e.Value)
}

func (e *IllegalDiscriminantError) Is(target error) bool { return target == ErrIllegalDiscriminant }
