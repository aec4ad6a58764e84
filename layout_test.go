// Copyright 2024 The zerocopy Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package zerocopy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func roundTrip[T any](t *testing.T, l Layout[T], o ByteOrder, v T) {
	t.Helper()
	a := NewArena()
	r := StoreWith(a, l, o, v)
	actual, err := Load(a.Freeze(), r)
	require.NoError(t, err)
	require.Equal(t, v, actual)
}

func TestScalarRoundTrip(t *testing.T) {
	for _, o := range []ByteOrder{Native, Little, Big} {
		roundTrip(t, U8, o, math.MaxUint8)
		roundTrip(t, U16, o, 0xbeef)
		roundTrip(t, U32, o, 0xdeadbeef)
		roundTrip(t, U64, o, math.MaxUint64-1)
		roundTrip(t, I8, o, math.MinInt8)
		roundTrip(t, I16, o, -12345)
		roundTrip(t, I32, o, math.MinInt32)
		roundTrip(t, I64, o, -1)
		roundTrip(t, F32, o, float32(3.5))
		roundTrip(t, F64, o, math.Pi)
		roundTrip(t, Bool, o, true)
		roundTrip(t, Char, o, '⌘')
		roundTrip(t, UnitLayout, o, Unit{})
	}
}

func TestByteOrderOnDisk(t *testing.T) {
	a := NewArena()
	StoreWith(a, U32, Big, 0x01020304)
	StoreWith(a, U32, Little, 0x01020304)
	require.Equal(t, []byte{1, 2, 3, 4, 4, 3, 2, 1}, a.Bytes())
}

func TestBoolValidation(t *testing.T) {
	buf := NewBuf([]byte{0, 1, 2})
	for i, expected := range []bool{false, true} {
		v, err := Load(buf, NewRef(Bool, uint64(i)))
		require.NoError(t, err)
		require.Equal(t, expected, v)
	}
	_, err := Load(buf, NewRef(Bool, 2))
	require.ErrorIs(t, err, ErrIllegalValue)
	var illegal *IllegalValueError
	require.ErrorAs(t, err, &illegal)
	require.Equal(t, "bool", illegal.Type)
	require.Equal(t, uint64(2), illegal.Value)
}

func TestCharValidation(t *testing.T) {
	for _, bad := range []uint32{0xD800, 0xDFFF, 0x110000, math.MaxUint32} {
		raw := make([]byte, 4)
		Little.Binary().PutUint32(raw, bad)
		_, err := Load(CopyAligned(raw, 4), NewRefWith(Char, DefaultWidth, Little, 0))
		require.ErrorIs(t, err, ErrIllegalValue, "%#x", bad)
	}
	assert.Panics(t, func() {
		Store(NewArena(), Char, rune(0xD800))
	})
}

func TestArrayLayout(t *testing.T) {
	l := Array(U16, 3)
	require.Equal(t, 6, l.Size())
	require.Equal(t, 2, l.Align())
	require.Equal(t, 3, l.Len())
	require.True(t, l.Trivial())
	roundTrip[[]uint16](t, l, Big, []uint16{1, 2, 3})

	assert.Panics(t, func() { Store[[]uint16](NewArena(), l, []uint16{1}) })

	bools := Array(Bool, 2)
	require.False(t, bools.Trivial())
	_, err := Load[[]bool](NewBuf([]byte{1, 5}), NewRef[[]bool](bools, 0))
	require.ErrorIs(t, err, ErrIllegalValue)
}

func TestPairLayout(t *testing.T) {
	l := PairOf(U8, U32)
	require.Equal(t, 8, l.Size())
	require.Equal(t, 4, l.Align())
	require.True(t, l.Padded())
	require.True(t, l.Trivial())
	roundTrip[Pair[uint8, uint32]](t, l, Little, Pair[uint8, uint32]{A: 9, B: 1 << 30})

	packed := PairOf(U32, U32)
	require.False(t, packed.Padded())
}

func TestStructValidationNamesField(t *testing.T) {
	l := PairOf(U8, Bool)
	require.False(t, l.Trivial())
	_, err := Load[Pair[uint8, bool]](NewBuf([]byte{1, 9}), NewRef[Pair[uint8, bool]](l, 0))
	require.ErrorIs(t, err, ErrIllegalValue)
	require.Contains(t, err.Error(), "field b")
}

func TestUnsizedSlice(t *testing.T) {
	l := SliceOfUnsized(U16, Little)
	a := NewArena()
	u := StoreUnsized[[]uint16](a, l, []uint16{1, 2, 0xffff})
	require.Equal(t, uint64(6), u.Size())
	buf := a.Freeze()

	v, err := LoadUnsized(buf, u)
	require.NoError(t, err)
	require.Equal(t, []uint16{1, 2, 0xffff}, v)

	_, err = LoadUnsized(buf, NewUnsized[[]uint16](l, 0, 5))
	require.ErrorIs(t, err, ErrLengthOverflow)

	assert.Panics(t, func() { SliceOfUnsized(UnitLayout, Little) })
}

func TestReferenceLayouts(t *testing.T) {
	a := NewArena(WithWidth(Width16))
	target := StoreWith(a, U32, Big, 77)
	items := StoreSliceWith(a, U16, Little, []uint16{4, 5})
	text := StoreString(a, "hi")

	refs := StoreWith(a, RefOf(U32, Width16, Big), Little, target)
	slices := StoreWith(a, SliceOf(U16, Width16, Little), Little, items)
	texts := StoreWith(a, UnsizedOf(Str, Width16), Little, text)
	require.Equal(t, 2, RefOf(U32, Width16, Big).Size())
	require.Equal(t, 4, SliceOf(U16, Width16, Little).Size())
	buf := a.Freeze()

	r, err := Load(buf, refs)
	require.NoError(t, err)
	v, err := Load(buf, r)
	require.NoError(t, err)
	require.Equal(t, uint32(77), v)

	s, err := Load(buf, slices)
	require.NoError(t, err)
	view, err := LoadSlice(buf, s)
	require.NoError(t, err)
	require.Equal(t, []uint16{4, 5}, view.Collect())

	u, err := Load(buf, texts)
	require.NoError(t, err)
	str, err := LoadUnsized(buf, u)
	require.NoError(t, err)
	require.Equal(t, "hi", str)
}

func TestWidth(t *testing.T) {
	require.Equal(t, uint64(math.MaxUint16), Width16.Max())
	require.Equal(t, uint64(math.MaxUint32), Width32.Max())
	require.Equal(t, uint64(math.MaxUint64), Width64.Max())
	require.True(t, Width16.Fits(math.MaxUint16))
	require.False(t, Width16.Fits(math.MaxUint16+1))
	require.Equal(t, 8, Width64.Bytes())
	assert.Panics(t, func() { Width(5).Bytes() })
}

func TestByteOrderResolve(t *testing.T) {
	require.True(t, Native.IsNative())
	require.NotEqual(t, Native, Native.Resolve())
	require.Equal(t, Big, Big.Resolve())
	require.Equal(t, Little, Little.Resolve())
	require.True(t, Native.Resolve().IsNative())
	require.NotEqual(t, Little.IsNative(), Big.IsNative())
}
