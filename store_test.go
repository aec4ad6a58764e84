// Copyright 2024 The zerocopy Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package zerocopy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReplace(t *testing.T) {
	a := NewArena()
	r := StoreUninit(a, U32)
	Store(a, U32, 2)
	Replace(a, r, 1)
	buf := a.Freeze()

	v, err := Load(buf, r)
	require.NoError(t, err)
	require.Equal(t, uint32(1), v)
	v, err = Load(buf, NewRef(U32, 4))
	require.NoError(t, err)
	require.Equal(t, uint32(2), v)
}

func TestReplaceOutsideArenaPanics(t *testing.T) {
	a := NewArena()
	Store(a, U32, 2)
	assert.Panics(t, func() { Replace(a, NewRef(U32, 2), 1) })
	assert.Panics(t, func() { Replace(a, NewRef(U64, 0), 1) })
}

func TestSwap(t *testing.T) {
	a := NewArena()
	x := Store(a, U64, 1)
	y := Store(a, U64, 2)
	Swap(a, x, y)
	Swap(a, x, x)

	buf := a.Buf()
	vx, err := Load(buf, x)
	require.NoError(t, err)
	vy, err := Load(buf, y)
	require.NoError(t, err)
	require.Equal(t, uint64(2), vx)
	require.Equal(t, uint64(1), vy)

	assert.Panics(t, func() { Swap(a, x, NewRef(U64, 4)) }, "overlapping")
	assert.Panics(t, func() { Swap(a, NewRef[[]uint8](Array(U8, 2), 0), NewRef[[]uint8](Array(U8, 3), 8)) }, "sizes differ")
}

func TestStoreSliceUninit(t *testing.T) {
	a := NewArena()
	s := StoreSliceUninitWith(a, PairOf(U32, U16), Big, 3)
	require.Equal(t, uint64(3), s.Len())
	require.Equal(t, 24, a.Len())
	Replace(a, s.Index(2), Pair[uint32, uint16]{A: 7, B: 8})
	assert.Panics(t, func() { s.Index(3) })
	buf := a.Freeze()

	view, err := LoadSlice(buf, s)
	require.NoError(t, err)
	require.Equal(t, []Pair[uint32, uint16]{{}, {}, {A: 7, B: 8}}, view.Collect())
}

func TestStoreBytes(t *testing.T) {
	a := NewArena()
	u := StoreBytes(a, []byte{1, 2, 3})
	empty := StoreBytes(a, nil)
	buf := a.Freeze()

	b, err := LoadUnsized(buf, u)
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, b)
	require.Equal(t, 3, cap(b))

	b, err = LoadUnsized(buf, empty)
	require.NoError(t, err)
	require.Empty(t, b)
}

func TestStoreSliceWidthLimit(t *testing.T) {
	a := NewArena(WithWidth(Width16))
	assert.Panics(t, func() { StoreSlice(a, U64, make([]uint64, 1<<13)) })
	assert.NotPanics(t, func() { StoreSlice(a, U64, make([]uint64, 1<<12)) })
}
