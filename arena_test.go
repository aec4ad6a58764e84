// Copyright 2024 The zerocopy Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package zerocopy

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArenaPadding(t *testing.T) {
	a := NewArena()
	require.Equal(t, 0, a.Len())
	require.Equal(t, 1, a.Requested())

	r8 := Store(a, U8, 0xaa)
	r64 := Store(a, U64, 7)
	require.Equal(t, uint64(0), r8.Offset())
	require.Equal(t, uint64(8), r64.Offset())
	require.Equal(t, 16, a.Len())
	require.Equal(t, 8, a.Requested())
	require.Equal(t, []byte{0xaa, 0, 0, 0, 0, 0, 0, 0}, a.Bytes()[:8])
	require.GreaterOrEqual(t, a.Cap(), minArenaCap)
}

func TestArenaCapacity(t *testing.T) {
	a := NewArena(WithCapacity(100))
	require.Equal(t, 100, a.Cap())

	a.Reserve(10)
	require.Equal(t, 100, a.Cap())
	a.ExtendFromSlice(make([]byte, 101))
	require.GreaterOrEqual(t, a.Cap(), 101)

	a.Clear()
	require.Equal(t, 0, a.Len())
	require.GreaterOrEqual(t, a.Cap(), 101)

	assert.Panics(t, func() { a.Reserve(-1) })
}

func TestArenaAlignment(t *testing.T) {
	a := NewArena(WithAlignment(64))
	require.Equal(t, 64, a.Requested())
	for i := 0; i < 1000; i++ {
		a.ExtendFromSlice([]byte{byte(i)})
		require.True(t, a.IsAligned())
	}
	buf := a.Buf()
	require.True(t, buf.IsAligned(64))
	require.Equal(t, 1000, buf.Len())
	for i, b := range buf.Bytes() {
		require.Equal(t, byte(i), b)
	}
}

func TestArenaAlignInPlace(t *testing.T) {
	a := NewArena()
	refs := make([]Ref[uint32], 0, 64)
	for i := 0; i < 64; i++ {
		a.ExtendFromSlice([]byte{1, 2, 3})
		refs = append(refs, Store(a, U32, uint32(i)))
	}
	a.AlignInPlace()
	require.True(t, a.IsAligned())

	buf := a.Freeze()
	require.Equal(t, 0, a.Len())
	for i, r := range refs {
		v, err := Load(buf, r)
		require.NoError(t, err)
		require.Equal(t, uint32(i), v)
	}
}

func TestArenaWidthLimit(t *testing.T) {
	a := NewArena(WithWidth(Width16))
	require.Equal(t, Width16, a.Width())
	a.ExtendFromSlice(make([]byte, 1<<16-1))
	assert.Panics(t, func() { a.ExtendFromSlice([]byte{1}) })

	assert.Panics(t, func() { NewArena(WithWidth(Width(3))) })
	assert.Panics(t, func() { NewArena(WithAlignment(3)) })
	assert.Panics(t, func() { NewArena(WithAlignment(2 * MaxAlign)) })
}

func TestArenaPanicsAreAssertions(t *testing.T) {
	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		require.True(t, errors.HasAssertionFailure(err))
	}()
	NewArena(WithAlignment(6))
}
