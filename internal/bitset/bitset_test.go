// Copyright 2024 The zerocopy Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package bitset

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBitset(t *testing.T) {
	b := New(128)

	require.Equal(t, 2, len(b.bits))

	// should do nothing
	b.Set(132)
	b.Set(-1)

	zero := []uint64{0, 0}
	require.Equal(t, zero, b.bits)

	require.False(t, b.IsSet(7))
	b.Set(7)
	require.True(t, b.IsSet(7))
	b.Set(8)
	require.True(t, b.IsSet(8))
	require.Equal(t, 2, b.Count())
	require.False(t, b.IsSet(-1))
	require.False(t, b.IsSet(128))

	for i := 0; i < 128; i++ {
		b.Set(i)
	}

	full := []uint64{^uint64(0), ^uint64(0)}
	require.Equal(t, full, b.bits)
	require.Equal(t, 128, b.Count())
}

func TestBitsetOddLength(t *testing.T) {
	b := New(65)
	require.Equal(t, 2, len(b.bits))
	b.Set(64)
	require.True(t, b.IsSet(64))
	require.False(t, b.IsSet(65))
	require.Equal(t, 1, b.Count())
}
