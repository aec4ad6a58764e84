// Copyright 2024 The zerocopy Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package zerocopy

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFixedKey(t *testing.T) {
	k := FixedKey(U32)
	require.Equal(t, []byte{4, 3, 2, 1}, k.Probe(0x01020304, nil))

	a := NewArena()
	stored := k.Intern(a, 0x01020304)
	require.Equal(t, 0, a.Len())

	scratch := make([]byte, 0, 16)
	b, err := k.Stored(NewBuf(nil), stored, scratch)
	require.NoError(t, err)
	require.Equal(t, []byte{4, 3, 2, 1}, b)
	require.Equal(t, &scratch[:1][0], &b[0])

	// padding in struct keys is canonicalized to zero
	pk := FixedKey[Pair[uint8, uint32]](PairOf(U8, U32))
	require.Equal(t, []byte{1, 0, 0, 0, 2, 0, 0, 0}, pk.Probe(Pair[uint8, uint32]{A: 1, B: 2}, []byte{9, 9, 9, 9, 9, 9, 9, 9}))
}

func TestStringKey(t *testing.T) {
	k := StringKey(Width32)
	a := NewArena()
	stored := k.Intern(a, "hello")
	buf := a.Freeze()

	b, err := k.Stored(buf, stored, nil)
	require.NoError(t, err)
	require.Equal(t, k.Probe("hello", nil), b)

	_, err = k.Stored(buf, NewUnsized(Str, 3, 10), nil)
	require.ErrorIs(t, err, ErrOutOfBounds)
}

func TestBytesKey(t *testing.T) {
	k := BytesKey(Width16)
	require.Equal(t, 4, k.Layout().Size())
	a := NewArena(WithWidth(Width16))
	stored := k.Intern(a, []byte{0, 1, 2})
	buf := a.Freeze()

	b, err := k.Stored(buf, stored, nil)
	require.NoError(t, err)
	require.Equal(t, []byte{0, 1, 2}, b)
}
