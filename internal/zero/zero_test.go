// Copyright 2024 The zerocopy Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package zero

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBytes(t *testing.T) {
	for _, input := range [][]byte{
		{},
		{'a', 'b', 'c'},
		make([]byte, 3, 17),
	} {
		initialLen := len(input)
		initialCap := cap(input)
		expected := make([]byte, len(input))
		Bytes(input)
		require.Equal(t, expected, input)
		// len and cap should be unchanged
		require.Equal(t, initialLen, len(input))
		require.Equal(t, initialCap, cap(input))
	}
}

func TestBytesLeavesTail(t *testing.T) {
	b := []byte{1, 2, 3, 4}
	Bytes(b[:2])
	require.Equal(t, []byte{0, 0, 3, 4}, b)
}
