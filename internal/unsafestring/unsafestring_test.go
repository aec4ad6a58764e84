// Copyright 2024 The zerocopy Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package unsafestring

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestToBytes(t *testing.T) {
	for _, input := range []string{
		"",
		"abc",
		"😀",
	} {
		allocs := testing.AllocsPerRun(1, func() {
			initialLen := len(input)
			b := ToBytes(input)
			if input != string(b) {
				t.Fatal("expected contents equal")
			}
			// len and cap should match the string
			if initialLen != len(b) {
				t.Fatal("expected lens equal")
			}
			if initialLen != cap(b) {
				t.Fatal("expected cap equal to string len")
			}
		})
		require.Zero(t, allocs)
	}
}

func TestFromBytes(t *testing.T) {
	for _, input := range [][]byte{
		nil,
		{},
		[]byte("John-John"),
	} {
		s := FromBytes(input)
		require.Equal(t, string(input), s)
		if len(input) > 0 {
			// the string aliases the slice
			require.Equal(t, unsafe.SliceData(input), unsafe.StringData(s))
		}
	}
}
