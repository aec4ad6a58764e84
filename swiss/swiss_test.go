// Copyright 2024 The zerocopy Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package swiss

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/bpowers/zerocopy"
)

func TestBucketsFor(t *testing.T) {
	for _, tc := range []struct {
		n, buckets int
	}{
		{0, 8},
		{7, 8},
		{8, 16},
		{14, 16},
		{15, 32},
		{1000, 2048},
	} {
		require.Equal(t, tc.buckets, bucketsFor(tc.n), "n=%d", tc.n)
		require.LessOrEqual(t, tc.n, maxLoad(tc.buckets))
	}
}

func TestBuilderInsertRemove(t *testing.T) {
	a := zerocopy.NewArena()
	b := NewBuilder(a, zerocopy.StringKey(zerocopy.Width32), zerocopy.U32)
	for i := 0; i < 1000; i++ {
		require.True(t, b.Insert(fmt.Sprintf("key-%d", i), uint32(i)))
	}
	require.Equal(t, 1000, b.Len())
	require.False(t, b.Insert("key-10", 10000))
	v, ok := b.Get("key-10")
	require.True(t, ok)
	require.Equal(t, uint32(10000), v)

	for i := 0; i < 1000; i += 2 {
		require.True(t, b.Remove(fmt.Sprintf("key-%d", i)))
	}
	require.False(t, b.Remove("key-0"))
	require.Equal(t, 500, b.Len())

	// reuse tombstones and force rehashes
	for i := 1000; i < 3000; i++ {
		require.True(t, b.Insert(fmt.Sprintf("key-%d", i), uint32(i)))
	}
	require.Equal(t, 2500, b.Len())
}

func TestStoreAndOpen(t *testing.T) {
	a := zerocopy.NewArena()
	key := zerocopy.StringKey(zerocopy.Width32)
	b := NewBuilder(a, key, zerocopy.U64, WithHashKey(7), WithByteOrder(zerocopy.Little))
	for i := 0; i < 500; i++ {
		b.Insert(fmt.Sprintf("k%d", i), uint64(i)*11)
	}
	for i := 0; i < 500; i += 5 {
		b.Remove(fmt.Sprintf("k%d", i))
	}
	m := b.Store()
	require.Equal(t, uint64(400), m.Len)

	root := zerocopy.Store(a, Layout(key.Layout(), zerocopy.U64, zerocopy.Width32, zerocopy.Little), m)
	buf := a.Freeze()
	header, err := zerocopy.Load(buf, root)
	require.NoError(t, err)

	r, err := Open(buf, key, header)
	require.NoError(t, err)
	require.Equal(t, 400, r.Len())
	for i := 0; i < 500; i++ {
		v, ok, err := r.Get(fmt.Sprintf("k%d", i))
		require.NoError(t, err)
		if i%5 == 0 {
			require.False(t, ok)
			continue
		}
		require.True(t, ok)
		require.Equal(t, uint64(i)*11, v)
	}

	n := 0
	for e, err := range r.All() {
		require.NoError(t, err)
		s, err := zerocopy.LoadUnsized(buf, e.A)
		require.NoError(t, err)
		require.Equal(t, fmt.Sprintf("k%d", e.B/11), s)
		n++
	}
	require.Equal(t, 400, n)
}

func TestEmptyMap(t *testing.T) {
	a := zerocopy.NewArena()
	key := zerocopy.FixedKey(zerocopy.U64)
	m := NewBuilder(a, key, zerocopy.UnitLayout).Store()
	r, err := Open(a.Freeze(), key, m)
	require.NoError(t, err)
	ok, err := r.Contains(1)
	require.NoError(t, err)
	require.False(t, ok)
}

func buildSmall(t *testing.T, n int) (*zerocopy.Buf, Map[uint64, uint64]) {
	t.Helper()
	a := zerocopy.NewArena()
	b := NewBuilder(a, zerocopy.FixedKey(zerocopy.U64), zerocopy.U64)
	// keys start at 1 so that zeroed empty buckets never hold a real key
	for k := uint64(1); k <= uint64(n); k++ {
		b.Insert(k, k+100)
	}
	m := b.Store()
	return a.Freeze(), m
}

func withByte(buf *zerocopy.Buf, off uint64, c byte) *zerocopy.Buf {
	data := append([]byte(nil), buf.Bytes()...)
	data[off] = c
	return zerocopy.CopyAligned(data, 8)
}

func TestOpenRejectsCorruption(t *testing.T) {
	buf, m := buildSmall(t, 5)
	key := zerocopy.FixedKey(zerocopy.U64)
	ctrl := m.Ctrl.Offset()

	_, err := Open(withByte(buf, ctrl+1, 0x81), key, m)
	require.ErrorIs(t, err, ErrCorrupt)

	// mirror disagrees with the first group
	last := ctrl + m.Ctrl.Len() - 1
	_, err = Open(withByte(buf, last, buf.Bytes()[last]^0x01), key, m)
	require.ErrorIs(t, err, ErrCorrupt)

	bad := m
	bad.Len = 4
	_, err = Open(buf, key, bad)
	require.ErrorIs(t, err, ErrCorrupt)

	bad = m
	bad.Entries = zerocopy.NewSlice(m.Entries.Layout(), m.Entries.Offset(), 3)
	_, err = Open(buf, key, bad)
	require.ErrorIs(t, err, ErrCorrupt)

	bad = m
	bad.Ctrl = zerocopy.NewSlice(zerocopy.U8, ctrl, 12)
	_, err = Open(buf, key, bad)
	require.ErrorIs(t, err, ErrCorrupt)
}

// TestFlippedControlBytes rewrites every control byte to every interesting
// value.  Each lookup must return the right value, "not found", or an
// error, and must terminate.
func TestFlippedControlBytes(t *testing.T) {
	const n = 40
	buf, m := buildSmall(t, n)
	key := zerocopy.FixedKey(zerocopy.U64)
	ctrl := m.Ctrl.Offset()
	buckets := m.Ctrl.Len() - groupWidth

	for i := uint64(0); i < buckets; i++ {
		for _, c := range []byte{0x00, 0x05, 0x7F, ctrlDeleted, ctrlEmpty, 0x81, 0xFE} {
			data := append([]byte(nil), buf.Bytes()...)
			data[ctrl+i] = c
			if i < groupWidth {
				data[ctrl+buckets+i] = c
			}
			corrupt := zerocopy.CopyAligned(data, 8)

			header := m
			if orig := buf.Bytes()[ctrl+i]; isFull(orig) != isFull(c) {
				// keep the count consistent so Open gets past it
				if isFull(c) {
					header.Len++
				} else {
					header.Len--
				}
			}
			assert.NotPanics(t, func() {
				r, err := Open(corrupt, key, header)
				if err != nil {
					require.ErrorIs(t, err, ErrCorrupt)
					return
				}
				for k := uint64(1); k < n+10; k++ {
					v, ok, err := r.Get(k)
					if err != nil || !ok {
						continue
					}
					require.Equal(t, k+100, v)
				}
			})
		}
	}
}

func TestLookupWithoutEmptyBucketsTerminates(t *testing.T) {
	buf, m := buildSmall(t, 7)
	require.Equal(t, uint64(8+groupWidth), m.Ctrl.Len())
	data := append([]byte(nil), buf.Bytes()...)
	ctrl := m.Ctrl.Offset()
	for i := uint64(0); i < 8; i++ {
		if data[ctrl+i] == ctrlEmpty {
			data[ctrl+i] = ctrlDeleted
			data[ctrl+8+i] = ctrlDeleted
		}
	}
	key := zerocopy.FixedKey(zerocopy.U64)
	r, err := Open(zerocopy.CopyAligned(data, 8), key, m)
	require.NoError(t, err)
	for k := uint64(1); k <= 7; k++ {
		v, ok, err := r.Get(k)
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, k+100, v)
	}
	_, ok, err := r.Get(1 << 40)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestConcurrentReaders(t *testing.T) {
	buf, m := buildSmall(t, 300)
	r, err := Open(buf, zerocopy.FixedKey(zerocopy.U64), m)
	require.NoError(t, err)

	var g errgroup.Group
	for w := 0; w < 8; w++ {
		g.Go(func() error {
			for k := uint64(1); k <= 300; k++ {
				v, ok, err := r.Get(k)
				if err != nil {
					return err
				}
				if !ok || v != k+100 {
					return fmt.Errorf("key %d: got %d, %t", k, v, ok)
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}

func TestAllReportsInvalidEntry(t *testing.T) {
	a := zerocopy.NewArena()
	key := zerocopy.FixedKey(zerocopy.U64)
	b := NewBuilder(a, key, zerocopy.Bool)
	for k := uint64(1); k <= 5; k++ {
		b.Insert(k, k%2 == 0)
	}
	m := b.Store()
	buf := a.Freeze()

	ctrl := buf.Bytes()[m.Ctrl.Offset() : m.Ctrl.Offset()+m.Ctrl.Len()]
	full := -1
	for i, c := range ctrl {
		if isFull(c) {
			full = i
			break
		}
	}
	require.GreaterOrEqual(t, full, 0)

	// a Pair[uint64, bool] is 16 bytes with the bool at offset 8
	corrupt := withByte(buf, m.Entries.Offset()+uint64(full)*16+8, 2)
	r, err := Open(corrupt, key, m)
	require.NoError(t, err)

	n := 0
	var iterErr error
	for _, err := range r.All() {
		if err != nil {
			iterErr = err
			continue
		}
		n++
	}
	require.Error(t, iterErr)
	require.Less(t, n, 5)
}

func TestProbeSeqVisitsEveryGroup(t *testing.T) {
	for _, buckets := range []uint64{8, 16, 64, 1024} {
		groups := buckets / groupWidth
		for _, h1 := range []uint64{0, 3, 13, buckets - 1} {
			mask := buckets - 1
			seen := make(map[uint64]bool)
			seq := newProbeSeq(h1, mask)
			for i := uint64(0); i < groups; i++ {
				dist := (seq.pos - h1&mask) & mask
				seen[dist/groupWidth] = true
				seq.next()
			}
			require.Len(t, seen, int(groups), "buckets=%d h1=%d", buckets, h1)
		}
	}
}
