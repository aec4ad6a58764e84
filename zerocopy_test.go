// Copyright 2024 The zerocopy Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package zerocopy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

type person struct {
	Age  uint8
	Name Unsized[string]
}

func personLayout(w Width) *StructLayout[person] {
	return StructOf(
		FieldOf("age", U8,
			func(p *person) uint8 { return p.Age },
			func(p *person, v uint8) { p.Age = v }),
		FieldOf[person, Unsized[string]]("name", UnsizedOf(Str, w),
			func(p *person) Unsized[string] { return p.Name },
			func(p *person, v Unsized[string]) { p.Name = v }),
	)
}

func storePerson(a *Arena, age uint8, name string) Ref[person] {
	return Store(a, personLayout(a.Width()), person{Age: age, Name: StoreString(a, name)})
}

func TestStoreLoadPerson(t *testing.T) {
	a := NewArena()
	r := storePerson(a, 35, "John-John")
	buf := a.Freeze()

	p, err := Load(buf, r)
	require.NoError(t, err)
	require.Equal(t, uint8(35), p.Age)

	name, err := LoadUnsized(buf, p.Name)
	require.NoError(t, err)
	require.Equal(t, "John-John", name)
}

func TestPersonLayout(t *testing.T) {
	l := personLayout(Width32)
	require.Equal(t, 12, l.Size())
	require.Equal(t, 4, l.Align())
	require.True(t, l.Padded())
	require.Equal(t, 0, l.Offset("age"))
	require.Equal(t, 4, l.Offset("name"))
	require.Equal(t, -1, l.Offset("missing"))

	// padding between fields is written as zeros
	a := NewArena()
	for i := 0; i < 3; i++ {
		a.ExtendFromSlice([]byte{0xff})
	}
	r := storePerson(a, 1, "x")
	p := a.Bytes()[r.Offset():]
	require.Equal(t, []byte{1, 0, 0, 0}, p[:4])
}

func TestSliceLengthOverflow(t *testing.T) {
	raw := make([]byte, 16)
	Little.Binary().PutUint64(raw[0:8], 0)
	Little.Binary().PutUint64(raw[8:16], math.MaxUint64)
	buf := CopyAligned(raw, 8)

	// validating a stored slice reference rejects it
	l := SliceOf(U64, Width64, Little)
	_, err := Load(buf, NewRefWith[Slice[uint64]](l, Width64, Little, 0))
	require.ErrorIs(t, err, ErrLengthOverflow)

	// as does loading a slice constructed directly
	s := NewSliceWith(U64, Width64, Little, 0, math.MaxUint64)
	_, err = LoadSlice(buf, s)
	require.ErrorIs(t, err, ErrLengthOverflow)
	var overflow *LengthOverflowError
	require.ErrorAs(t, err, &overflow)
	require.Equal(t, uint64(math.MaxUint64), overflow.Len)
	require.Equal(t, 8, overflow.ElemSize)

	_, err = LoadSliceLazy(buf, s)
	require.ErrorIs(t, err, ErrLengthOverflow)
}

func TestReferenceConstructionPanics(t *testing.T) {
	assert.Panics(t, func() { NewSlice(U64, 0, 1<<40) })
	assert.Panics(t, func() { NewRef(U8, 1<<32) })
	assert.Panics(t, func() { NewRefWith(U8, Width16, Native, 1<<16) })
	assert.Panics(t, func() { NewUnsizedWith(Str, Width16, 0, 1<<16) })
	assert.NotPanics(t, func() { NewRefWith(U8, Width64, Native, math.MaxUint64) })
}

func TestConcurrentLoads(t *testing.T) {
	a := NewArena()
	var refs []Ref[person]
	for i := 0; i < 100; i++ {
		refs = append(refs, storePerson(a, uint8(i), string(rune('a'+i%26))))
	}
	buf := a.Freeze()

	var g errgroup.Group
	for i := 0; i < 8; i++ {
		g.Go(func() error {
			for j, r := range refs {
				p, err := Load(buf, r)
				if err != nil {
					return err
				}
				name, err := LoadUnsized(buf, p.Name)
				if err != nil {
					return err
				}
				if int(p.Age) != j || name != string(rune('a'+j%26)) {
					return assert.AnError
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())
}
