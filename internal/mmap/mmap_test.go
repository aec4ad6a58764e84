// Copyright 2024 The zerocopy Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package mmap

import (
	"os"
	"path/filepath"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"
)

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data")
	contents := []byte("mapped bytes")
	require.NoError(t, os.WriteFile(path, contents, 0644))

	m, err := Open(path)
	require.NoError(t, err)
	require.Equal(t, contents, m.Data())
	require.Equal(t, len(contents), m.Len())
	require.NoError(t, m.AdviseRandom())

	addr := uintptr(unsafe.Pointer(unsafe.SliceData(m.Data())))
	require.Zero(t, addr%4096, "mapping should be page aligned")

	require.NoError(t, m.Close())
	require.Nil(t, m.Data())
	// second close is a no-op
	require.NoError(t, m.Close())
}

func TestOpenEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty")
	require.NoError(t, os.WriteFile(path, nil, 0644))

	m, err := Open(path)
	require.NoError(t, err)
	require.Zero(t, m.Len())
	require.NoError(t, m.AdviseRandom())
	require.NoError(t, m.Close())
}

func TestOpenMissing(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing"))
	require.ErrorIs(t, err, os.ErrNotExist)
}
