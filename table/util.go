// Copyright 2024 The zerocopy Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package table

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
)

// special case of SplitN that doesn't require allocation
func split2(s []byte, sep byte) (l []byte, r []byte, ok bool) {
	m := bytes.IndexByte(s, sep)
	if m < 0 {
		return nil, nil, false
	}

	l = s[:m]
	r = s[m+1:]
	ok = true
	return
}

// PutLines adds one pair per line of r, where each line is a key and value
// separated by the first sep.  It returns the number of pairs added.
func (b *Builder) PutLines(r io.Reader, sep byte) (int, error) {
	s := bufio.NewScanner(bufio.NewReaderSize(r, 16*1024))
	s.Buffer(make([]byte, 64*1024), 16*1024*1024)
	n := 0
	for s.Scan() {
		line := s.Bytes()
		k, v, ok := split2(line, sep)
		if !ok {
			return n, fmt.Errorf("table.PutLines: line %d: missing %q separator", n+1, sep)
		}
		if err := b.Put(k, v); err != nil {
			return n, err
		}
		n++
	}
	if err := s.Err(); err != nil {
		return n, fmt.Errorf("bufio.Scanner: %w", err)
	}
	return n, nil
}
