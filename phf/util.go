// Copyright 2024 The zerocopy Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package phf

import (
	"github.com/bpowers/zerocopy/internal/unsafestring"
)

// stringSet records canonical key bytes to detect duplicates.
type stringSet map[string]struct{}

func (s stringSet) Add(b []byte) {
	s[string(b)] = struct{}{}
}

func (s stringSet) Contains(b []byte) bool {
	_, ok := s[unsafestring.FromBytes(b)]
	return ok
}
