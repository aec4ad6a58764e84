// Copyright 2024 The zerocopy Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package zerocopy

import (
	"math/bits"

	"github.com/cockroachdb/errors"
)

// MaxAlign is the largest alignment a layout or arena may request.
const MaxAlign = 4096

// invariantf panics with an assertion failure.  It is reserved for contract
// violations by the writer of a buffer, never for bad buffer contents.
func invariantf(format string, args ...interface{}) {
	panic(errors.AssertionFailedf(format, args...))
}

func checkAlign(align int) {
	if align <= 0 || align > MaxAlign || bits.OnesCount(uint(align)) != 1 {
		invariantf("alignment %d must be a power of two <= %d", align, MaxAlign)
	}
}

// alignUp rounds n up to a multiple of align, which must be a power of two.
func alignUp(n, align int) int {
	return (n + align - 1) &^ (align - 1)
}
