// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package exec

import (
	"unsafe"

	"github.com/gomlx/exceptions"
)

// BufferOf returns the raw buffer pointer for a Go slice, for callers whose
// element buffers are ordinary slices. The slice must be non-empty, must hold
// at least maxIndex+1 elements for every index later passed to Call, and must
// be kept alive by the caller for the duration of the call -- the engine
// never retains the pointer past a single Call.
func BufferOf[T any](s []T) unsafe.Pointer {
	if len(s) == 0 {
		exceptions.Panicf("exec.BufferOf: empty slice cannot back a buffer")
	}
	return unsafe.Pointer(&s[0])
}

// Buffers is a convenience to build the per-parameter pointer array from
// already-pinned raw pointers.
func Buffers(ptrs ...unsafe.Pointer) []unsafe.Pointer {
	return ptrs
}
