// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package cgen

import (
	"unsafe"

	"github.com/gomlx/exceptions"
)

// Builder emits the pieces a compiled loop is composed of: strided pointer
// casts, trivial copiers and aggregate layouts. It is tied to an open Unit.
type Builder struct {
	unit     *Unit
	settings Settings
}

// NewBuilder creates a builder for the unit. It panics if the unit is already
// finalized.
func (u *Unit) NewBuilder(settings Settings) *Builder {
	if u.finalized {
		exceptions.Panicf("cgen: unit %q is finalized, cannot create builder", u.name)
	}
	return &Builder{unit: u, settings: settings}
}

// Unit returns the unit the builder emits into.
func (b *Builder) Unit() *Unit { return b.unit }

// StridedPtr is a typed pointer with a fixed element stride: indexed
// addressing through it multiplies by the stride automatically, the analog of
// a pointer to a sized element type.
type StridedPtr struct {
	base   unsafe.Pointer
	stride uintptr
}

// CastToPointerWithStride reinterprets a raw pointer as a strided pointer
// with the given element size. It is a free function rather than a Builder
// method because generated code executes it at call time, when buffer
// pointers are first known.
func CastToPointerWithStride(p unsafe.Pointer, stride uintptr) StridedPtr {
	return StridedPtr{base: p, stride: stride}
}

// At returns the address of the element at the given index.
func (p StridedPtr) At(index int) unsafe.Pointer {
	return unsafe.Add(p.base, uintptr(index)*p.stride)
}

// Stride returns the element stride in bytes.
func (p StridedPtr) Stride() uintptr { return p.stride }

// SetName records a name for an emitted value when the build runs with
// Settings.DebugNames; otherwise it is a no-op.
func (b *Builder) SetName(name string) {
	if b.settings.DebugNames {
		b.unit.valueNames = append(b.unit.valueNames, name)
	}
}

// EmitCopy emits a bitwise copier for elements of the given size. Small
// power-of-two sizes get direct loads/stores; anything else falls back to a
// byte copy.
func (b *Builder) EmitCopy(size uintptr) Copier {
	switch size {
	case 1:
		return func(dst, src unsafe.Pointer) { *(*uint8)(dst) = *(*uint8)(src) }
	case 2:
		return func(dst, src unsafe.Pointer) { *(*uint16)(dst) = *(*uint16)(src) }
	case 4:
		return func(dst, src unsafe.Pointer) { *(*uint32)(dst) = *(*uint32)(src) }
	case 8:
		return func(dst, src unsafe.Pointer) { *(*uint64)(dst) = *(*uint64)(src) }
	default:
		return func(dst, src unsafe.Pointer) {
			copy(unsafe.Slice((*byte)(dst), size), unsafe.Slice((*byte)(src), size))
		}
	}
}

// Aggregate describes the layout of a value-set packed into one contiguous
// allocation: the compiled analog of a struct holding one field per
// parameter. Field i lives at a fixed, aligned offset.
type Aggregate struct {
	offsets []uintptr
	size    uintptr
}

// NewAggregate lays out an aggregate with one field per given element size.
func (b *Builder) NewAggregate(sizes []uintptr) *Aggregate {
	agg := &Aggregate{offsets: make([]uintptr, len(sizes))}
	var offset uintptr
	for i, size := range sizes {
		align := alignFor(size)
		offset = (offset + align - 1) &^ (align - 1)
		agg.offsets[i] = offset
		offset += size
	}
	agg.size = (offset + 7) &^ 7
	return agg
}

// alignFor picks the alignment for a field of the given size.
func alignFor(size uintptr) uintptr {
	switch {
	case size >= 8:
		return 8
	case size >= 4:
		return 4
	case size >= 2:
		return 2
	default:
		return 1
	}
}

// NumFields returns the number of fields in the aggregate.
func (a *Aggregate) NumFields() int { return len(a.offsets) }

// Size returns the total aggregate size in bytes.
func (a *Aggregate) Size() uintptr { return a.size }

// Field returns the address of field i inside an aggregate allocated at base.
// The extract-value analog.
func (a *Aggregate) Field(base unsafe.Pointer, i int) unsafe.Pointer {
	return unsafe.Add(base, a.offsets[i])
}

// Alloc returns a zeroed allocation sized for the aggregate. The returned
// memory is garbage collected normally.
func (a *Aggregate) Alloc() unsafe.Pointer {
	if a.size == 0 {
		// Zero-field aggregates still need a valid pointer.
		return unsafe.Pointer(&struct{}{})
	}
	storage := make([]byte, a.size)
	return unsafe.Pointer(&storage[0])
}
