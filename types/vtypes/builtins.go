// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package vtypes

import (
	"unsafe"

	"github.com/gomlx/arrayfn/cgen"
	"github.com/x448/float16"
	"golang.org/x/exp/constraints"
)

// Supported are the Go types the built-in plain value types are made of.
// float16.Float16 is included through its uint16 representation.
type Supported interface {
	constraints.Integer | constraints.Float | ~bool
}

// plainOps implements both extensions for trivially relocatable types: copy,
// relocate and load/store are all a bitwise copy, and destruction is a no-op.
type plainOps[T Supported] struct{}

func (plainOps[T]) CopyIn(slot, src unsafe.Pointer)      { *(*T)(slot) = *(*T)(src) }
func (plainOps[T]) RelocateOut(slot, dst unsafe.Pointer) { *(*T)(dst) = *(*T)(slot) }
func (plainOps[T]) Destruct(slot unsafe.Pointer)         {}

func (plainOps[T]) EmitLoadCopy(b *cgen.Builder) cgen.Copier {
	return func(dst, src unsafe.Pointer) { *(*T)(dst) = *(*T)(src) }
}

func (plainOps[T]) EmitStoreRelocate(b *cgen.Builder) cgen.Copier {
	return func(dst, src unsafe.Pointer) { *(*T)(dst) = *(*T)(src) }
}

// PlainOf creates a type for a trivially relocatable Go type T, supporting
// both backends. It is not registered; call Register if the type should be
// resolvable by name.
func PlainOf[T Supported](name string) *Type {
	var zero T
	ops := plainOps[T]{}
	return New(name, unsafe.Sizeof(zero), ops, ops)
}

// Built-in plain types, all registered in the capability table.
var (
	Bool = Register(PlainOf[bool]("bool"))

	Int8  = Register(PlainOf[int8]("int8"))
	Int16 = Register(PlainOf[int16]("int16"))
	Int32 = Register(PlainOf[int32]("int32"))
	Int64 = Register(PlainOf[int64]("int64"))

	Uint8  = Register(PlainOf[uint8]("uint8"))
	Uint16 = Register(PlainOf[uint16]("uint16"))
	Uint32 = Register(PlainOf[uint32]("uint32"))
	Uint64 = Register(PlainOf[uint64]("uint64"))

	// Float16 elements are stored in the IEEE 754 binary16 representation
	// used by github.com/x448/float16.
	Float16 = Register(PlainOf[float16.Float16]("float16"))
	Float32 = Register(PlainOf[float32]("float32"))
	Float64 = Register(PlainOf[float64]("float64"))
)
