// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package vtypes describes the value types an array-executed function reads
// and writes: a fixed element size plus two optional per-type behavior
// extensions, one for the boxed (interpreted) calling convention and one for
// code generation.
//
// Types are looked up through a registry keyed by name -- a capability table
// indexed by type identity, so the execution engine never switches on
// concrete types itself.
package vtypes

import (
	"sync"
	"unsafe"

	"github.com/gomlx/arrayfn/cgen"
	"github.com/gomlx/exceptions"
)

// BoxedOps is the generic-call extension of a type: how to move one value of
// the type into and out of a type-erased tuple slot.
//
// Slots carry values by bytes; for types owning resources the three
// operations define construct/move/destroy semantics. All operations are
// total: there is no failure mode.
type BoxedOps interface {
	// CopyIn constructs the value at slot from the raw element bytes at src.
	// The slot is uninitialized when called; overwriting an initialized slot
	// is handled by the tuple, which destructs first.
	CopyIn(slot, src unsafe.Pointer)

	// RelocateOut moves the value from slot to dst. After it returns the slot
	// is uninitialized again and must not be destructed.
	RelocateOut(slot, dst unsafe.Pointer)

	// Destruct releases the value at slot without moving it anywhere.
	Destruct(slot unsafe.Pointer)
}

// CodegenOps is the code-generation extension of a type: how to emit the
// load and store micro-ops for values of the type inside a compiled loop.
//
// Loads are by copy and the emitted kernel must fully consume every loaded
// value; stores relocate ownership into the destination buffer. The engine
// never destructs loaded inputs between iterations, so a resource-owning
// type must make its kernel consume its inputs.
type CodegenOps interface {
	// EmitLoadCopy emits the load-by-copy micro-op: dst is a value slot, src
	// is an element address inside an input buffer.
	EmitLoadCopy(b *cgen.Builder) cgen.Copier

	// EmitStoreRelocate emits the store-by-relocate micro-op: dst is an
	// element address inside an output buffer, src is a value slot whose
	// ownership transfers to the buffer.
	EmitStoreRelocate(b *cgen.Builder) cgen.Copier
}

// Type is the immutable description of one parameter value type.
type Type struct {
	name    string
	size    uintptr
	boxed   BoxedOps
	codegen CodegenOps
}

// New creates a type with the given element size and extensions. Either
// extension may be nil, in which case the corresponding backend cannot use
// the type. The size must be positive.
func New(name string, size uintptr, boxed BoxedOps, codegen CodegenOps) *Type {
	if size == 0 {
		exceptions.Panicf("vtypes.New(%q): element size must be > 0", name)
	}
	return &Type{name: name, size: size, boxed: boxed, codegen: codegen}
}

// Name returns the type's human-readable name, used for diagnostics only.
func (t *Type) Name() string { return t.name }

// String implements fmt.Stringer.
func (t *Type) String() string { return t.name }

// Size returns the fixed per-element byte size, constant for the lifetime of
// the type. Buffer strides are computed from it.
func (t *Type) Size() uintptr { return t.size }

// Boxed returns the generic-call extension, or nil if the type does not
// support the boxed convention.
func (t *Type) Boxed() BoxedOps { return t.boxed }

// Codegen returns the code-generation extension, or nil if the type cannot
// be used by the compiled backend.
func (t *Type) Codegen() CodegenOps { return t.codegen }

var (
	muRegistry sync.Mutex
	registry   = make(map[string]*Type)
)

// Register adds the type to the global capability table. Registering two
// types under the same name panics. It returns t, so it can be used in
// variable initialization.
func Register(t *Type) *Type {
	muRegistry.Lock()
	defer muRegistry.Unlock()
	if _, found := registry[t.name]; found {
		exceptions.Panicf("vtypes.Register: type %q already registered", t.name)
	}
	registry[t.name] = t
	return t
}

// ByName looks a type up in the capability table. It returns nil if no type
// was registered under the name.
func ByName(name string) *Type {
	muRegistry.Lock()
	defer muRegistry.Unlock()
	return registry[name]
}
