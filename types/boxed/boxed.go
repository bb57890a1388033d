// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package boxed implements the type-erased value tuple used by the
// interpreted calling convention: one fixed-arity container holding one
// value slot per parameter, passed by value across a uniform call signature.
//
// A Tuple tracks per-slot initialization so it can be reused across
// iterations: relocating a value out returns the slot to the uninitialized
// state, and copying into an already initialized slot destructs the old
// value first.
package boxed

import (
	"unsafe"

	"github.com/gomlx/arrayfn/types/vtypes"
	"github.com/gomlx/exceptions"
)

// Layout is the slot layout shared by all tuples of one signature side:
// per-slot aligned offsets into a single backing allocation. Computed once
// and immutable.
type Layout struct {
	types   []*vtypes.Type
	offsets []uintptr
	size    uintptr
}

// NewLayout computes the layout for the given slot types. Every type must
// carry the boxed extension.
func NewLayout(types ...*vtypes.Type) *Layout {
	l := &Layout{
		types:   types,
		offsets: make([]uintptr, len(types)),
	}
	var offset uintptr
	for i, t := range types {
		if t.Boxed() == nil {
			exceptions.Panicf("boxed.NewLayout: type %q has no boxed extension", t.Name())
		}
		align := alignFor(t.Size())
		offset = (offset + align - 1) &^ (align - 1)
		l.offsets[i] = offset
		offset += t.Size()
	}
	l.size = offset
	return l
}

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

// NumSlots returns the arity of the layout.
func (l *Layout) NumSlots() int { return len(l.types) }

// Type returns the type of slot i.
func (l *Layout) Type(i int) *vtypes.Type { return l.types[i] }

// Size returns the total backing size in bytes.
func (l *Layout) Size() uintptr { return l.size }

// Tuple is one value set: backing storage plus per-slot initialization
// flags. Not safe for concurrent use.
type Tuple struct {
	layout      *Layout
	storage     []byte
	initialized []bool
}

// New allocates an empty (all slots uninitialized) tuple for the layout.
func New(l *Layout) *Tuple {
	t := &Tuple{
		layout:      l,
		initialized: make([]bool, l.NumSlots()),
	}
	if l.size > 0 {
		t.storage = make([]byte, l.size)
	}
	return t
}

// Layout returns the tuple's layout.
func (t *Tuple) Layout() *Layout { return t.layout }

func (t *Tuple) slot(i int) unsafe.Pointer {
	return unsafe.Pointer(&t.storage[t.layout.offsets[i]])
}

// IsInitialized reports whether slot i currently holds a value.
func (t *Tuple) IsInitialized(i int) bool { return t.initialized[i] }

// CopyIn constructs the value of slot i from the raw element bytes at src,
// destructing any value previously held by the slot.
func (t *Tuple) CopyIn(i int, src unsafe.Pointer) {
	ops := t.layout.types[i].Boxed()
	slot := t.slot(i)
	if t.initialized[i] {
		ops.Destruct(slot)
	}
	ops.CopyIn(slot, src)
	t.initialized[i] = true
}

// RelocateOut moves the value of slot i to dst, returning the slot to the
// uninitialized state so the tuple can be reused. Panics if the slot holds
// no value.
func (t *Tuple) RelocateOut(i int, dst unsafe.Pointer) {
	if !t.initialized[i] {
		exceptions.Panicf("boxed.Tuple.RelocateOut: slot %d (%s) is not initialized", i, t.layout.types[i].Name())
	}
	t.layout.types[i].Boxed().RelocateOut(t.slot(i), dst)
	t.initialized[i] = false
}

// Clear destructs every initialized slot, leaving the tuple empty.
func (t *Tuple) Clear() {
	for i, init := range t.initialized {
		if init {
			t.layout.types[i].Boxed().Destruct(t.slot(i))
			t.initialized[i] = false
		}
	}
}

// Set stores a typed value into slot i. T must have exactly the slot type's
// size and be trivially relocatable; it is meant for function bodies and
// tests working with plain types.
func Set[T any](t *Tuple, i int, value T) {
	var zero T
	if unsafe.Sizeof(zero) != t.layout.types[i].Size() {
		exceptions.Panicf("boxed.Set: value size %d != slot %d (%s) size %d",
			unsafe.Sizeof(zero), i, t.layout.types[i].Name(), t.layout.types[i].Size())
	}
	slot := t.slot(i)
	if t.initialized[i] {
		t.layout.types[i].Boxed().Destruct(slot)
	}
	*(*T)(slot) = value
	t.initialized[i] = true
}

// Get reads the typed value of slot i without moving it out. Same
// constraints as Set; panics if the slot is uninitialized.
func Get[T any](t *Tuple, i int) T {
	var zero T
	if unsafe.Sizeof(zero) != t.layout.types[i].Size() {
		exceptions.Panicf("boxed.Get: value size %d != slot %d (%s) size %d",
			unsafe.Sizeof(zero), i, t.layout.types[i].Name(), t.layout.types[i].Size())
	}
	if !t.initialized[i] {
		exceptions.Panicf("boxed.Get: slot %d (%s) is not initialized", i, t.layout.types[i].Name())
	}
	return *(*T)(t.slot(i))
}
