// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package exec executes an arrayfn.Function once per element over flat,
// densely packed buffers: one buffer per parameter, each holding consecutive
// fixed-size elements, addressed by a caller-supplied index list.
//
// Two interchangeable backends implement the same ArrayExecution contract
// with identical observable behavior: the interpreted backend drives the
// boxed calling convention once per index, and the compiled backend composes
// a single specialized loop closure at construction time and invokes it
// directly on every call.
package exec

import (
	"unsafe"

	"github.com/gomlx/arrayfn"
	"github.com/gomlx/exceptions"
	"github.com/pkg/errors"
)

// ArrayExecution is the uniform entry point both backends implement.
type ArrayExecution interface {
	// Function returns the function this execution was built from.
	Function() *arrayfn.Function

	// Call evaluates the function once per index, in the order given,
	// reading the element at buffer offset index*elementSize from each input
	// buffer and writing the results at the same offset into each output
	// buffer. Duplicate indices are processed as many times as listed; an
	// empty index list is a no-op.
	//
	// len(inputs) and len(outputs) must match the function's arities; this
	// is asserted. Buffer capacities are NOT tracked or checked: the caller
	// must guarantee every buffer holds at least maxIndex+1 elements.
	//
	// ctx is forwarded opaquely to the function body. A single instance must
	// not be used for concurrent Call invocations.
	Call(indices []int, inputs []unsafe.Pointer, outputs []unsafe.Pointer, ctx *arrayfn.Context)
}

// New builds the execution backend for the function, selected by capability:
// the compiled backend if the function carries a codegen body, otherwise the
// interpreted backend if it carries a boxed-call body. It fails if the
// function declares neither capability, or if compilation fails.
func New(f *arrayfn.Function) (ArrayExecution, error) {
	if f == nil {
		return nil, errors.New("exec.New: nil function")
	}
	if f.Codegen() != nil {
		return NewCompiled(f)
	}
	if f.BoxedCall() != nil {
		return NewInterpreted(f)
	}
	return nil, errors.Errorf("exec.New: function %s declares no execution capability", f)
}

// execution is the shared base of both backends: the function reference and
// the element-size tables, both fixed at construction.
type execution struct {
	fn          *arrayfn.Function
	inputSizes  []uintptr
	outputSizes []uintptr
}

func newExecution(f *arrayfn.Function) execution {
	sig := f.Signature()
	e := execution{
		fn:          f,
		inputSizes:  make([]uintptr, sig.NumInputs()),
		outputSizes: make([]uintptr, sig.NumOutputs()),
	}
	for i := range e.inputSizes {
		e.inputSizes[i] = sig.Input(i).Type.Size()
	}
	for i := range e.outputSizes {
		e.outputSizes[i] = sig.Output(i).Type.Size()
	}
	return e
}

// Function returns the function this execution was built from.
func (e *execution) Function() *arrayfn.Function { return e.fn }

// assertArity is the cheap call-entry check: buffer counts must match the
// declared signature. Buffer capacities are deliberately not checked.
func (e *execution) assertArity(inputs, outputs []unsafe.Pointer) {
	if len(inputs) != len(e.inputSizes) {
		exceptions.Panicf("exec: function %s expects %d input buffers, got %d",
			e.fn, len(e.inputSizes), len(inputs))
	}
	if len(outputs) != len(e.outputSizes) {
		exceptions.Panicf("exec: function %s expects %d output buffers, got %d",
			e.fn, len(e.outputSizes), len(outputs))
	}
}
