// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package exec

import (
	"unsafe"

	"github.com/gomlx/arrayfn"
	"github.com/gomlx/arrayfn/types/boxed"
	"github.com/gomlx/arrayfn/types/vtypes"
	"github.com/pkg/errors"
)

// Interpreted executes any function with a boxed-call body, at the cost of
// one boxed call per index.
type Interpreted struct {
	execution

	body                arrayfn.BoxedCallBody
	inLayout, outLayout *boxed.Layout
}

var _ ArrayExecution = (*Interpreted)(nil)

// NewInterpreted builds the interpreted backend for the function. It fails
// if the function has no boxed-call body or an input/output type lacks the
// boxed extension.
func NewInterpreted(f *arrayfn.Function) (*Interpreted, error) {
	if f == nil {
		return nil, errors.New("exec.NewInterpreted: nil function")
	}
	body := f.BoxedCall()
	if body == nil {
		return nil, errors.Errorf("exec.NewInterpreted: function %s has no boxed-call body", f)
	}
	sig := f.Signature()
	for i := 0; i < sig.NumInputs(); i++ {
		if p := sig.Input(i); p.Type.Boxed() == nil {
			return nil, errors.Errorf("exec.NewInterpreted: function %s input %q type %s has no boxed extension",
				f, p.Name, p.Type)
		}
	}
	for i := 0; i < sig.NumOutputs(); i++ {
		if p := sig.Output(i); p.Type.Boxed() == nil {
			return nil, errors.Errorf("exec.NewInterpreted: function %s output %q type %s has no boxed extension",
				f, p.Name, p.Type)
		}
	}
	return &Interpreted{
		execution: newExecution(f),
		body:      body,
		inLayout:  boxed.NewLayout(inputTypes(sig)...),
		outLayout: boxed.NewLayout(outputTypes(sig)...),
	}, nil
}

func inputTypes(sig *arrayfn.Signature) []*vtypes.Type {
	result := make([]*vtypes.Type, sig.NumInputs())
	for i := range result {
		result[i] = sig.Input(i).Type
	}
	return result
}

func outputTypes(sig *arrayfn.Signature) []*vtypes.Type {
	result := make([]*vtypes.Type, sig.NumOutputs())
	for i := range result {
		result[i] = sig.Output(i).Type
	}
	return result
}

// Call implements ArrayExecution.
func (e *Interpreted) Call(indices []int, inputs []unsafe.Pointer, outputs []unsafe.Pointer, ctx *arrayfn.Context) {
	e.assertArity(inputs, outputs)

	// Scratch tuples are allocated once per call and reused across the whole
	// batch: relocating the outputs returns their slots to the uninitialized
	// state on every iteration.
	fnIn := boxed.New(e.inLayout)
	fnOut := boxed.New(e.outLayout)
	defer fnIn.Clear()

	for _, index := range indices {
		for i, size := range e.inputSizes {
			ptr := unsafe.Add(inputs[i], uintptr(index)*size)
			fnIn.CopyIn(i, ptr)
		}

		e.body.CallBoxed(fnIn, fnOut, ctx)

		for i, size := range e.outputSizes {
			ptr := unsafe.Add(outputs[i], uintptr(index)*size)
			fnOut.RelocateOut(i, ptr)
		}
	}
}
