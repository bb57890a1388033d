// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package exec

import (
	"time"
	"unsafe"

	"github.com/gomlx/arrayfn"
	"github.com/gomlx/arrayfn/cgen"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// loopFunc is the fixed compiled loop convention, the same for every
// function regardless of arity: the index list, the raw per-parameter buffer
// pointer arrays and the opaque context pointer. All arity- and
// type-specific logic lives inside the composed loop, not in this signature.
// The index count travels in the slice header.
type loopFunc func(indices []int, inputs, outputs []unsafe.Pointer, ctx unsafe.Pointer)

// Compiled executes a function through a single specialized loop composed
// once at construction: per-type load/store micro-ops and the function's own
// materialized kernel are resolved at build time, so a call is one direct
// invocation with no per-index dispatch through this layer.
type Compiled struct {
	execution

	// unit keeps the compiled artifacts alive for the instance's lifetime.
	unit *cgen.Unit
	loop loopFunc
}

var _ ArrayExecution = (*Compiled)(nil)

// NewCompiled builds the compiled backend for the function. Compilation runs
// exactly once, here; it fails if the function has no codegen body, if a
// parameter type lacks the codegen extension, or if the body fails to
// materialize a kernel. Failure leaves no acquired compilation context
// behind.
func NewCompiled(f *arrayfn.Function) (*Compiled, error) {
	if f == nil {
		return nil, errors.New("exec.NewCompiled: nil function")
	}
	body := f.Codegen()
	if body == nil {
		return nil, errors.Errorf("exec.NewCompiled: function %s has no codegen body", f)
	}
	sig := f.Signature()
	for i := 0; i < sig.NumInputs(); i++ {
		if p := sig.Input(i); p.Type.Codegen() == nil {
			return nil, errors.Errorf("exec.NewCompiled: function %s input %q type %s has no codegen extension",
				f, p.Name, p.Type)
		}
	}
	for i := 0; i < sig.NumOutputs(); i++ {
		if p := sig.Output(i); p.Type.Codegen() == nil {
			return nil, errors.Errorf("exec.NewCompiled: function %s output %q type %s has no codegen extension",
				f, p.Name, p.Type)
		}
	}

	e := &Compiled{execution: newExecution(f)}
	start := time.Now()

	// The compilation context is scarce and shared; the deferred Release also
	// discards the open unit if the build fails partway.
	cctx := cgen.Acquire()
	defer cgen.Release(cctx)
	unit := cctx.NewUnit(f.Name() + " (array execution)")

	loop, err := e.buildLoop(unit, body)
	if err != nil {
		return nil, errors.WithMessagef(err, "compiling array execution for %s", f)
	}
	unit.Finalize()
	e.unit = unit
	e.loop = loop

	if klog.V(1).Enabled() {
		klog.Infof("arrayfn: compiled %s in %s (%d kernels)", unit, time.Since(start), unit.NumKernels())
	}
	return e, nil
}

// buildLoop composes the loop: resolve per-parameter load/store micro-ops,
// lay out the input and output value aggregates, materialize the function's
// kernel inside the unit, and close everything over one loop closure.
func (e *Compiled) buildLoop(unit *cgen.Unit, body arrayfn.CodegenBody) (loopFunc, error) {
	sig := e.fn.Signature()
	settings := cgen.DefaultSettings()
	b := unit.NewBuilder(settings)

	loads := make([]cgen.Copier, sig.NumInputs())
	for i := range loads {
		loads[i] = sig.Input(i).Type.Codegen().EmitLoadCopy(b)
		b.SetName(sig.Input(i).Name)
	}
	stores := make([]cgen.Copier, sig.NumOutputs())
	for i := range stores {
		stores[i] = sig.Output(i).Type.Codegen().EmitStoreRelocate(b)
		b.SetName(sig.Output(i).Name)
	}

	// The alloca analog: fixed layouts for the loaded input values and the
	// single aggregate result the kernel fills in.
	inAgg := b.NewAggregate(e.inputSizes)
	outAgg := b.NewAggregate(e.outputSizes)

	// Materialize the function's own code inside this same unit, with a
	// fresh per-build cache so repeated materialization is deduplicated.
	kernel := body.EmitKernel(unit, e.fn.Name(), settings, cgen.NewFuncCache())
	if kernel == nil {
		return nil, errors.Errorf("codegen body %T produced no kernel", body)
	}

	inputSizes := e.inputSizes
	outputSizes := e.outputSizes
	loop := func(indices []int, inputs, outputs []unsafe.Pointer, ctx unsafe.Pointer) {
		// Entry: reinterpret the raw buffer pointers as strided pointers, so
		// indexed addressing multiplies by the element size.
		inPtrs := make([]cgen.StridedPtr, len(inputSizes))
		for i, size := range inputSizes {
			inPtrs[i] = cgen.CastToPointerWithStride(inputs[i], size)
		}
		outPtrs := make([]cgen.StridedPtr, len(outputSizes))
		for i, size := range outputSizes {
			outPtrs[i] = cgen.CastToPointerWithStride(outputs[i], size)
		}

		// Value storage for the whole batch, one slot per parameter.
		inBase := inAgg.Alloc()
		inSlots := make([]unsafe.Pointer, inAgg.NumFields())
		for i := range inSlots {
			inSlots[i] = inAgg.Field(inBase, i)
		}
		outBase := outAgg.Alloc()

		for _, index := range indices {
			for i := range loads {
				loads[i](inSlots[i], inPtrs[i].At(index))
			}
			kernel(inSlots, outBase, ctx)
			for i := range stores {
				stores[i](outPtrs[i].At(index), outAgg.Field(outBase, i))
			}
		}
	}
	return loop, nil
}

// Call implements ArrayExecution: arity asserts, then a single direct
// invocation of the loop compiled at construction.
func (e *Compiled) Call(indices []int, inputs []unsafe.Pointer, outputs []unsafe.Pointer, ctx *arrayfn.Context) {
	e.assertArity(inputs, outputs)
	e.loop(indices, inputs, outputs, unsafe.Pointer(ctx))
}

// Unit returns the compilation unit holding the compiled loop, for
// inspection and diagnostics.
func (e *Compiled) Unit() *cgen.Unit { return e.unit }
