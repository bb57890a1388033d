// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package arrayfn

import (
	"fmt"
	"strings"

	"github.com/gomlx/arrayfn/cgen"
	"github.com/gomlx/arrayfn/types/boxed"
	"github.com/gomlx/arrayfn/types/vtypes"
	"github.com/gomlx/exceptions"
)

// Parameter is one input or output slot of a function signature. The name is
// used for diagnostics only.
type Parameter struct {
	Name string
	Type *vtypes.Type
}

// Param is a convenience constructor for Parameter.
func Param(name string, t *vtypes.Type) Parameter {
	return Parameter{Name: name, Type: t}
}

// Signature is the immutable ordered description of a function's input and
// output parameters.
type Signature struct {
	inputs, outputs []Parameter
}

// NewSignature builds a signature from input and output parameters. All
// parameter types must be set.
func NewSignature(inputs, outputs []Parameter) *Signature {
	for _, p := range inputs {
		if p.Type == nil {
			exceptions.Panicf("arrayfn.NewSignature: input %q has nil type", p.Name)
		}
	}
	for _, p := range outputs {
		if p.Type == nil {
			exceptions.Panicf("arrayfn.NewSignature: output %q has nil type", p.Name)
		}
	}
	return &Signature{inputs: inputs, outputs: outputs}
}

// NumInputs returns the input arity.
func (s *Signature) NumInputs() int { return len(s.inputs) }

// NumOutputs returns the output arity.
func (s *Signature) NumOutputs() int { return len(s.outputs) }

// Input returns the i-th input parameter.
func (s *Signature) Input(i int) Parameter { return s.inputs[i] }

// Output returns the i-th output parameter.
func (s *Signature) Output(i int) Parameter { return s.outputs[i] }

// String implements fmt.Stringer.
func (s *Signature) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, p := range s.inputs {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s %s", p.Name, p.Type)
	}
	b.WriteString(") -> (")
	for i, p := range s.outputs {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s %s", p.Name, p.Type)
	}
	b.WriteByte(')')
	return b.String()
}

// Body is an execution body attached to a Function. A body implements at
// least one of the capability interfaces BoxedCallBody or CodegenBody; one
// body object may implement both.
type Body any

// BoxedCallBody is the capability driving the interpreted backend: evaluate
// the function once, reading inputs from and writing outputs to boxed value
// tuples.
//
// On entry every input slot is initialized and every output slot is empty;
// on return the body must have initialized every output slot. Failures are
// reported through whatever convention the body defines -- typically the
// Context error sink or a panic; the engine forwards ctx untouched and
// intercepts nothing.
type BoxedCallBody interface {
	CallBoxed(in, out *boxed.Tuple, ctx *Context)
}

// CodegenBody is the capability driving the compiled backend: materialize the
// function's logic as a kernel inside the given compilation unit.
//
// The kernel must follow the cgen.Kernel convention: read each loaded input
// value through inputs[k], write each output into its slot of the result
// aggregate, and treat ctx as the same opaque pointer a boxed call would
// receive as *Context. Implementations should materialize through the cache
// so shared sub-bodies are built once per unit.
type CodegenBody interface {
	EmitKernel(unit *cgen.Unit, name string, settings cgen.Settings, cache *cgen.FuncCache) cgen.Kernel
}

// Function is the immutable, shared description of one typed fixed-arity
// computation plus its execution bodies. Created once, then only read.
type Function struct {
	name    string
	sig     *Signature
	boxed   BoxedCallBody
	codegen CodegenBody
}

// NewFunction creates a function with the given bodies. At least one body
// must be given, and each must implement at least one capability; attaching
// two bodies with the same capability panics.
func NewFunction(name string, sig *Signature, bodies ...Body) *Function {
	if sig == nil {
		exceptions.Panicf("arrayfn.NewFunction(%q): nil signature", name)
	}
	if len(bodies) == 0 {
		exceptions.Panicf("arrayfn.NewFunction(%q): at least one body required", name)
	}
	f := &Function{name: name, sig: sig}
	for _, body := range bodies {
		known := false
		if b, ok := body.(BoxedCallBody); ok {
			if f.boxed != nil {
				exceptions.Panicf("arrayfn.NewFunction(%q): duplicate boxed-call body", name)
			}
			f.boxed = b
			known = true
		}
		if b, ok := body.(CodegenBody); ok {
			if f.codegen != nil {
				exceptions.Panicf("arrayfn.NewFunction(%q): duplicate codegen body", name)
			}
			f.codegen = b
			known = true
		}
		if !known {
			exceptions.Panicf("arrayfn.NewFunction(%q): body %T implements no capability", name, body)
		}
	}
	return f
}

// Name returns the function name, used for diagnostics and unit naming.
func (f *Function) Name() string { return f.name }

// String implements fmt.Stringer.
func (f *Function) String() string {
	return fmt.Sprintf("%s%s", f.name, f.sig)
}

// Signature returns the function's signature.
func (f *Function) Signature() *Signature { return f.sig }

// BoxedCall returns the boxed-call body, or nil if the function does not
// support the interpreted backend.
func (f *Function) BoxedCall() BoxedCallBody { return f.boxed }

// Codegen returns the codegen body, or nil if the function does not support
// the compiled backend.
func (f *Function) Codegen() CodegenBody { return f.codegen }
