// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package arrayfn

// Context is the opaque side channel forwarded unchanged through every
// element call, for state and diagnostics outside the engine's concern: the
// engine never reads or writes it, it only passes the pointer through.
//
// Data is free for the caller and function bodies to agree on. The error
// sink is a convenience for bodies that want to record per-element
// diagnostics instead of panicking; the engine neither inspects nor clears
// it.
//
// A compiled kernel receives the context as an unsafe.Pointer and may cast
// it back to *Context.
type Context struct {
	// Data is arbitrary caller state visible to function bodies.
	Data any

	errs []error
}

// RecordError appends a diagnostic reported by a function body.
func (c *Context) RecordError(err error) {
	c.errs = append(c.errs, err)
}

// Errors returns the diagnostics recorded so far, in order.
func (c *Context) Errors() []error {
	return c.errs
}
