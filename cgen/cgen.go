// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package cgen is the code-emission toolkit used by the compiled array-execution
// backend.
//
// Code generation here means closure composition: instead of emitting machine
// instructions, a build produces small monomorphic Go closures (Copier, Kernel)
// that are composed once and then invoked with no further dispatch. All the
// type- and arity-dependent decisions are resolved at build time.
//
// Builds happen against a Context, a scarce shared resource: only one
// compilation Unit may be open per Context at a time. Acquire a Context with
// Acquire, and guarantee its return with a deferred Release -- including on
// failed builds, where Release discards the partially built unit.
package cgen

import (
	"sync"
	"unsafe"

	"github.com/gomlx/exceptions"
)

// Copier is an emitted micro-op that copies (or relocates) one value between
// two raw addresses. The element size and any per-type semantics are baked in
// at emission time.
type Copier func(dst, src unsafe.Pointer)

// Kernel is the compiled calling convention of a materialized function body:
// inputs[k] points at the k-th loaded input value, result points at the
// aggregate carrying all output values, and ctx is the opaque context pointer
// forwarded from the caller.
//
// The result aggregate follows the layout Builder.NewAggregate computes for
// the output element sizes; the layout is deterministic, so a body can
// compute the same Aggregate to place its outputs. The first field is always
// at offset zero.
type Kernel func(inputs []unsafe.Pointer, result unsafe.Pointer, ctx unsafe.Pointer)

// Context is the compilation resource builds run against. It is deliberately
// scarce: only one Unit can be open on it at a time.
type Context struct {
	active *Unit
}

var (
	muContexts   sync.Mutex
	freeContexts []*Context
)

// Acquire takes a Context from the global pool, creating one if none is free.
// It must be paired with Release, usually deferred.
func Acquire() *Context {
	muContexts.Lock()
	defer muContexts.Unlock()
	if n := len(freeContexts); n > 0 {
		ctx := freeContexts[n-1]
		freeContexts = freeContexts[:n-1]
		return ctx
	}
	return &Context{}
}

// Release returns ctx to the global pool. If a Unit is still open -- a build
// that failed before Finalize -- it is discarded, so Release is safe to defer
// unconditionally.
func Release(ctx *Context) {
	if ctx == nil {
		exceptions.Panicf("cgen.Release: nil Context")
	}
	if ctx.active != nil {
		ctx.active.ctx = nil
		ctx.active = nil
	}
	muContexts.Lock()
	defer muContexts.Unlock()
	freeContexts = append(freeContexts, ctx)
}

// Settings configures a build. Use DefaultSettings for the common case.
type Settings struct {
	// DebugNames makes builders record the names given to emitted values on
	// their Unit, for logging and inspection. Off by default.
	DebugNames bool
}

// DefaultSettings returns the settings used for ordinary builds.
func DefaultSettings() Settings {
	return Settings{}
}

// FuncCache memoizes kernels materialized during one build, so a body that is
// reached more than once inside the same unit is built only once.
//
// A cache is meant to be created fresh per build and discarded afterwards.
type FuncCache struct {
	kernels map[string]Kernel
}

// NewFuncCache returns an empty cache for one build.
func NewFuncCache() *FuncCache {
	return &FuncCache{kernels: make(map[string]Kernel)}
}

// GetOrBuild returns the kernel cached under key, calling build to create it
// on the first request.
func (c *FuncCache) GetOrBuild(key string, build func() Kernel) Kernel {
	if k, found := c.kernels[key]; found {
		return k
	}
	k := build()
	c.kernels[key] = k
	return k
}

// Len returns the number of distinct kernels built so far.
func (c *FuncCache) Len() int {
	return len(c.kernels)
}
