// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

package cgen

import (
	"fmt"

	"github.com/gomlx/exceptions"
	"github.com/google/uuid"
)

// Unit is an isolated compilation unit: everything built during one build
// session lives in it, and it keeps the resulting artifacts alive for as long
// as the owner holds it.
//
// A Unit is opened with Context.NewUnit and sealed with Finalize. After
// Finalize the unit detaches from its Context (freeing it for the next build)
// but the kernels it holds remain valid.
type Unit struct {
	ctx  *Context
	name string
	id   uuid.UUID

	finalized bool

	kernelNames []string
	kernels     []Kernel

	// valueNames is only populated when built with Settings.DebugNames.
	valueNames []string
}

// NewUnit opens a new compilation unit on the context. Only one unit may be
// open at a time; opening a second one panics.
func (c *Context) NewUnit(name string) *Unit {
	if c.active != nil {
		exceptions.Panicf("cgen: context already has unit %q open, cannot open %q", c.active.name, name)
	}
	u := &Unit{
		ctx:  c,
		name: name,
		id:   uuid.New(),
	}
	c.active = u
	return u
}

// Name returns the name the unit was opened with.
func (u *Unit) Name() string { return u.name }

// String implements fmt.Stringer.
func (u *Unit) String() string {
	return fmt.Sprintf("%s [unit %s]", u.name, u.id)
}

// AddKernel registers a finished kernel under the given name. It is called by
// bodies and builders while the unit is open.
func (u *Unit) AddKernel(name string, k Kernel) Kernel {
	if u.finalized {
		exceptions.Panicf("cgen: unit %q is finalized, cannot add kernel %q", u.name, name)
	}
	if k == nil {
		exceptions.Panicf("cgen: nil kernel %q added to unit %q", name, u.name)
	}
	u.kernelNames = append(u.kernelNames, name)
	u.kernels = append(u.kernels, k)
	return k
}

// NumKernels returns how many kernels were built into the unit.
func (u *Unit) NumKernels() int { return len(u.kernels) }

// ValueNames returns the names recorded for emitted values, when the unit was
// built with Settings.DebugNames. Diagnostics only.
func (u *Unit) ValueNames() []string { return u.valueNames }

// Finalize seals the unit and detaches it from its Context, which can then be
// released or reused. The unit's kernels stay valid.
func (u *Unit) Finalize() {
	if u.finalized {
		return
	}
	u.finalized = true
	if u.ctx != nil {
		u.ctx.active = nil
		u.ctx = nil
	}
}
