// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// Package arrayfn defines the function model of the array execution engine:
// an immutable, shared Function with a fixed typed signature and one or more
// execution bodies, plus the opaque per-call Context.
//
// The engine itself -- executing a function once per element over flat,
// densely packed buffers -- lives in the exec sub-package, with two
// interchangeable backends: an interpreted one driving the boxed calling
// convention (see types/boxed) and a compiled one composing a specialized
// loop at construction time (see cgen).
//
// Functions are read-only after construction and safely shared by any number
// of executions; Go's garbage collector stands in for the shared reference
// counting the design calls for.
package arrayfn
