package boxed

import (
	"testing"
	"unsafe"

	"github.com/gomlx/arrayfn/types/vtypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayout(t *testing.T) {
	l := NewLayout(vtypes.Int8, vtypes.Float64, vtypes.Int16)
	require.Equal(t, 3, l.NumSlots())
	assert.Same(t, vtypes.Float64, l.Type(1))
	// int8 at 0, float64 8-aligned, int16 2-aligned after it.
	assert.Equal(t, uintptr(18), l.Size())

	// Types without the boxed extension are rejected.
	opaque := vtypes.New("boxed-test-opaque", 4, nil, nil)
	require.Panics(t, func() { NewLayout(opaque) })

	empty := NewLayout()
	assert.Equal(t, 0, empty.NumSlots())
	require.NotPanics(t, func() { New(empty).Clear() })
}

func TestTupleCopyInRelocateOut(t *testing.T) {
	tuple := New(NewLayout(vtypes.Int32, vtypes.Float32))
	require.False(t, tuple.IsInitialized(0))

	x := int32(42)
	tuple.CopyIn(0, unsafe.Pointer(&x))
	require.True(t, tuple.IsInitialized(0))
	assert.Equal(t, int32(42), Get[int32](tuple, 0))

	var out int32
	tuple.RelocateOut(0, unsafe.Pointer(&out))
	assert.Equal(t, int32(42), out)
	require.False(t, tuple.IsInitialized(0))

	// Moving out of an empty slot is a programming error.
	require.Panics(t, func() { tuple.RelocateOut(0, unsafe.Pointer(&out)) })
	require.Panics(t, func() { tuple.RelocateOut(1, unsafe.Pointer(&out)) })
}

func TestTupleSetGet(t *testing.T) {
	tuple := New(NewLayout(vtypes.Float64, vtypes.Int16))
	Set(tuple, 0, 3.25)
	Set(tuple, 1, int16(-3))
	assert.Equal(t, 3.25, Get[float64](tuple, 0))
	assert.Equal(t, int16(-3), Get[int16](tuple, 1))

	// Size mismatches are rejected.
	require.Panics(t, func() { Set(tuple, 0, int8(1)) })
	require.Panics(t, func() { Get[int64](tuple, 1) })

	// Get on an empty slot is rejected.
	empty := New(tuple.Layout())
	require.Panics(t, func() { Get[float64](empty, 0) })
}

// countingOps tracks construct/destruct balance, standing in for a type that
// owns resources.
type countingOps struct {
	live      *int
	destructs *int
}

func (o countingOps) CopyIn(slot, src unsafe.Pointer) {
	*(*int32)(slot) = *(*int32)(src)
	*o.live++
}

func (o countingOps) RelocateOut(slot, dst unsafe.Pointer) {
	*(*int32)(dst) = *(*int32)(slot)
	// Ownership moves with the value: no live-count change.
}

func (o countingOps) Destruct(slot unsafe.Pointer) {
	*o.live--
	*o.destructs++
}

func TestTupleOwnership(t *testing.T) {
	var live, destructs int
	ops := countingOps{live: &live, destructs: &destructs}
	resource := vtypes.New("boxed-test-resource", 4, ops, nil)
	tuple := New(NewLayout(resource))

	v := int32(7)
	tuple.CopyIn(0, unsafe.Pointer(&v))
	require.Equal(t, 1, live)

	// Overwriting an initialized slot destructs the old value exactly once.
	tuple.CopyIn(0, unsafe.Pointer(&v))
	require.Equal(t, 1, live)
	require.Equal(t, 1, destructs)

	// Relocating out transfers ownership: the slot no longer owns anything,
	// so Clear must not destruct again.
	var out int32
	tuple.RelocateOut(0, unsafe.Pointer(&out))
	tuple.Clear()
	require.Equal(t, 1, live)
	require.Equal(t, 1, destructs)

	// A value still held at Clear time is destructed.
	tuple.CopyIn(0, unsafe.Pointer(&v))
	tuple.Clear()
	require.Equal(t, 1, live)
	require.Equal(t, 2, destructs)
	require.False(t, tuple.IsInitialized(0))
}
