package exec_test

import (
	"testing"
	"unsafe"

	"github.com/gomlx/arrayfn/exec"
	"github.com/janpfeifer/must"
)

func benchmarkBackend(b *testing.B, e exec.ArrayExecution) {
	const numElements = 1024
	inputs := make([]int32, numElements)
	outputs := make([]int32, numElements)
	indices := make([]int, numElements)
	for i := range inputs {
		inputs[i] = int32(i)
		indices[i] = i
	}
	inPtrs := []unsafe.Pointer{exec.BufferOf(inputs)}
	outPtrs := []unsafe.Pointer{exec.BufferOf(outputs)}
	b.ResetTimer()
	for range b.N {
		e.Call(indices, inPtrs, outPtrs, nil)
	}
}

func BenchmarkSquareInterpreted(b *testing.B) {
	benchmarkBackend(b, must.M1(exec.NewInterpreted(squareFn())))
}

func BenchmarkSquareCompiled(b *testing.B) {
	benchmarkBackend(b, must.M1(exec.NewCompiled(squareFn())))
}
