// Copyright 2023-2026 The GoMLX Authors. SPDX-License-Identifier: Apache-2.0

// arrayfn-bench compares the interpreted and the compiled array-execution
// backends on the same function and buffers, and reports per-backend
// throughput.
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"time"
	"unsafe"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/gomlx/arrayfn"
	"github.com/gomlx/arrayfn/cgen"
	"github.com/gomlx/arrayfn/exec"
	"github.com/gomlx/arrayfn/types/boxed"
	"github.com/gomlx/arrayfn/types/vtypes"
	"github.com/janpfeifer/must"
	"github.com/schollz/progressbar/v3"
	"k8s.io/klog/v2"
)

var (
	flagElements = flag.Int("elements", 1<<16, "Number of elements per buffer.")
	flagBatch    = flag.Int("batch", 4096, "Indices processed per call.")
	flagBatches  = flag.Int("batches", 1000, "Number of calls per backend.")
	flagSeed     = flag.Int64("seed", 0, "Random seed for the index lists; 0 picks one from the clock.")
)

// squareBody implements y = x*x over float64 with both capabilities, so the
// same function instance can be run by either backend.
type squareBody struct{}

func (squareBody) CallBoxed(in, out *boxed.Tuple, ctx *arrayfn.Context) {
	x := boxed.Get[float64](in, 0)
	boxed.Set(out, 0, x*x)
}

func (squareBody) EmitKernel(unit *cgen.Unit, name string, settings cgen.Settings, cache *cgen.FuncCache) cgen.Kernel {
	return cache.GetOrBuild(name, func() cgen.Kernel {
		return unit.AddKernel(name, func(in []unsafe.Pointer, result unsafe.Pointer, ctx unsafe.Pointer) {
			x := *(*float64)(in[0])
			*(*float64)(result) = x * x
		})
	})
}

func main() {
	klog.InitFlags(nil)
	flag.Parse()

	seed := *flagSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	sig := arrayfn.NewSignature(
		[]arrayfn.Parameter{arrayfn.Param("x", vtypes.Float64)},
		[]arrayfn.Parameter{arrayfn.Param("y", vtypes.Float64)},
	)
	f := arrayfn.NewFunction("square", sig, squareBody{})

	inputs := make([]float64, *flagElements)
	outputs := make([]float64, *flagElements)
	for i := range inputs {
		inputs[i] = rng.Float64()
	}
	batches := make([][]int, *flagBatches)
	for i := range batches {
		batch := make([]int, *flagBatch)
		for j := range batch {
			batch[j] = rng.Intn(*flagElements)
		}
		batches[i] = batch
	}

	backends := []struct {
		name  string
		build func() exec.ArrayExecution
	}{
		{"interpreted", func() exec.ArrayExecution { return must.M1(exec.NewInterpreted(f)) }},
		{"compiled", func() exec.ArrayExecution { return must.M1(exec.NewCompiled(f)) }},
	}

	totalPerBackend := int64(*flagBatch) * int64(*flagBatches)
	fmt.Printf("Function %s: %s elements per call, %s calls, %s element evaluations per backend.\n\n",
		f, humanize.Comma(int64(*flagBatch)), humanize.Comma(int64(*flagBatches)),
		humanize.Comma(totalPerBackend))

	leftStyle := lipgloss.NewStyle().Padding(0, 1)
	rightStyle := lipgloss.NewStyle().Align(lipgloss.Right).Padding(0, 1)
	table := lgtable.New().
		Border(lipgloss.RoundedBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if col == 0 {
				return leftStyle
			}
			return rightStyle
		}).
		Headers("Backend", "Build", "Run", "Elements/s")

	inPtrs := []unsafe.Pointer{exec.BufferOf(inputs)}
	outPtrs := []unsafe.Pointer{exec.BufferOf(outputs)}
	for _, backend := range backends {
		buildStart := time.Now()
		e := backend.build()
		buildElapsed := time.Since(buildStart)

		bar := progressbar.NewOptions(len(batches),
			progressbar.OptionSetDescription(backend.name),
			progressbar.OptionSetTheme(progressbar.ThemeASCII),
			progressbar.OptionClearOnFinish(),
		)
		runStart := time.Now()
		for _, batch := range batches {
			e.Call(batch, inPtrs, outPtrs, nil)
			_ = bar.Add(1)
		}
		runElapsed := time.Since(runStart)
		_ = bar.Finish()

		throughput := float64(totalPerBackend) / runElapsed.Seconds()
		table.Row(backend.name,
			buildElapsed.Round(time.Microsecond).String(),
			runElapsed.Round(time.Millisecond).String(),
			humanize.CommafWithDigits(throughput, 0))
	}
	fmt.Println(table.Render())
}
