// Package main provides accuracy validation for performance optimizations.
// Ensures that optimizations preserve simulation results.
package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"reflect"

	"github.com/sarchlab/cbpsim/benchmarks"
	"github.com/sarchlab/cbpsim/insts"
	"github.com/sarchlab/cbpsim/loader"
	"github.com/sarchlab/cbpsim/timing/config"
	"github.com/sarchlab/cbpsim/timing/core"
	"github.com/sarchlab/cbpsim/timing/pipeline"
)

func randomRecord(rng *rand.Rand, pc uint64) *loader.Record {
	rec := &loader.Record{PC: pc}
	out := func() {
		rec.OutRegs = []uint8{uint8(rng.IntN(insts.NumIntRegs))}
		rec.OutValues = [][2]uint64{{rng.Uint64(), 0}}
	}

	switch rng.IntN(4) {
	case 0:
		rec.Class = insts.ClassALU
		rec.InRegs = []uint8{uint8(rng.IntN(insts.NumIntRegs))}
		out()
	case 1:
		rec.Class = insts.ClassLoad
		rec.EffAddr = 0x10000 + 8*uint64(rng.IntN(512))
		rec.MemSize = 8
		rec.InRegs = []uint8{1}
		out()
	case 2:
		rec.Class = insts.ClassStore
		rec.EffAddr = 0x10000 + 8*uint64(rng.IntN(512))
		rec.MemSize = 8
		rec.InRegs = []uint8{2, 1}
	default:
		rec.Class = insts.ClassCondBranch
		rec.Taken = rng.IntN(2) == 0
		rec.Target = pc + 0x40
	}
	return rec
}

// testTraceDecoding validates that reading a trace yields the same
// micro-operations as splitting its records directly.
func testTraceDecoding() bool {
	fmt.Println("Testing trace decoding accuracy...")

	rng := rand.New(rand.NewPCG(1, 2))
	var buf bytes.Buffer
	var expected []insts.MicroOp

	pc := uint64(0x1000)
	for i := 0; i < 10000; i++ {
		rec := randomRecord(rng, pc)
		if err := loader.WriteRecord(&buf, rec); err != nil {
			fmt.Printf("❌ Encoding record %d failed: %v\n", i, err)
			return false
		}
		ops, err := loader.Split(rec)
		if err != nil {
			fmt.Printf("❌ Splitting record %d failed: %v\n", i, err)
			return false
		}
		expected = append(expected, ops...)
		pc = rec.NextPC()
	}

	tr := loader.NewTraceReader(&buf)
	for i, want := range expected {
		got, err := tr.Next()
		if err != nil {
			fmt.Printf("❌ Reading micro-op %d failed: %v\n", i, err)
			return false
		}
		if *got != want {
			fmt.Printf("❌ Micro-op %d mismatch\n", i)
			fmt.Printf("  Split(): %+v\n", want)
			fmt.Printf("  Next():  %+v\n", *got)
			return false
		}
	}
	if _, err := tr.Next(); !errors.Is(err, io.EOF) {
		fmt.Printf("❌ Expected end of trace, got %v\n", err)
		return false
	}

	fmt.Printf("✅ %d micro-ops decoded correctly\n", len(expected))
	return true
}

func simulate(cfg *config.Config, ops []insts.MicroOp) (pipeline.Statistics, error) {
	p, err := pipeline.NewPipeline(cfg)
	if err != nil {
		return pipeline.Statistics{}, err
	}
	res, err := core.NewCore(p, loader.NewSliceSource(ops)).Run(context.Background())
	return res.Stats, err
}

// testPipelineDeterminism validates that repeated runs of every
// benchmark produce identical statistics.
func testPipelineDeterminism() bool {
	fmt.Println("\nTesting pipeline determinism...")

	cfg := config.DefaultConfig()
	cfg.Branch.MispReductionPercent = 50
	cfg.ValuePrediction.Enable = true

	for _, b := range benchmarks.GetMicrobenchmarks() {
		ops := b.Trace()

		first, err := simulate(cfg, ops)
		if err != nil {
			fmt.Printf("❌ %s failed: %v\n", b.Name, err)
			return false
		}
		second, err := simulate(cfg, ops)
		if err != nil {
			fmt.Printf("❌ %s failed: %v\n", b.Name, err)
			return false
		}

		if !reflect.DeepEqual(first, second) {
			fmt.Printf("❌ %s: runs differ\n", b.Name)
			fmt.Printf("  first:  %+v\n", first)
			fmt.Printf("  second: %+v\n", second)
			return false
		}

		fmt.Printf("✅ %s: %d cycles in both runs\n", b.Name, first.Cycles)
	}

	return true
}

// testPerfectPrediction validates that perfect branch prediction removes
// every wrong-path cycle.
func testPerfectPrediction() bool {
	fmt.Println("\nTesting perfect prediction bounds...")

	for _, b := range benchmarks.GetMicrobenchmarks() {
		ops := b.Trace()

		base, err := simulate(config.DefaultConfig(), ops)
		if err != nil {
			fmt.Printf("❌ %s failed: %v\n", b.Name, err)
			return false
		}

		cfg := config.DefaultConfig()
		cfg.Branch.Perfect = true
		ideal, err := simulate(cfg, ops)
		if err != nil {
			fmt.Printf("❌ %s failed: %v\n", b.Name, err)
			return false
		}

		if ideal.WrongPathCycles != 0 {
			fmt.Printf("❌ %s: %d wrong-path cycles with perfect prediction\n",
				b.Name, ideal.WrongPathCycles)
			return false
		}
		fmt.Printf("✅ %s: %d cycles real, %d perfect\n", b.Name, base.Cycles, ideal.Cycles)
	}

	return true
}

func main() {
	fmt.Println("🔍 Simulation Accuracy Validation")
	fmt.Println("=================================")

	ok := testTraceDecoding()
	ok = testPipelineDeterminism() && ok
	ok = testPerfectPrediction() && ok

	fmt.Println()
	if !ok {
		fmt.Println("❌ Validation failed")
		os.Exit(1)
	}
	fmt.Println("✅ All validations passed")
}
