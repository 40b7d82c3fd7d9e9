// Package main provides a profiling wrapper for cbpsim to identify
// performance bottlenecks of the simulator itself.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"runtime/pprof"
	"time"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/cbpsim/benchmarks"
	"github.com/sarchlab/cbpsim/insts"
	"github.com/sarchlab/cbpsim/loader"
	"github.com/sarchlab/cbpsim/timing/config"
	"github.com/sarchlab/cbpsim/timing/core"
	"github.com/sarchlab/cbpsim/timing/pipeline"
)

var rootCmd = &cobra.Command{
	Use:   "profile [trace]",
	Short: "Profile the simulator on a trace or a synthetic benchmark.",
	Long: "Profile the simulator on a trace file, or on a synthetic " +
		"benchmark replayed until the instruction limit when --bench is given.",
	Args: cobra.MaximumNArgs(1),
	RunE: run,
}

func init() {
	f := rootCmd.Flags()
	f.String("cpuprofile", "", "write cpu profile to file")
	f.String("memprofile", "", "write memory profile to file")
	f.Duration("duration", 30*time.Second, "max duration to run")
	f.Uint64("max-instr", 1000000, "max instructions to simulate (0 = unlimited)")
	f.String("bench", "", "synthetic benchmark to run instead of a trace")
}

// replaySource replays a synthetic trace forever.
type replaySource struct {
	*loader.SliceSource
}

func (r replaySource) Next() (*insts.MicroOp, error) {
	op, err := r.SliceSource.Next()
	if errors.Is(err, io.EOF) && r.Len() > 0 {
		r.Rewind()
		return r.SliceSource.Next()
	}
	return op, err
}

func findBenchmark(name string) (benchmarks.Benchmark, error) {
	for _, b := range benchmarks.GetMicrobenchmarks() {
		if b.Name == name {
			return b, nil
		}
	}
	return benchmarks.Benchmark{}, fmt.Errorf("unknown benchmark %q", name)
}

func openSource(cmd *cobra.Command, args []string) (core.Source, func(), error) {
	bench, _ := cmd.Flags().GetString("bench")
	maxInstr, _ := cmd.Flags().GetUint64("max-instr")

	if bench != "" {
		if maxInstr == 0 {
			return nil, nil, fmt.Errorf("--bench needs a --max-instr limit")
		}
		b, err := findBenchmark(bench)
		if err != nil {
			return nil, nil, err
		}
		return replaySource{loader.NewSliceSource(b.Trace())}, func() {}, nil
	}

	if len(args) != 1 {
		return nil, nil, fmt.Errorf("a trace or --bench is required")
	}
	trace, err := loader.Open(args[0])
	if err != nil {
		return nil, nil, err
	}
	return trace, func() { _ = trace.Close() }, nil
}

func run(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	cpuProfile, _ := flags.GetString("cpuprofile")
	memProfile, _ := flags.GetString("memprofile")
	duration, _ := flags.GetDuration("duration")
	maxInstr, _ := flags.GetUint64("max-instr")

	src, closeSrc, err := openSource(cmd, args)
	if err != nil {
		return err
	}
	defer closeSrc()

	// Start CPU profiling if requested
	if cpuProfile != "" {
		f, err := os.Create(cpuProfile)
		if err != nil {
			return fmt.Errorf("creating CPU profile: %w", err)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("starting CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	pipe, err := pipeline.NewPipeline(config.DefaultConfig())
	if err != nil {
		return err
	}
	c := core.NewCore(pipe, src, core.WithMaxInstructions(maxInstr))

	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()

	start := time.Now()
	res, err := c.Run(ctx)
	elapsed := time.Since(start)
	timedOut := errors.Is(err, context.DeadlineExceeded)
	if err != nil && !timedOut {
		return err
	}

	if memProfile != "" {
		f, err := os.Create(memProfile)
		if err != nil {
			return fmt.Errorf("creating memory profile: %w", err)
		}
		defer func() { _ = f.Close() }()

		if err := pprof.WriteHeapProfile(f); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing memory profile: %v\n", err)
		}
	}

	instrCount := res.Stats.Instructions
	fmt.Printf("\nProfiling Results:\n")
	if timedOut {
		fmt.Printf("Stopped after %v\n", duration)
	}
	fmt.Printf("Instructions simulated: %d\n", instrCount)
	fmt.Printf("Micro-ops simulated: %d\n", res.Stats.MicroOps)
	fmt.Printf("Simulated cycles: %d\n", res.Stats.Cycles)
	fmt.Printf("Elapsed time: %v\n", elapsed)
	if instrCount > 0 {
		fmt.Printf("Instructions/second: %.0f\n", float64(instrCount)/elapsed.Seconds())
	}

	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		atexit.Exit(1)
	}
	atexit.Exit(0)
}
