// Command benchmark runs the cbpsim synthetic benchmark harness.
//
// Usage:
//
//	go run ./cmd/benchmark [flags]
//
// Example:
//
//	# Run all benchmarks with human-readable output
//	go run ./cmd/benchmark
//
//	# Output CSV for spreadsheet comparison
//	go run ./cmd/benchmark --format csv > results.csv
//
//	# Run the core set with a custom core configuration
//	go run ./cmd/benchmark --core --config core.json
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/cbpsim/benchmarks"
	"github.com/sarchlab/cbpsim/timing/config"
)

var rootCmd = &cobra.Command{
	Use:   "benchmark",
	Short: "Run the synthetic timing benchmarks.",
	Args:  cobra.NoArgs,
	RunE:  run,
}

func init() {
	rootCmd.Flags().String("format", "text", "output format: text, csv or json")
	rootCmd.Flags().Bool("no-icache", false, "disable instruction cache simulation")
	rootCmd.Flags().Bool("no-dcache", false, "disable data cache simulation")
	rootCmd.Flags().Bool("core", false, "run only the core benchmark set")
	rootCmd.Flags().String("config", "", "core configuration file (JSON)")
}

func run(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	format, _ := flags.GetString("format")
	noICache, _ := flags.GetBool("no-icache")
	noDCache, _ := flags.GetBool("no-dcache")
	coreOnly, _ := flags.GetBool("core")
	configPath, _ := flags.GetString("config")

	// Configure harness
	harnessConfig := benchmarks.DefaultConfig()
	harnessConfig.EnableICache = !noICache
	harnessConfig.EnableDCache = !noDCache
	harnessConfig.Output = os.Stdout
	if configPath != "" {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		harnessConfig.Core = cfg
	}

	harness := benchmarks.NewHarness(harnessConfig)
	if coreOnly {
		harness.AddBenchmarks(benchmarks.GetCoreBenchmarks())
	} else {
		harness.AddBenchmarks(benchmarks.GetMicrobenchmarks())
	}

	switch format {
	case "text":
		fmt.Println("cbpsim Timing Benchmark Harness")
		fmt.Println("===============================")
		fmt.Printf("I-Cache: %v\n", harnessConfig.EnableICache)
		fmt.Printf("D-Cache: %v\n", harnessConfig.EnableDCache)
		fmt.Println("")
	case "csv", "json":
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	results := harness.RunAll()

	switch format {
	case "csv":
		harness.PrintCSV(results)
	case "json":
		return harness.PrintJSON(results)
	default:
		harness.PrintResults(results)
	}

	for _, r := range results {
		if r.Error != "" {
			return fmt.Errorf("benchmark %s failed: %s", r.Name, r.Error)
		}
	}
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		atexit.Exit(1)
	}
	atexit.Exit(0)
}
