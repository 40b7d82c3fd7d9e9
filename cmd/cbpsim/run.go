package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/pprof"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/sarchlab/cbpsim/loader"
	"github.com/sarchlab/cbpsim/timing/config"
	"github.com/sarchlab/cbpsim/timing/core"
	"github.com/sarchlab/cbpsim/timing/pipeline"
	"github.com/sarchlab/cbpsim/timing/recording"
	"github.com/sarchlab/cbpsim/timing/report"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <trace>",
		Short: "Simulate a trace and print the report.",
		Long: "Simulate a binary instruction trace. Compressed traces are " +
			"recognized by their extension (.gz, .zst, .lz4). Flags override " +
			"the fields of the configuration file.",
		Args: cobra.ExactArgs(1),
		RunE: runTrace,
	}

	fs := cmd.Flags()
	fs.StringP("config", "c", "", "configuration file (JSON)")
	fs.Uint64P("max-insts", "n", 0, "stop after this many instructions, 0 for the whole trace")
	fs.Uint64("heartbeat", 0, "log progress every this many instructions")
	fs.Bool("record", false, "record the run in a SQLite database")
	fs.String("record-db", "", "database name, without the .sqlite3 suffix")
	fs.Uint64("record-commits", 0, "record one retired micro-op out of this many, 0 for none")
	fs.String("cpuprofile", "", "write a CPU profile to this file")
	fs.String("memprofile", "", "write a heap profile to this file")
	addConfigFlags(fs)

	return cmd
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return nil, err
		}
	}

	if err := applyConfigFlags(cmd.Flags(), cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func runTrace(cmd *cobra.Command, args []string) error {
	fs := cmd.Flags()

	level, _ := fs.GetString("log-level")
	logger, err := newLogger(level)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if path, _ := fs.GetString("cpuprofile"); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("creating CPU profile: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("starting CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	var (
		rec    *recording.Recorder
		tracer *recording.CommitTracer
		runID  = recording.NewRunID()
		opts   = []pipeline.Option{pipeline.WithLogger(logger)}
	)
	if record, _ := fs.GetBool("record"); record {
		name, _ := fs.GetString("record-db")
		if rec, err = recording.New(name); err != nil {
			return err
		}
		defer rec.Close()
		logger.Info("recording", "db", rec.Filename(), "run_id", runID)

		if every, _ := fs.GetUint64("record-commits"); every > 0 {
			tracer = rec.NewCommitTracer(runID)
			tracer.Every = every
			opts = append(opts, pipeline.WithObserver(tracer))
		}
	}

	p, err := pipeline.NewPipeline(cfg, opts...)
	if err != nil {
		return err
	}

	trace, err := loader.Open(args[0])
	if err != nil {
		return err
	}
	defer trace.Close()

	maxInsts, _ := fs.GetUint64("max-insts")
	heartbeat, _ := fs.GetUint64("heartbeat")
	c := core.NewCore(p, trace,
		core.WithMaxInstructions(maxInsts),
		core.WithHeartbeat(heartbeat),
		core.WithLogger(logger))

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	res, runErr := c.Run(ctx)
	interrupted := errors.Is(runErr, context.Canceled)
	if runErr != nil && !interrupted {
		return runErr
	}
	if interrupted {
		logger.Warn("interrupted, reporting partial results",
			"insts", res.Stats.Instructions)
	}

	if err := report.Write(cmd.OutOrStdout(), cfg, res.Stats); err != nil {
		return err
	}

	if rec != nil {
		info := recording.RunInfo{
			Trace:     args[0],
			Start:     start,
			Elapsed:   res.Elapsed,
			Truncated: res.Truncated || interrupted,
		}
		if err := rec.RecordRun(runID, info, cfg, res.Stats); err != nil {
			return fmt.Errorf("recording run: %w", err)
		}
		if tracer != nil && tracer.Err() != nil {
			return fmt.Errorf("recording commits: %w", tracer.Err())
		}
	}

	if path, _ := fs.GetString("memprofile"); path != "" {
		if err := writeHeapProfile(path); err != nil {
			logger.Error("writing heap profile", "err", err)
		}
	}

	return runErr
}

func writeHeapProfile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return pprof.WriteHeapProfile(f)
}
