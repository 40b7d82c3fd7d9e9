// Package core drives the timing pipeline with a micro-operation source.
// It wraps the pipeline implementation to provide a high-level interface.
package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/sarchlab/cbpsim/insts"
	"github.com/sarchlab/cbpsim/timing/pipeline"
)

// ctxCheckInterval is the number of micro-operations between two checks
// for cancellation.
const ctxCheckInterval = 4096

// Source yields micro-operations in program order. Next returns io.EOF
// once the trace is exhausted.
type Source interface {
	Next() (*insts.MicroOp, error)
}

// Option is a functional option for configuring the Core.
type Option func(*Core)

// WithMaxInstructions stops the run after n instructions. 0 means no
// limit.
func WithMaxInstructions(n uint64) Option {
	return func(c *Core) {
		c.maxInstructions = n
	}
}

// WithHeartbeat logs progress every n instructions. 0 disables it.
func WithHeartbeat(n uint64) Option {
	return func(c *Core) {
		c.heartbeat = n
	}
}

// WithLogger sets the logger used for progress reports.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Core) {
		c.logger = logger
	}
}

// Result is the outcome of a run.
type Result struct {
	Stats pipeline.Statistics
	// Elapsed is the wall-clock time of the run.
	Elapsed time.Duration
	// Truncated is set when the run stopped at the instruction limit
	// before the end of the trace.
	Truncated bool
}

// Core feeds a micro-operation source through the timing pipeline.
type Core struct {
	// Pipeline is the underlying timing pipeline.
	Pipeline *pipeline.Pipeline

	src    Source
	logger *slog.Logger

	maxInstructions uint64
	heartbeat       uint64

	instructions uint64
}

// NewCore creates a Core reading from src.
func NewCore(p *pipeline.Pipeline, src Source, opts ...Option) *Core {
	c := &Core{
		Pipeline: p,
		src:      src,
		logger:   slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Instructions returns the number of instructions stepped so far.
func (c *Core) Instructions() uint64 {
	return c.instructions
}

// Run steps every micro-operation of the source through the pipeline and
// finishes it. A cancelled context stops the run early; the pipeline is
// still finished and the partial result is returned with the context's
// error.
func (c *Core) Run(ctx context.Context) (Result, error) {
	start := time.Now()
	res := Result{}

	runErr := c.loop(ctx, start, &res)
	if runErr != nil && !errors.Is(runErr, context.Canceled) &&
		!errors.Is(runErr, context.DeadlineExceeded) {
		return res, runErr
	}

	stats, err := c.Pipeline.Finish()
	if err != nil {
		return res, fmt.Errorf("finishing pipeline: %w", err)
	}

	res.Stats = stats
	res.Elapsed = time.Since(start)

	c.logger.Info("run complete",
		"insts", stats.Instructions,
		"cycles", stats.Cycles,
		"ipc", fmt.Sprintf("%.4f", stats.IPC()),
		"elapsed", res.Elapsed.Round(time.Millisecond))

	return res, runErr
}

func (c *Core) loop(ctx context.Context, start time.Time, res *Result) error {
	var n uint64

	for {
		if n%ctxCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		n++

		op, err := c.src.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading trace: %w", err)
		}

		if err := c.Pipeline.Step(op); err != nil {
			return err
		}

		if !op.LastPiece {
			continue
		}

		c.instructions++
		if c.heartbeat > 0 && c.instructions%c.heartbeat == 0 {
			c.logger.Info("heartbeat",
				"insts", c.instructions,
				"fetch_cycle", c.Pipeline.FetchCycle(),
				"elapsed", time.Since(start).Round(time.Millisecond))
		}

		if c.maxInstructions > 0 && c.instructions >= c.maxInstructions {
			res.Truncated = true
			return nil
		}
	}
}
