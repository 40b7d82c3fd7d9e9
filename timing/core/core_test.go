package core_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cbpsim/insts"
	"github.com/sarchlab/cbpsim/loader"
	"github.com/sarchlab/cbpsim/timing/config"
	"github.com/sarchlab/cbpsim/timing/core"
	"github.com/sarchlab/cbpsim/timing/pipeline"
)

// failingSource returns an error after a few micro-operations.
type failingSource struct {
	left int
}

func (f *failingSource) Next() (*insts.MicroOp, error) {
	if f.left == 0 {
		return nil, errors.New("disk on fire")
	}
	f.left--
	return &insts.MicroOp{PC: 0x10, NextPC: 0x14, LastPiece: true}, nil
}

func straightLine(n int) []insts.MicroOp {
	ops := make([]insts.MicroOp, n)
	for i := range ops {
		pc := uint64(0x1000 + 4*i)
		ops[i] = insts.MicroOp{
			PC:        pc,
			NextPC:    pc + 4,
			Class:     insts.ClassALU,
			Dst:       insts.IntOperand(uint8(i % 16)),
			LastPiece: true,
		}
	}
	return ops
}

var _ = Describe("Core", func() {
	var (
		p   *pipeline.Pipeline
		log *bytes.Buffer
	)

	BeforeEach(func() {
		var err error
		p, err = pipeline.NewPipeline(config.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
		log = &bytes.Buffer{}
	})

	logger := func() *slog.Logger {
		return slog.New(slog.NewTextHandler(log, nil))
	}

	It("should run a trace to the end", func() {
		src := loader.NewSliceSource(straightLine(100))
		c := core.NewCore(p, src, core.WithLogger(logger()))

		res, err := c.Run(context.Background())

		Expect(err).NotTo(HaveOccurred())
		Expect(res.Truncated).To(BeFalse())
		Expect(res.Stats.Instructions).To(Equal(uint64(100)))
		Expect(res.Stats.Cycles).To(BeNumerically(">", 0))
		Expect(log.String()).To(ContainSubstring("run complete"))
	})

	It("should stop at the instruction limit", func() {
		src := loader.NewSliceSource(straightLine(100))
		c := core.NewCore(p, src, core.WithMaxInstructions(30), core.WithLogger(logger()))

		res, err := c.Run(context.Background())

		Expect(err).NotTo(HaveOccurred())
		Expect(res.Truncated).To(BeTrue())
		Expect(res.Stats.Instructions).To(Equal(uint64(30)))
	})

	It("should not cut an instruction in the middle", func() {
		ops := straightLine(4)
		ops[1].LastPiece = false
		c := core.NewCore(p, loader.NewSliceSource(ops),
			core.WithMaxInstructions(2), core.WithLogger(logger()))

		res, err := c.Run(context.Background())

		Expect(err).NotTo(HaveOccurred())
		Expect(res.Stats.MicroOps).To(Equal(uint64(3)))
		Expect(res.Stats.Instructions).To(Equal(uint64(2)))
	})

	It("should log heartbeats", func() {
		src := loader.NewSliceSource(straightLine(50))
		c := core.NewCore(p, src, core.WithHeartbeat(10), core.WithLogger(logger()))

		_, err := c.Run(context.Background())

		Expect(err).NotTo(HaveOccurred())
		Expect(bytes.Count(log.Bytes(), []byte("heartbeat"))).To(Equal(5))
	})

	It("should report source errors", func() {
		c := core.NewCore(p, &failingSource{left: 3}, core.WithLogger(logger()))

		_, err := c.Run(context.Background())

		Expect(err).To(MatchError(ContainSubstring("disk on fire")))
	})

	It("should stop on a cancelled context and still finish", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		c := core.NewCore(p, loader.NewSliceSource(straightLine(10)), core.WithLogger(logger()))

		res, err := c.Run(ctx)

		Expect(err).To(MatchError(context.Canceled))
		Expect(res.Stats.Instructions).To(BeZero())
		Expect(c.Instructions()).To(BeZero())
	})
})
