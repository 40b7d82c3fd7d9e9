package bpred_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cbpsim/insts"
	"github.com/sarchlab/cbpsim/timing/bpred"
)

var _ = Describe("Bimodal", func() {
	var bp *bpred.Bimodal

	BeforeEach(func() {
		bp = bpred.NewBimodal(bpred.BimodalConfig{TableBits: 10})
		bp.Init()
	})

	It("should start weakly taken", func() {
		Expect(bp.Predict(0, 0, 0x1000)).To(BeTrue())
	})

	It("should learn a not-taken branch after one update", func() {
		bp.Update(0, 0, 0x1000, false, true, 0x1004)
		Expect(bp.Predict(1, 0, 0x1000)).To(BeFalse())
	})

	It("should saturate", func() {
		for i := 0; i < 5; i++ {
			bp.Update(uint64(i), 0, 0x1000, true, true, 0x2000)
		}
		bp.Update(5, 0, 0x1000, false, true, 0x1004)
		Expect(bp.Predict(6, 0, 0x1000)).To(BeTrue())
	})
})

var _ = Describe("GShare", func() {
	var g *bpred.GShare

	BeforeEach(func() {
		g = bpred.NewGShare(bpred.GShareConfig{HistoryBits: 8})
		g.Init()
	})

	It("should keep metadata from predict until commit", func() {
		g.Predict(7, 0, 0x400)
		g.SpecUpdate(7, 0, 0x400, insts.ClassCondBranch, true, true, 0x500)
		Expect(g.Live()).To(Equal(1))

		g.Update(7, 0, 0x400, true, true, 0x500)
		Expect(g.Live()).To(Equal(1))

		g.Commit(7, 0, 0x400)
		Expect(g.Live()).To(Equal(0))
	})

	It("should learn an alternating branch through its history", func() {
		const pc = 0x800
		correct := 0
		for i := uint64(0); i < 200; i++ {
			taken := i%2 == 0
			pred := g.Predict(i, 0, pc)
			if i >= 100 && pred == taken {
				correct++
			}
			g.SpecUpdate(i, 0, pc, insts.ClassCondBranch, taken, pred, 0)
			g.Update(i, 0, pc, taken, pred, 0)
			g.Commit(i, 0, pc)
		}
		Expect(correct).To(Equal(100))
	})

	It("should ignore unconditional branches in its history", func() {
		a := g.Predict(1, 0, 0x40)
		g.Commit(1, 0, 0x40)
		g.SpecUpdate(2, 0, 0x80, insts.ClassCallDirect, true, true, 0x200)
		Expect(g.Predict(3, 0, 0x40)).To(Equal(a))
	})
})

var _ = Describe("BTBPredictor", func() {
	var p *bpred.BTBPredictor

	BeforeEach(func() {
		p = bpred.NewBTBPredictor(bpred.TargetConfig{BTBSize: 64, RASDepth: 4})
		p.Init()
	})

	It("should predict the last target of an indirect jump", func() {
		Expect(p.Predict(0x100, insts.ClassUncondIndirectBranch)).To(Equal(uint64(0x104)))
		p.Update(0x100, insts.ClassUncondIndirectBranch, 0x900)
		Expect(p.Predict(0x100, insts.ClassUncondIndirectBranch)).To(Equal(uint64(0x900)))

		stats := p.Stats()
		Expect(stats.BTBHits).To(Equal(uint64(1)))
		Expect(stats.BTBMisses).To(Equal(uint64(1)))
	})

	It("should match returns with calls", func() {
		p.Track(0x100, insts.ClassCallDirect, 0x1000)
		p.Track(0x1010, insts.ClassCallDirect, 0x2000)

		Expect(p.Predict(0x2040, insts.ClassReturn)).To(Equal(uint64(0x1014)))
		Expect(p.Predict(0x1040, insts.ClassReturn)).To(Equal(uint64(0x104)))
	})

	It("should fall back to the BTB on an empty stack", func() {
		p.Predict(0x300, insts.ClassReturn)
		Expect(p.Stats().RASUnderflows).To(Equal(uint64(1)))
	})

	It("should overwrite the oldest return address when full", func() {
		for i := uint64(0); i < 5; i++ {
			p.Track(0x100*(i+1), insts.ClassCallDirect, 0)
		}
		for i := uint64(5); i > 1; i-- {
			Expect(p.Predict(0, insts.ClassReturn)).To(Equal(0x100*i + 4))
		}
		p.Predict(0, insts.ClassReturn)
		Expect(p.Stats().RASUnderflows).To(Equal(uint64(1)))
	})
})

var _ = Describe("Registry", func() {
	It("should build registered predictors", func() {
		for _, name := range bpred.DirectionPredictorNames() {
			p, err := bpred.NewDirectionPredictor(name)
			Expect(err).NotTo(HaveOccurred())
			Expect(p).NotTo(BeNil())
		}
	})

	It("should reject unknown names", func() {
		_, err := bpred.NewDirectionPredictor("tage-sc-l")
		Expect(err).To(MatchError(ContainSubstring("unknown direction predictor")))
	})
})

var _ = Describe("Perceptron", func() {
	var p *bpred.Perceptron

	BeforeEach(func() {
		p = bpred.NewPerceptron(bpred.PerceptronConfig{})
		p.Init()
	})

	train := func(seqNo, pc uint64, taken bool) {
		pred := p.Predict(seqNo, 0, pc)
		p.Update(seqNo, 0, pc, taken, pred, pc+4)
		p.Commit(seqNo, 0, pc)
	}

	It("should start with the threshold derived from its table count", func() {
		Expect(p.Theta()).To(Equal(bpred.InitialTheta(8)))
		Expect(p.Theta()).To(Equal(29))
	})

	It("should predict not taken with zero weights", func() {
		Expect(p.Predict(0, 0, 0x1000)).To(BeFalse())
	})

	It("should learn a taken branch after one misprediction", func() {
		train(0, 0x1000, true)
		Expect(p.Predict(1, 0, 0x1000)).To(BeTrue())
	})

	It("should index its tables with the branch history", func() {
		train(0, 0x1000, true)
		p.SpecUpdate(1, 0, 0x1004, insts.ClassCondBranch, true, true, 0x2000)
		Expect(p.Predict(2, 0, 0x1000)).To(BeFalse())
	})

	It("should raise the threshold after 64 mispredictions", func() {
		for i := uint64(0); i < 63; i++ {
			p.Predict(i, 0, 0x1000)
			p.Update(i, 0, 0x1000, true, false, 0x2000)
			p.Commit(i, 0, 0x1000)
		}
		Expect(p.Theta()).To(Equal(29))

		p.Predict(63, 0, 0x1000)
		p.Update(63, 0, 0x1000, true, false, 0x2000)
		Expect(p.Theta()).To(Equal(30))
	})

	It("should lower the threshold after 64 weak correct predictions", func() {
		for i := uint64(0); i < 64; i++ {
			pc := 0x1000 + 4*i
			Expect(p.Predict(i, 0, pc)).To(BeFalse())
			p.Update(i, 0, pc, false, false, pc+4)
			p.Commit(i, 0, pc)
			if i == 62 {
				Expect(p.Theta()).To(Equal(29))
			}
		}
		Expect(p.Theta()).To(Equal(28))
	})

	It("should stop training once a prediction is confident", func() {
		for i := uint64(0); i < 200; i++ {
			train(i, 0x1000, true)
		}
		Expect(p.Theta()).To(Equal(29))
		Expect(p.Predict(200, 0, 0x1000)).To(BeTrue())
	})

	It("should keep metadata from predict until commit", func() {
		p.Predict(7, 0, 0x400)
		p.Predict(8, 1, 0x404)
		Expect(p.Live()).To(Equal(2))

		p.Update(7, 0, 0x400, true, false, 0x500)
		p.Commit(7, 0, 0x400)
		p.Commit(8, 1, 0x404)
		Expect(p.Live()).To(BeZero())
	})

	It("should ignore updates of branches it never predicted", func() {
		p.Update(99, 0, 0x400, true, false, 0x500)
		Expect(p.Theta()).To(Equal(29))
		Expect(p.Predict(0, 0, 0x400)).To(BeFalse())
	})
})
