package vpred_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cbpsim/insts"
	"github.com/sarchlab/cbpsim/timing/vpred"
)

var _ = Describe("StridePredictor", func() {
	const pc = 0x4000

	var (
		p   *vpred.StridePredictor
		seq uint64
	)

	predict := func() vpred.Result {
		seq++
		return p.Predict(vpred.Request{SeqNo: seq, PC: pc, Candidate: true})
	}

	train := func(values ...uint64) {
		for _, v := range values {
			predict()
			p.Update(seq, 0, v, 1)
		}
	}

	BeforeEach(func() {
		p = vpred.NewStridePredictor(vpred.StrideConfig{TableBits: 6})
		p.Init()
		seq = 0
	})

	It("should not speculate on a cold entry", func() {
		Expect(predict().Speculate).To(BeFalse())
	})

	It("should speculate on a confident stride", func() {
		train(10, 20, 30, 40)

		res := predict()
		Expect(res.Speculate).To(BeTrue())
		Expect(res.Value).To(Equal(uint64(50)))
	})

	It("should account for instances still in flight", func() {
		train(10, 20, 30, 40)

		Expect(predict().Value).To(Equal(uint64(50)))
		Expect(predict().Value).To(Equal(uint64(60)))
		Expect(p.Live()).To(Equal(2))
	})

	It("should lose confidence after a reported misprediction", func() {
		train(10, 20, 30, 40)
		predict()
		p.SpecUpdate(vpred.SpecInfo{SeqNo: seq, PC: pc, Eligible: true, Verdict: vpred.VerdictIncorrect})
		p.Update(seq, 0, 99, 1)

		Expect(predict().Speculate).To(BeFalse())
	})

	It("should never speculate for non-candidates", func() {
		train(10, 20, 30, 40)

		seq++
		res := p.Predict(vpred.Request{SeqNo: seq, PC: pc})
		Expect(res.Speculate).To(BeFalse())

		p.Update(seq, 0, 0, 1)
		Expect(p.Live()).To(Equal(0))
	})
})

var _ = Describe("Track", func() {
	It("should exclude absent and flags destinations", func() {
		Expect(vpred.TrackAll.Eligible(insts.ClassALU, insts.Operand{})).To(BeFalse())
		Expect(vpred.TrackAll.Eligible(insts.ClassALU, insts.IntOperand(insts.RegFlags))).To(BeFalse())
		Expect(vpred.TrackAll.Eligible(insts.ClassALU, insts.IntOperand(3))).To(BeTrue())
	})

	It("should restrict the load tracks to loads", func() {
		Expect(vpred.TrackLoadsOnly.Eligible(insts.ClassALU, insts.IntOperand(3))).To(BeFalse())
		Expect(vpred.TrackLoadsOnlyHitMiss.Eligible(insts.ClassLoad, insts.FPOperand(40))).To(BeTrue())
	})

	It("should parse track names", func() {
		t, err := vpred.ParseTrack("loads-hitmiss")
		Expect(err).NotTo(HaveOccurred())
		Expect(t).To(Equal(vpred.TrackLoadsOnlyHitMiss))
		Expect(t.String()).To(Equal("loads-hitmiss"))

		_, err = vpred.ParseTrack("stores")
		Expect(err).To(HaveOccurred())
	})
})
