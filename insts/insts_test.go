package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cbpsim/insts"
)

var _ = Describe("InstClass", func() {
	It("should keep the trace encoding of every class", func() {
		Expect(uint8(insts.ClassALU)).To(Equal(uint8(0)))
		Expect(uint8(insts.ClassCondBranch)).To(Equal(uint8(3)))
		Expect(uint8(insts.ClassSlowALU)).To(Equal(uint8(7)))
		Expect(uint8(insts.ClassReturn)).To(Equal(uint8(11)))
		Expect(insts.InstClass(12).Valid()).To(BeFalse())
	})

	It("should classify control transfers", func() {
		Expect(insts.ClassCondBranch.IsBranch()).To(BeTrue())
		Expect(insts.ClassCondBranch.IsUncondBranch()).To(BeFalse())

		for _, c := range []insts.InstClass{
			insts.ClassUncondIndirectBranch,
			insts.ClassCallIndirect,
			insts.ClassReturn,
		} {
			Expect(c.IsUncondIndirect()).To(BeTrue(), c.String())
			Expect(c.IsUncondDirect()).To(BeFalse(), c.String())
		}

		Expect(insts.ClassCallDirect.IsUncondDirect()).To(BeTrue())
		Expect(insts.ClassCallDirect.IsCall()).To(BeTrue())
		Expect(insts.ClassALU.IsBranch()).To(BeFalse())
		Expect(insts.ClassFP.IsMem()).To(BeFalse())
	})

	It("should print readable names", func() {
		Expect(insts.ClassLoad.String()).To(Equal("load"))
		Expect(insts.InstClass(42).String()).To(Equal("class(42)"))
	})
})

var _ = Describe("MicroOp", func() {
	It("should expose only the execute fields that apply", func() {
		op := &insts.MicroOp{
			PC:        0x100,
			NextPC:    0x104,
			Class:     insts.ClassLoad,
			Addr:      0x2000,
			Size:      8,
			Dst:       insts.IntOperand(4).WithValue(77),
			LastPiece: true,
		}

		info := op.ExecuteInfo()
		Expect(info.HasMem).To(BeTrue())
		Expect(info.MemAddr).To(Equal(uint64(0x2000)))
		Expect(info.HasTaken).To(BeFalse())
		Expect(info.HasDstValue).To(BeTrue())
		Expect(info.DstValue).To(Equal(uint64(77)))
		Expect(info.Decode.Class).To(Equal(insts.ClassLoad))
	})

	It("should treat the flags and zero registers as integer registers", func() {
		Expect(insts.IsIntReg(insts.RegFlags)).To(BeTrue())
		Expect(insts.IsIntReg(insts.RegZero)).To(BeTrue())
		Expect(insts.IsIntReg(40)).To(BeFalse())
	})
})
