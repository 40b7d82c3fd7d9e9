package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cbpsim/timing/pipeline"
)

var _ = Describe("Window", func() {
	var w *pipeline.Window

	BeforeEach(func() {
		w = pipeline.NewWindow(3)
	})

	It("should start empty", func() {
		Expect(w.Empty()).To(BeTrue())
		Expect(w.Front()).To(BeNil())
		Expect(w.Back()).To(BeNil())
		Expect(w.BackRetireCycle()).To(BeZero())
	})

	It("should retire in insertion order", func() {
		for i := uint64(0); i < 3; i++ {
			Expect(w.Push(pipeline.WindowEntry{SeqNo: i, RetireCycle: 10 + i})).NotTo(BeNil())
		}
		Expect(w.Full()).To(BeTrue())
		Expect(w.Push(pipeline.WindowEntry{SeqNo: 3})).To(BeNil())

		Expect(w.Front().SeqNo).To(Equal(uint64(0)))
		Expect(w.BackRetireCycle()).To(Equal(uint64(12)))

		w.Pop()
		Expect(w.Front().SeqNo).To(Equal(uint64(1)))
		Expect(w.Push(pipeline.WindowEntry{SeqNo: 3})).NotTo(BeNil())
		Expect(w.Back().SeqNo).To(Equal(uint64(3)))
	})

	It("should reject a sequence gap", func() {
		w.Push(pipeline.WindowEntry{SeqNo: 4})
		Expect(w.Push(pipeline.WindowEntry{SeqNo: 6})).To(BeNil())
	})

	It("should find entries by sequence number and piece across the wrap", func() {
		for i := uint64(0); i < 3; i++ {
			w.Push(pipeline.WindowEntry{SeqNo: i, Piece: uint8(i)})
		}
		w.Pop()
		w.Pop()
		w.Push(pipeline.WindowEntry{SeqNo: 3, Piece: 0})
		w.Push(pipeline.WindowEntry{SeqNo: 4, Piece: 1})

		Expect(w.Lookup(2, 2)).NotTo(BeNil())
		Expect(w.Lookup(4, 1).SeqNo).To(Equal(uint64(4)))
		Expect(w.Lookup(4, 0)).To(BeNil())
		Expect(w.Lookup(1, 1)).To(BeNil())
		Expect(w.Lookup(5, 0)).To(BeNil())
	})
})

var _ = Describe("StoreQueue", func() {
	var q *pipeline.StoreQueue

	BeforeEach(func() {
		q = pipeline.NewStoreQueue()
		q.Write(0x100, 4, pipeline.StoreEntry{ExecCycle: 5, RetireCycle: 20})
	})

	It("should forward from an in-flight store", func() {
		c, ok := q.Forward(0x103, 3)
		Expect(ok).To(BeTrue())
		Expect(c).To(Equal(uint64(5)))

		c, ok = q.Forward(0x100, 8)
		Expect(ok).To(BeTrue())
		Expect(c).To(Equal(uint64(8)))
	})

	It("should not forward bytes the store did not write", func() {
		_, ok := q.Forward(0x104, 3)
		Expect(ok).To(BeFalse())
	})

	It("should not forward once the store retired", func() {
		_, ok := q.Forward(0x100, 20)
		Expect(ok).To(BeFalse())
	})

	It("should keep only the youngest store per byte", func() {
		q.Write(0x102, 2, pipeline.StoreEntry{ExecCycle: 9, RetireCycle: 30})

		c, _ := q.Forward(0x102, 3)
		Expect(c).To(Equal(uint64(9)))
		c, _ = q.Forward(0x101, 3)
		Expect(c).To(Equal(uint64(5)))
		Expect(q.Len()).To(Equal(4))
	})

	It("should cover every byte of a store that wraps the address space", func() {
		top := ^uint64(0) - 3
		q.Write(top, 8, pipeline.StoreEntry{ExecCycle: 7, RetireCycle: 40})

		Expect(q.Len()).To(Equal(12))
		c, ok := q.Forward(^uint64(0), 3)
		Expect(ok).To(BeTrue())
		Expect(c).To(Equal(uint64(7)))
		_, ok = q.Forward(3, 3)
		Expect(ok).To(BeTrue())
	})
})
