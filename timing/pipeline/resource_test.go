package pipeline_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cbpsim/timing/pipeline"
)

var _ = Describe("ResourceSchedule", func() {
	var r *pipeline.ResourceSchedule

	BeforeEach(func() {
		var err error
		r, err = pipeline.NewResourceSchedule(2)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should reject zero width", func() {
		_, err := pipeline.NewResourceSchedule(0)
		Expect(err).To(HaveOccurred())
	})

	It("should grant at most width slots per cycle", func() {
		Expect(r.Schedule(5)).To(Equal(uint64(5)))
		Expect(r.Schedule(5)).To(Equal(uint64(5)))
		Expect(r.Schedule(5)).To(Equal(uint64(6)))
		Expect(r.Schedule(4)).To(Equal(uint64(4)))
	})

	It("should not consume a slot when probing", func() {
		r.Schedule(3)
		Expect(r.TrySchedule(3)).To(Equal(uint64(3)))
		Expect(r.TrySchedule(3)).To(Equal(uint64(3)))
		r.Schedule(3)
		Expect(r.TrySchedule(3)).To(Equal(uint64(4)))
	})

	It("should fail a bounded request when every cycle is full", func() {
		r.Schedule(7)
		r.Schedule(7)

		_, ok := r.ScheduleWithin(7, 0)
		Expect(ok).To(BeFalse())

		c, ok := r.ScheduleWithin(7, 1)
		Expect(ok).To(BeTrue())
		Expect(c).To(Equal(uint64(8)))
	})

	It("should clamp requests before the base cycle", func() {
		r.Schedule(1)
		r.AdvanceBaseCycle(10)

		Expect(r.BaseCycle()).To(Equal(uint64(10)))
		Expect(r.Schedule(3)).To(Equal(uint64(10)))

		_, ok := r.ScheduleWithin(3, 2)
		Expect(ok).To(BeFalse())
	})

	It("should keep bookings at or after the base cycle", func() {
		r.Schedule(12)
		r.Schedule(12)
		r.AdvanceBaseCycle(11)

		Expect(r.Schedule(12)).To(Equal(uint64(13)))
	})

	It("should never move the base backwards", func() {
		r.AdvanceBaseCycle(20)
		r.AdvanceBaseCycle(5)
		Expect(r.BaseCycle()).To(Equal(uint64(20)))
	})
})
