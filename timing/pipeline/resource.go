package pipeline

import "fmt"

// ResourceSchedule books a fixed number of identical execution lanes per
// cycle. Cycles before the base cycle are forgotten; requests for them are
// served from the base cycle on.
type ResourceSchedule struct {
	width uint
	base  uint64
	// used[i] is the number of lanes booked at cycle base+i.
	used []uint
}

// NewResourceSchedule creates a schedule with width lanes per cycle.
func NewResourceSchedule(width uint) (*ResourceSchedule, error) {
	if width == 0 {
		return nil, fmt.Errorf("resource schedule width must be > 0")
	}
	return &ResourceSchedule{width: width}, nil
}

// BaseCycle returns the oldest cycle still tracked.
func (r *ResourceSchedule) BaseCycle() uint64 {
	return r.base
}

func (r *ResourceSchedule) booked(cycle uint64) uint {
	i := cycle - r.base
	if i >= uint64(len(r.used)) {
		return 0
	}
	return r.used[i]
}

func (r *ResourceSchedule) book(cycle uint64) {
	i := cycle - r.base
	for uint64(len(r.used)) <= i {
		r.used = append(r.used, 0)
	}
	r.used[i]++
}

func (r *ResourceSchedule) firstFree(earliest uint64) uint64 {
	c := max(earliest, r.base)
	for r.booked(c) >= r.width {
		c++
	}
	return c
}

// Schedule books a lane at the first cycle at or after earliest that has
// one free, and returns that cycle.
func (r *ResourceSchedule) Schedule(earliest uint64) uint64 {
	c := r.firstFree(earliest)
	r.book(c)
	return c
}

// TrySchedule returns the cycle Schedule would book without booking it.
func (r *ResourceSchedule) TrySchedule(earliest uint64) uint64 {
	return r.firstFree(earliest)
}

// ScheduleWithin books a lane no later than earliest+maxDelay. It returns
// false and books nothing when every cycle in that range is full or
// already forgotten.
func (r *ResourceSchedule) ScheduleWithin(earliest, maxDelay uint64) (uint64, bool) {
	c := r.firstFree(earliest)
	if c > earliest+maxDelay {
		return 0, false
	}
	r.book(c)
	return c, true
}

// AdvanceBaseCycle forgets every cycle before cycle. The base never moves
// backwards.
func (r *ResourceSchedule) AdvanceBaseCycle(cycle uint64) {
	if cycle <= r.base {
		return
	}

	n := cycle - r.base
	if n >= uint64(len(r.used)) {
		r.used = r.used[:0]
	} else {
		r.used = r.used[n:]
	}
	r.base = cycle
}
