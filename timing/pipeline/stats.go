package pipeline

import (
	"github.com/sarchlab/cbpsim/timing/bpred"
	"github.com/sarchlab/cbpsim/timing/cache"
	"github.com/sarchlab/cbpsim/timing/prefetch"
)

// Epoch is one closed measurement interval.
type Epoch struct {
	// Instructions retired in the epoch.
	Instructions uint64
	// Cycles between the end of the previous epoch and the end of this one.
	Cycles uint64
	// Branch holds the branch outcome counters of the epoch.
	Branch bpred.Counters
}

// IPC returns the epoch's instructions per cycle.
func (e Epoch) IPC() float64 {
	if e.Cycles == 0 {
		return 0
	}
	return float64(e.Instructions) / float64(e.Cycles)
}

// CacheStats is the report of one cache level.
type CacheStats struct {
	Name   string
	Config cache.Config
	Stats  cache.Statistics
}

// Statistics holds pipeline performance statistics.
type Statistics struct {
	// Instructions is the number of macro-instructions simulated.
	Instructions uint64
	// MicroOps is the number of micro-operations simulated.
	MicroOps uint64
	// Cycles is the latest execute cycle of any micro-operation.
	Cycles uint64
	// WrongPathCycles is the number of fetch cycles lost to branch
	// mispredictions.
	WrongPathCycles uint64

	// Loads is the number of load micro-operations.
	Loads uint64
	// LoadsSQMiss counts loads with at least one byte not forwarded by the
	// store queue.
	LoadsSQMiss uint64

	// PrefetchesIssued is the number of prefetches sent to the L1.
	PrefetchesIssued uint64
	Prefetcher       prefetch.Stats

	// Value prediction counters.
	VPEligible  uint64
	VPCorrect   uint64
	VPIncorrect uint64

	// Branch is the sum of the branch counters of every epoch.
	Branch bpred.Counters
	// Epochs lists closed epochs in order.
	Epochs []Epoch

	Caches         []CacheStats
	MemoryAccesses uint64
}

// IPC returns the instructions per cycle.
func (s Statistics) IPC() float64 {
	if s.Cycles == 0 {
		return 0
	}
	return float64(s.Instructions) / float64(s.Cycles)
}

// CPI returns the cycles per instruction.
func (s Statistics) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// SQMissRate returns the percentage of loads that missed the store queue.
func (s Statistics) SQMissRate() float64 {
	if s.Loads == 0 {
		return 0
	}
	return 100 * float64(s.LoadsSQMiss) / float64(s.Loads)
}
