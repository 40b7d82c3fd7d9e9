package report

import (
	"github.com/sarchlab/cbpsim/timing/bpred"
	"github.com/sarchlab/cbpsim/timing/pipeline"
)

// Interval aggregates conditional branch measurements over consecutive
// epochs.
type Interval struct {
	Instructions    uint64
	Cycles          uint64
	Branches        uint64
	Mispredicts     uint64
	WrongPathCycles uint64
}

func (iv Interval) add(e pipeline.Epoch) Interval {
	iv.Instructions += e.Instructions
	iv.Cycles += e.Cycles
	iv.Branches += e.Branch.CondBranches
	iv.Mispredicts += e.Branch.CondMispredicts
	iv.WrongPathCycles += e.Branch.WrongPathCycles
	return iv
}

// IPC returns instructions per cycle.
func (iv Interval) IPC() float64 {
	return ratio(iv.Instructions, iv.Cycles)
}

// BranchesPerCycle returns conditional branches per cycle.
func (iv Interval) BranchesPerCycle() float64 {
	return ratio(iv.Branches, iv.Cycles)
}

// MispredictsPerCycle returns conditional mispredictions per cycle.
func (iv Interval) MispredictsPerCycle() float64 {
	return ratio(iv.Mispredicts, iv.Cycles)
}

// MispredictionRate returns the conditional misprediction rate in percent.
func (iv Interval) MispredictionRate() float64 {
	return bpred.MispredictionRate(iv.Mispredicts, iv.Branches)
}

// MPKI returns conditional mispredictions per thousand instructions.
func (iv Interval) MPKI() float64 {
	return bpred.PerKilo(iv.Mispredicts, iv.Instructions)
}

// WrongPathAvg returns wrong-path cycles per conditional misprediction.
func (iv Interval) WrongPathAvg() float64 {
	return ratio(iv.WrongPathCycles, iv.Mispredicts)
}

// WrongPathPKI returns wrong-path cycles per thousand instructions.
func (iv Interval) WrongPathPKI() float64 {
	return bpred.PerKilo(iv.WrongPathCycles, iv.Instructions)
}

// Trailing sums epochs from the last one backwards until more than target
// instructions are covered, or every epoch is.
func Trailing(epochs []pipeline.Epoch, target uint64) Interval {
	var iv Interval
	for i := len(epochs) - 1; i >= 0; i-- {
		iv = iv.add(epochs[i])
		if iv.Instructions > target {
			break
		}
	}
	return iv
}

// Full sums every epoch.
func Full(epochs []pipeline.Epoch) Interval {
	var iv Interval
	for _, e := range epochs {
		iv = iv.add(e)
	}
	return iv
}

// Single returns the interval of one epoch.
func Single(e pipeline.Epoch) Interval {
	return Interval{}.add(e)
}

// TrailingWindows lists the standard trailing summaries of a run.
func TrailingWindows(epochs []pipeline.Epoch) []NamedInterval {
	full := Full(epochs)
	return []NamedInterval{
		{Name: "Last 10M instructions", Interval: Trailing(epochs, 10_000_000)},
		{Name: "Last 25M instructions", Interval: Trailing(epochs, 25_000_000)},
		{Name: "50 Perc instructions", Interval: Trailing(epochs, full.Instructions/2)},
		{Name: "Full Simulation", Interval: full},
	}
}

// NamedInterval is an Interval with a table title.
type NamedInterval struct {
	Name string
	Interval
}

func ratio(a, b uint64) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}
