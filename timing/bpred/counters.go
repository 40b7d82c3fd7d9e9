package bpred

// Counters holds the branch outcome counts of one epoch.
type Counters struct {
	CondBranches    uint64
	CondMispredicts uint64
	// CondCorrected counts conditional mispredictions removed by the
	// misprediction reduction setting.
	CondCorrected uint64

	DirectJumps uint64

	IndirectJumps       uint64
	IndirectMispredicts uint64

	Returns           uint64
	ReturnMispredicts uint64

	// NonControl counts other micro-operations; NonControlAnomalies those
	// whose next PC is not the sequential one.
	NonControl          uint64
	NonControlAnomalies uint64

	WrongPathCycles uint64
}

// Add returns the element-wise sum of c and o.
func (c Counters) Add(o Counters) Counters {
	return Counters{
		CondBranches:        c.CondBranches + o.CondBranches,
		CondMispredicts:     c.CondMispredicts + o.CondMispredicts,
		CondCorrected:       c.CondCorrected + o.CondCorrected,
		DirectJumps:         c.DirectJumps + o.DirectJumps,
		IndirectJumps:       c.IndirectJumps + o.IndirectJumps,
		IndirectMispredicts: c.IndirectMispredicts + o.IndirectMispredicts,
		Returns:             c.Returns + o.Returns,
		ReturnMispredicts:   c.ReturnMispredicts + o.ReturnMispredicts,
		NonControl:          c.NonControl + o.NonControl,
		NonControlAnomalies: c.NonControlAnomalies + o.NonControlAnomalies,
		WrongPathCycles:     c.WrongPathCycles + o.WrongPathCycles,
	}
}

// Classified returns the number of micro-operations seen by the tracker.
func (c Counters) Classified() uint64 {
	return c.CondBranches + c.DirectJumps + c.IndirectJumps + c.Returns + c.NonControl
}

// Mispredicts returns all mispredictions that caused a redirect.
func (c Counters) Mispredicts() uint64 {
	return c.CondMispredicts + c.IndirectMispredicts + c.ReturnMispredicts
}

// WrongPathAvg returns the mean wrong-path cycles per conditional
// misprediction.
func (c Counters) WrongPathAvg() float64 {
	if c.CondMispredicts == 0 {
		return 0
	}
	return float64(c.WrongPathCycles) / float64(c.CondMispredicts)
}

// MispredictionRate returns m/n as a percentage.
func MispredictionRate(m, n uint64) float64 {
	if n == 0 {
		return 0
	}
	return float64(m) / float64(n) * 100
}

// PerKilo returns events per thousand instructions.
func PerKilo(events, instructions uint64) float64 {
	if instructions == 0 {
		return 0
	}
	return float64(events) * 1000 / float64(instructions)
}
