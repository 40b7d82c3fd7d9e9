package pipeline

import "github.com/sarchlab/cbpsim/insts"

// RegisterFile holds, for every logical register, the cycle at which its
// latest value becomes available to consumers.
type RegisterFile struct {
	ready [insts.NumRegs]uint64
}

// ReadyCycle returns the cycle at which reg can be read.
func (rf *RegisterFile) ReadyCycle(reg uint8) uint64 {
	return rf.ready[reg]
}

// SetReady records the cycle at which reg's new value becomes available.
func (rf *RegisterFile) SetReady(reg uint8, cycle uint64) {
	rf.ready[reg] = cycle
}

// SourcesReady returns the latest ready cycle among the valid sources of
// an operation. The zero register is always ready.
func (rf *RegisterFile) SourcesReady(srcs [3]insts.Operand) uint64 {
	var ready uint64
	for _, s := range srcs {
		if !s.Valid || s.Reg == insts.RegZero {
			continue
		}
		ready = max(ready, rf.ready[s.Reg])
	}
	return ready
}
