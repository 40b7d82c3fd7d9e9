package bpred

import "github.com/sarchlab/cbpsim/insts"

// TargetConfig holds configuration for the target predictor.
type TargetConfig struct {
	// BTBSize is the number of entries in the Branch Target Buffer.
	// Must be a power of 2. Default is 4096.
	BTBSize uint32
	// RASDepth is the number of return addresses kept. Default is 32.
	RASDepth int
}

// TargetStats holds statistics for the target predictor.
type TargetStats struct {
	// BTBHits is the number of BTB hits.
	BTBHits uint64
	// BTBMisses is the number of BTB misses.
	BTBMisses uint64
	// RASUnderflows is the number of returns predicted with an empty stack.
	RASUnderflows uint64
}

// BTBHitRate returns the BTB hit rate as a percentage.
func (s TargetStats) BTBHitRate() float64 {
	total := s.BTBHits + s.BTBMisses
	if total == 0 {
		return 0
	}
	return float64(s.BTBHits) / float64(total) * 100
}

// btbEntry represents an entry in the Branch Target Buffer.
type btbEntry struct {
	valid  bool
	pc     uint64 // The PC of the branch instruction
	target uint64 // The target address
}

// BTBPredictor combines a direct-mapped Branch Target Buffer for
// indirect jumps and calls with a circular return address stack.
type BTBPredictor struct {
	btb []btbEntry
	ras []uint64
	top int
	n   int

	stats TargetStats
}

// NewBTBPredictor creates a new target predictor.
func NewBTBPredictor(config TargetConfig) *BTBPredictor {
	btbSize := config.BTBSize
	if btbSize == 0 {
		btbSize = 4096
	}
	depth := config.RASDepth
	if depth == 0 {
		depth = 32
	}

	return &BTBPredictor{
		btb: make([]btbEntry, btbSize),
		ras: make([]uint64, depth),
	}
}

// Init clears the BTB and the return address stack.
func (p *BTBPredictor) Init() {
	clear(p.btb)
	p.top, p.n = 0, 0
	p.stats = TargetStats{}
}

// Fini does nothing.
func (p *BTBPredictor) Fini() {}

// btbIndex computes the BTB index for a given PC.
func (p *BTBPredictor) btbIndex(pc uint64) uint64 {
	// Use lower bits of PC (excluding alignment bits)
	return (pc >> 2) & uint64(len(p.btb)-1)
}

func (p *BTBPredictor) push(addr uint64) {
	p.top = (p.top + 1) % len(p.ras)
	p.ras[p.top] = addr
	if p.n < len(p.ras) {
		p.n++
	}
}

func (p *BTBPredictor) pop() (uint64, bool) {
	if p.n == 0 {
		return 0, false
	}
	addr := p.ras[p.top]
	p.top = (p.top - 1 + len(p.ras)) % len(p.ras)
	p.n--
	return addr, true
}

// Predict pops the return address stack for returns and looks up the BTB
// otherwise. An indirect call pushes its return address.
func (p *BTBPredictor) Predict(pc uint64, class insts.InstClass) uint64 {
	if class == insts.ClassReturn {
		if addr, ok := p.pop(); ok {
			return addr
		}
		p.stats.RASUnderflows++
	}

	target := pc + 4
	e := p.btb[p.btbIndex(pc)]
	if e.valid && e.pc == pc {
		target = e.target
		p.stats.BTBHits++
	} else {
		p.stats.BTBMisses++
	}

	if class.IsCall() {
		p.push(pc + 4)
	}

	return target
}

// Update records the true target of an indirect jump or call.
func (p *BTBPredictor) Update(pc uint64, class insts.InstClass, target uint64) {
	if class == insts.ClassReturn {
		return
	}
	p.btb[p.btbIndex(pc)] = btbEntry{valid: true, pc: pc, target: target}
}

// Track pushes the return address of direct calls.
func (p *BTBPredictor) Track(pc uint64, class insts.InstClass, _ uint64) {
	if class.IsCall() {
		p.push(pc + 4)
	}
}

// Stats returns the target predictor statistics.
func (p *BTBPredictor) Stats() TargetStats {
	return p.stats
}
