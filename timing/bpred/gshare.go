package bpred

import "github.com/sarchlab/cbpsim/insts"

// GShareConfig holds configuration for the gshare predictor.
type GShareConfig struct {
	// HistoryBits is the global history length, also log2 of the pattern
	// table size. Default is 16.
	HistoryBits uint
}

type gshareMeta struct {
	index uint64
}

// GShare XORs the global branch history with the PC to index a table of
// 2-bit counters. The history is updated speculatively at fetch with the
// true outcome, so it never needs repair. The table index used at predict
// time is remembered per branch until Commit.
type GShare struct {
	bits     uint
	ghr      uint64
	pht      []uint8
	inFlight map[branchKey]gshareMeta
}

// NewGShare creates a new gshare predictor.
func NewGShare(config GShareConfig) *GShare {
	bits := config.HistoryBits
	if bits == 0 {
		bits = 16
	}

	return &GShare{
		bits:     bits,
		pht:      make([]uint8, 1<<bits),
		inFlight: make(map[branchKey]gshareMeta),
	}
}

// Init clears the history and sets every counter to weakly taken.
func (g *GShare) Init() {
	g.ghr = 0
	for i := range g.pht {
		g.pht[i] = 2
	}
	clear(g.inFlight)
}

// Fini does nothing.
func (g *GShare) Fini() {}

func (g *GShare) index(pc uint64) uint64 {
	mask := uint64(len(g.pht) - 1)
	return ((pc >> 2) ^ g.ghr) & mask
}

// Predict looks up the counter selected by pc and the current history.
func (g *GShare) Predict(seqNo uint64, piece uint8, pc uint64) bool {
	idx := g.index(pc)
	g.inFlight[branchKey{seqNo, piece}] = gshareMeta{index: idx}
	return g.pht[idx] >= 2
}

// SpecUpdate shifts the outcome of conditional branches into the history.
func (g *GShare) SpecUpdate(
	_ uint64, _ uint8, _ uint64,
	class insts.InstClass,
	resolveDir, _ bool,
	_ uint64,
) {
	if !class.IsCondBranch() {
		return
	}

	g.ghr <<= 1
	if resolveDir {
		g.ghr |= 1
	}
	g.ghr &= uint64(len(g.pht) - 1)
}

// Update trains the counter used by the prediction.
func (g *GShare) Update(seqNo uint64, piece uint8, _ uint64, resolveDir, _ bool, _ uint64) {
	meta, ok := g.inFlight[branchKey{seqNo, piece}]
	if !ok {
		return
	}

	counter := g.pht[meta.index]
	if resolveDir {
		if counter < 3 {
			g.pht[meta.index] = counter + 1
		}
	} else if counter > 0 {
		g.pht[meta.index] = counter - 1
	}
}

// Commit releases the metadata of the branch.
func (g *GShare) Commit(seqNo uint64, piece uint8, _ uint64) {
	delete(g.inFlight, branchKey{seqNo, piece})
}

// Live returns the number of branches predicted but not yet committed.
func (g *GShare) Live() int {
	return len(g.inFlight)
}
