package bpred

import "github.com/sarchlab/cbpsim/insts"

// BimodalConfig holds configuration for the bimodal predictor.
type BimodalConfig struct {
	// TableBits is log2 of the number of 2-bit counters. Default is 14.
	TableBits uint
}

// Bimodal implements a table of 2-bit saturating counters indexed by a
// folded PC.
type Bimodal struct {
	// 2-bit saturating counters
	// States: 0=Strongly Not Taken, 1=Weakly Not Taken,
	//         2=Weakly Taken, 3=Strongly Taken
	table []uint8
	bits  uint
}

// NewBimodal creates a new bimodal predictor.
func NewBimodal(config BimodalConfig) *Bimodal {
	bits := config.TableBits
	if bits == 0 {
		bits = 14
	}

	return &Bimodal{
		table: make([]uint8, 1<<bits),
		bits:  bits,
	}
}

// Init resets every counter to weakly taken.
func (b *Bimodal) Init() {
	for i := range b.table {
		b.table[i] = 2
	}
}

// Fini does nothing.
func (b *Bimodal) Fini() {}

func (b *Bimodal) index(pc uint64) uint64 {
	mask := uint64(len(b.table) - 1)
	return ((pc >> 2) ^ (pc >> (2 + b.bits))) & mask
}

// Predict returns taken when the counter is 2 or 3.
func (b *Bimodal) Predict(_ uint64, _ uint8, pc uint64) bool {
	return b.table[b.index(pc)] >= 2
}

// SpecUpdate does nothing; the bimodal predictor keeps no history.
func (b *Bimodal) SpecUpdate(uint64, uint8, uint64, insts.InstClass, bool, bool, uint64) {}

// Update trains the counter with the resolved direction.
func (b *Bimodal) Update(_ uint64, _ uint8, pc uint64, resolveDir, _ bool, _ uint64) {
	idx := b.index(pc)
	counter := b.table[idx]

	if resolveDir {
		if counter < 3 {
			b.table[idx] = counter + 1
		}
	} else if counter > 0 {
		b.table[idx] = counter - 1
	}
}

// Commit does nothing.
func (b *Bimodal) Commit(uint64, uint8, uint64) {}

// Live always returns 0.
func (b *Bimodal) Live() int { return 0 }
