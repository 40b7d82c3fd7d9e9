package bpred

import "github.com/sarchlab/cbpsim/insts"

// PerceptronConfig holds configuration for the perceptron predictor.
type PerceptronConfig struct {
	// HistoryLengths lists, per feature table, how many global history
	// bits are hashed into its index. Default is {0, 2, 4, 8, 10, 16, 24,
	// 48}.
	HistoryLengths []uint
	// TableBits is log2 of the number of weights per feature table.
	// Default is 10.
	TableBits uint
}

const (
	weightMax = 127
	weightMin = -128

	// thresholdSteps is the number of consecutive training events in one
	// direction that move the threshold by one.
	thresholdSteps = 64
)

type perceptronMeta struct {
	y       int
	indices []uint32
}

// Perceptron sums one signed weight from each of several feature tables.
// Each table is indexed by a hash of the PC, a different length of global
// history and the path history. A branch is predicted taken when the sum is
// positive. Weights are trained on a misprediction or when the sum is within
// the threshold, and the threshold adapts to keep the two kinds of training
// events balanced.
type Perceptron struct {
	lengths []uint
	bits    uint
	weights [][]int8

	ghr uint64
	phr uint64

	theta   int
	counter int

	inFlight map[branchKey]perceptronMeta
}

// NewPerceptron creates a new perceptron predictor.
func NewPerceptron(config PerceptronConfig) *Perceptron {
	lengths := config.HistoryLengths
	if len(lengths) == 0 {
		lengths = []uint{0, 2, 4, 8, 10, 16, 24, 48}
	}
	bits := config.TableBits
	if bits == 0 {
		bits = 10
	}

	p := &Perceptron{
		lengths:  append([]uint(nil), lengths...),
		bits:     bits,
		weights:  make([][]int8, len(lengths)),
		inFlight: make(map[branchKey]perceptronMeta),
	}
	for i := range p.weights {
		p.weights[i] = make([]int8, 1<<bits)
	}

	return p
}

// InitialTheta returns the training threshold after Init for n feature
// tables.
func InitialTheta(n int) int {
	return int(1.93*float64(n)) + 14
}

// Init clears the weights, the histories and the threshold state.
func (p *Perceptron) Init() {
	for _, table := range p.weights {
		clear(table)
	}
	p.ghr = 0
	p.phr = 0
	p.theta = InitialTheta(len(p.weights))
	p.counter = 0
	clear(p.inFlight)
}

// Fini does nothing.
func (p *Perceptron) Fini() {}

// Theta returns the current training threshold.
func (p *Perceptron) Theta() int {
	return p.theta
}

// fold XORs bits-wide chunks of v together.
func (p *Perceptron) fold(v uint64) uint32 {
	mask := uint64(1)<<p.bits - 1
	var r uint64
	for ; v != 0; v >>= p.bits {
		r ^= v & mask
	}
	return uint32(r)
}

func (p *Perceptron) index(feature int, pc uint64) uint32 {
	var hist uint64
	if n := p.lengths[feature]; n >= 64 {
		hist = p.ghr
	} else {
		hist = p.ghr & (uint64(1)<<n - 1)
	}
	return p.fold(pc ^ hist ^ (p.phr >> feature))
}

// Predict sums the weights selected by pc and the current histories.
func (p *Perceptron) Predict(seqNo uint64, piece uint8, pc uint64) bool {
	meta := perceptronMeta{indices: make([]uint32, len(p.weights))}
	for i, table := range p.weights {
		idx := p.index(i, pc)
		meta.indices[i] = idx
		meta.y += int(table[idx])
	}

	p.inFlight[branchKey{seqNo, piece}] = meta
	return meta.y > 0
}

// SpecUpdate shifts the outcome of every branch into the global history
// and two PC bits into the path history.
func (p *Perceptron) SpecUpdate(
	_ uint64, _ uint8, pc uint64,
	_ insts.InstClass,
	resolveDir, _ bool,
	_ uint64,
) {
	p.ghr <<= 1
	if resolveDir {
		p.ghr |= 1
	}
	p.phr = p.phr<<2 ^ (pc>>2)&0x3
}

// Update trains the weights used by the prediction and adapts the
// threshold.
func (p *Perceptron) Update(seqNo uint64, piece uint8, _ uint64, resolveDir, predDir bool, _ uint64) {
	meta, ok := p.inFlight[branchKey{seqNo, piece}]
	if !ok {
		return
	}

	mispredicted := predDir != resolveDir
	weak := abs(meta.y) <= p.theta

	if mispredicted || weak {
		delta := -1
		if resolveDir {
			delta = 1
		}
		for i, idx := range meta.indices {
			p.weights[i][idx] = saturate(int(p.weights[i][idx]) + delta)
		}
	}

	switch {
	case mispredicted:
		p.counter++
		if p.counter == thresholdSteps {
			p.counter = 0
			p.theta++
		}
	case weak:
		p.counter--
		if p.counter == -thresholdSteps {
			p.counter = 0
			if p.theta > 0 {
				p.theta--
			}
		}
	}
}

// Commit releases the metadata of the branch.
func (p *Perceptron) Commit(seqNo uint64, piece uint8, _ uint64) {
	delete(p.inFlight, branchKey{seqNo, piece})
}

// Live returns the number of branches predicted but not yet committed.
func (p *Perceptron) Live() int {
	return len(p.inFlight)
}

func saturate(w int) int8 {
	return int8(min(max(w, weightMin), weightMax))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
