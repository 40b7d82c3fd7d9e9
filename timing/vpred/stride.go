package vpred

// StrideConfig holds configuration for the stride value predictor.
type StrideConfig struct {
	// TableBits is log2 of the number of entries. Default is 12.
	TableBits uint
	// Threshold is the confidence needed to speculate. Default is 3.
	Threshold uint8
	// MaxConfidence saturates the confidence counters. Default is 7.
	MaxConfidence uint8
}

type strideEntry struct {
	valid      bool
	pc         uint64
	piece      uint8
	last       uint64
	stride     uint64
	confidence uint8
	inFlight   uint64
}

type pending struct {
	index     int
	candidate bool
}

// StridePredictor predicts last value plus stride, scaled by the number of
// in-flight instances of the same micro-operation.
type StridePredictor struct {
	config StrideConfig
	table  []strideEntry
	live   map[uint64]pending
}

// NewStridePredictor creates a stride value predictor.
func NewStridePredictor(config StrideConfig) *StridePredictor {
	if config.TableBits == 0 {
		config.TableBits = 12
	}
	if config.Threshold == 0 {
		config.Threshold = 3
	}
	if config.MaxConfidence == 0 {
		config.MaxConfidence = 7
	}

	return &StridePredictor{
		config: config,
		table:  make([]strideEntry, 1<<config.TableBits),
		live:   make(map[uint64]pending),
	}
}

// Init clears the table.
func (p *StridePredictor) Init() {
	clear(p.table)
	clear(p.live)
}

// Fini does nothing.
func (p *StridePredictor) Fini() {}

func (p *StridePredictor) index(pc uint64, piece uint8) int {
	return int(((pc >> 2) ^ uint64(piece)) & uint64(len(p.table)-1))
}

// Predict looks the micro-operation up and speculates on a confident entry.
func (p *StridePredictor) Predict(req Request) Result {
	idx := p.index(req.PC, req.Piece)
	p.live[req.SeqNo] = pending{index: idx, candidate: req.Candidate}

	if !req.Candidate {
		return Result{}
	}

	e := &p.table[idx]
	if !e.valid || e.pc != req.PC || e.piece != req.Piece {
		*e = strideEntry{valid: true, pc: req.PC, piece: req.Piece}
	}

	e.inFlight++
	value := e.last + e.stride*e.inFlight

	return Result{
		Value:     value,
		Speculate: e.confidence >= p.config.Threshold,
	}
}

// SpecUpdate resets the confidence of an entry that just mispredicted.
func (p *StridePredictor) SpecUpdate(info SpecInfo) {
	if !info.Eligible || info.Verdict != VerdictIncorrect {
		return
	}
	e := &p.table[p.index(info.PC, info.Piece)]
	if e.valid && e.pc == info.PC {
		e.confidence = 0
	}
}

// Update trains the entry used by seqNo with the produced value.
func (p *StridePredictor) Update(seqNo uint64, _ uint64, value uint64, _ uint64) {
	pd, ok := p.live[seqNo]
	if !ok {
		return
	}
	delete(p.live, seqNo)

	if !pd.candidate {
		return
	}

	e := &p.table[pd.index]
	if !e.valid {
		return
	}
	if e.inFlight > 0 {
		e.inFlight--
	}

	stride := value - e.last
	if stride == e.stride {
		if e.confidence < p.config.MaxConfidence {
			e.confidence++
		}
	} else {
		e.stride = stride
		e.confidence = 0
	}
	e.last = value
}

// Live returns the number of micro-operations predicted but not yet
// retired.
func (p *StridePredictor) Live() int {
	return len(p.live)
}
