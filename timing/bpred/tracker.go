package bpred

import (
	"math/rand/v2"

	"github.com/sarchlab/cbpsim/insts"
)

// TrackerConfig configures a Tracker.
type TrackerConfig struct {
	// MispReductionPercent is the percentage of conditional mispredictions
	// turned into correct predictions. 0 disables, 100 corrects all.
	MispReductionPercent uint
	// Seed seeds the draws of the misprediction reduction.
	Seed uint64
	// PerfectIndirect makes every indirect jump, indirect call and return
	// correctly predicted without consulting the target predictor.
	PerfectIndirect bool
	// Perfect makes every branch correctly predicted without consulting
	// any predictor. Branches are still counted.
	Perfect bool
}

// Outcome is the classification of one micro-operation.
type Outcome struct {
	// Mispredicted is true when the front end must be redirected.
	Mispredicted bool
	// PredTaken is the direction the front end followed.
	PredTaken bool
	// DirPredicted is true when the direction predictor was consulted, in
	// which case it expects Update and Commit for the branch.
	DirPredicted bool
}

// Tracker classifies control transfers, consults the predictors and keeps
// per-epoch outcome counters.
type Tracker struct {
	dir    DirectionPredictor
	target TargetPredictor
	config TrackerConfig
	rng    *rand.Rand

	epochs []Counters
}

// NewTracker creates a tracker. The first epoch is open on return.
func NewTracker(dir DirectionPredictor, target TargetPredictor, config TrackerConfig) *Tracker {
	return &Tracker{
		dir:    dir,
		target: target,
		config: config,
		rng:    rand.New(rand.NewPCG(config.Seed, config.Seed^0x9e3779b97f4a7c15)),
		epochs: []Counters{{}},
	}
}

// Init initializes the predictors.
func (t *Tracker) Init() {
	t.dir.Init()
	if t.target != nil {
		t.target.Init()
	}
}

// Fini finalizes the predictors.
func (t *Tracker) Fini() {
	t.dir.Fini()
	if t.target != nil {
		t.target.Fini()
	}
}

// Direction returns the direction predictor.
func (t *Tracker) Direction() DirectionPredictor {
	return t.dir
}

func (t *Tracker) current() *Counters {
	return &t.epochs[len(t.epochs)-1]
}

// Predict classifies the micro-operation (seqNo, piece) at fetch.
func (t *Tracker) Predict(
	seqNo uint64,
	piece uint8,
	class insts.InstClass,
	pc, nextPC uint64,
) Outcome {
	cnt := t.current()

	switch {
	case class.IsCondBranch():
		return t.predictCond(cnt, seqNo, piece, pc, nextPC)

	case class.IsUncondDirect():
		cnt.DirectJumps++
		if !t.config.Perfect {
			t.dir.SpecUpdate(seqNo, piece, pc, class, true, true, nextPC)
			if !t.config.PerfectIndirect {
				t.target.Track(pc, class, nextPC)
			}
		}
		return Outcome{PredTaken: true}

	case class.IsUncondIndirect():
		return t.predictIndirect(cnt, seqNo, piece, class, pc, nextPC)

	default:
		cnt.NonControl++
		if nextPC != pc+4 {
			cnt.NonControlAnomalies++
		}
		return Outcome{}
	}
}

func (t *Tracker) predictCond(
	cnt *Counters,
	seqNo uint64,
	piece uint8,
	pc, nextPC uint64,
) Outcome {
	taken := nextPC != pc+4
	cnt.CondBranches++

	if t.config.Perfect {
		return Outcome{PredTaken: taken}
	}

	predTaken := t.dir.Predict(seqNo, piece, pc)
	misp := predTaken != taken

	if misp && t.config.MispReductionPercent != 0 {
		flip := t.config.MispReductionPercent >= 100 ||
			t.rng.UintN(100) < t.config.MispReductionPercent
		if flip {
			misp = false
			predTaken = taken
			cnt.CondCorrected++
		}
	}

	t.dir.SpecUpdate(seqNo, piece, pc, insts.ClassCondBranch, taken, predTaken, nextPC)

	if misp {
		cnt.CondMispredicts++
	}

	return Outcome{Mispredicted: misp, PredTaken: predTaken, DirPredicted: true}
}

func (t *Tracker) predictIndirect(
	cnt *Counters,
	seqNo uint64,
	piece uint8,
	class insts.InstClass,
	pc, nextPC uint64,
) Outcome {
	isRet := class == insts.ClassReturn
	if isRet {
		cnt.Returns++
	} else {
		cnt.IndirectJumps++
	}

	if t.config.Perfect {
		return Outcome{PredTaken: true}
	}

	misp := false
	if !t.config.PerfectIndirect {
		misp = t.target.Predict(pc, class) != nextPC
		t.target.Update(pc, class, nextPC)

		if misp && isRet {
			cnt.ReturnMispredicts++
		} else if misp {
			cnt.IndirectMispredicts++
		}
	}

	t.dir.SpecUpdate(seqNo, piece, pc, class, true, true, nextPC)

	return Outcome{Mispredicted: misp, PredTaken: true}
}

// Resolve forwards the execution of a predicted conditional branch to the
// direction predictor.
func (t *Tracker) Resolve(seqNo uint64, piece uint8, pc uint64, taken, predTaken bool, nextPC uint64) {
	t.dir.Update(seqNo, piece, pc, taken, predTaken, nextPC)
}

// Commit forwards the retirement of a predicted conditional branch to the
// direction predictor.
func (t *Tracker) Commit(seqNo uint64, piece uint8, pc uint64) {
	t.dir.Commit(seqNo, piece, pc)
}

// BeginEpoch opens a new epoch.
func (t *Tracker) BeginEpoch() {
	t.epochs = append(t.epochs, Counters{})
}

// AddWrongPathCycles charges wrong-path cycles to the current epoch.
func (t *Tracker) AddWrongPathCycles(cycles uint64) {
	t.current().WrongPathCycles += cycles
}

// Epochs returns the counters of every epoch, the open one last.
func (t *Tracker) Epochs() []Counters {
	return t.epochs
}

// Totals returns the counters summed over all epochs.
func (t *Tracker) Totals() Counters {
	var total Counters
	for _, e := range t.epochs {
		total = total.Add(e)
	}
	return total
}
