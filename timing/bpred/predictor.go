// Package bpred provides branch predictor plugins and the branch outcome
// tracker that classifies every control transfer, decides whether it is
// mispredicted and keeps per-epoch misprediction counters.
//
// A direction predictor sees each conditional branch four times, in this
// order: Predict and SpecUpdate when the branch is fetched, Update when it
// executes and Commit when it retires. Metadata a predictor keeps between
// Predict and Commit must be released at Commit.
package bpred

import "github.com/sarchlab/cbpsim/insts"

// DirectionPredictor predicts the direction of conditional branches.
type DirectionPredictor interface {
	// Init is called once before the first prediction.
	Init()
	// Fini is called once after the last commit.
	Fini()

	// Predict returns the predicted direction of the conditional branch
	// (seqNo, piece) at pc.
	Predict(seqNo uint64, piece uint8, pc uint64) bool

	// SpecUpdate is called at fetch for every branch, conditional or not,
	// with its true direction. predDir is the direction the core acted on.
	SpecUpdate(seqNo uint64, piece uint8, pc uint64, class insts.InstClass,
		resolveDir, predDir bool, nextPC uint64)

	// Update is called when a predicted conditional branch executes.
	Update(seqNo uint64, piece uint8, pc uint64, resolveDir, predDir bool, nextPC uint64)

	// Commit is called when a predicted conditional branch retires.
	Commit(seqNo uint64, piece uint8, pc uint64)
}

// TargetPredictor predicts the targets of indirect jumps, indirect calls
// and returns.
type TargetPredictor interface {
	Init()
	Fini()

	// Predict returns the predicted target of the indirect branch at pc.
	Predict(pc uint64, class insts.InstClass) uint64
	// Update trains the predictor with the true target of an indirect
	// branch.
	Update(pc uint64, class insts.InstClass, target uint64)
	// Track observes a direct jump or call and its target.
	Track(pc uint64, class insts.InstClass, target uint64)
}

// MetadataHolder is implemented by predictors that keep per-branch state
// between Predict and Commit.
type MetadataHolder interface {
	// Live returns the number of branches whose metadata has not been
	// released yet.
	Live() int
}

type branchKey struct {
	seqNo uint64
	piece uint8
}
