// Package vpred provides value predictor plugins.
//
// The core asks the predictor for every micro-operation it fetches, reports
// the outcome of the prediction right away, and trains the predictor with
// the produced value when the micro-operation retires.
package vpred

import (
	"fmt"

	"github.com/sarchlab/cbpsim/insts"
	"github.com/sarchlab/cbpsim/timing/cache"
)

// Track selects which micro-operations are candidates for prediction.
type Track int

// Prediction tracks.
const (
	// TrackAll makes every micro-operation with a predictable destination
	// a candidate.
	TrackAll Track = iota
	// TrackLoadsOnly restricts candidates to loads.
	TrackLoadsOnly
	// TrackLoadsOnlyHitMiss restricts candidates to loads and tells the
	// predictor where each load would hit in the cache hierarchy.
	TrackLoadsOnlyHitMiss
)

var trackNames = map[Track]string{
	TrackAll:              "all",
	TrackLoadsOnly:        "loads",
	TrackLoadsOnlyHitMiss: "loads-hitmiss",
}

func (t Track) String() string {
	if name, ok := trackNames[t]; ok {
		return name
	}
	return fmt.Sprintf("track(%d)", int(t))
}

// ParseTrack converts a track name into a Track.
func ParseTrack(name string) (Track, error) {
	for t, n := range trackNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown value prediction track %q", name)
}

// Eligible reports whether an op of class with destination dst is a
// candidate under track t. Absent and flags destinations never are.
func (t Track) Eligible(class insts.InstClass, dst insts.Operand) bool {
	if !dst.Valid || dst.Reg == insts.RegFlags || dst.Reg == insts.RegZero {
		return false
	}
	if t == TrackAll {
		return true
	}
	return class.IsLoad()
}

// Request describes one micro-operation at fetch.
type Request struct {
	SeqNo     uint64
	Piece     uint8
	PC        uint64
	Candidate bool

	// HasHitLevel is set on the loads-hitmiss track.
	HasHitLevel bool
	HitLevel    cache.HitLevel
}

// Result is the answer of a predictor.
type Result struct {
	Value     uint64
	Speculate bool
}

// Verdict is the outcome of a prediction, known at fetch in a trace-driven
// simulation.
type Verdict int

// Verdicts.
const (
	VerdictIncorrect Verdict = iota
	VerdictCorrect
	VerdictUnknown
)

// SpecInfo reports a prediction outcome back to the predictor.
type SpecInfo struct {
	SeqNo    uint64
	Piece    uint8
	PC       uint64
	NextPC   uint64
	Class    insts.InstClass
	Eligible bool
	Verdict  Verdict
	Dst      insts.Operand
}

// Predictor is a value predictor plugin.
type Predictor interface {
	Init()
	Fini()

	// Predict is called at fetch for every micro-operation.
	Predict(req Request) Result
	// SpecUpdate is called right after Predict.
	SpecUpdate(info SpecInfo)
	// Update is called at retire with the produced value and the
	// micro-operation's execution latency.
	Update(seqNo uint64, addr uint64, value uint64, latency uint64)
}
