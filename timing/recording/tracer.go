package recording

import (
	"github.com/sarchlab/cbpsim/timing/pipeline"
)

type commitRow struct {
	runID  string
	seqNo  uint64
	piece  uint8
	pc     int64
	class  string
	fetch  uint64
	decode uint64
	exec   uint64
	retire uint64
}

// CommitTracer is a pipeline.StageObserver that records the stage cycles
// of every retired micro-operation.
type CommitTracer struct {
	r     *Recorder
	runID string

	// Every keeps one commit out of Every. 0 and 1 keep all of them.
	Every uint64

	seen uint64
	err  error
}

// NewCommitTracer creates a tracer recording commits under runID.
func (r *Recorder) NewCommitTracer(runID string) *CommitTracer {
	return &CommitTracer{r: r, runID: runID}
}

// NotifyDecode does nothing.
func (t *CommitTracer) NotifyDecode(*pipeline.WindowEntry, uint64) {}

// NotifyExecute does nothing.
func (t *CommitTracer) NotifyExecute(*pipeline.WindowEntry, uint64) {}

// NotifyCommit buffers the entry and flushes once the batch is full.
func (t *CommitTracer) NotifyCommit(e *pipeline.WindowEntry, _ uint64) {
	t.seen++
	if t.Every > 1 && (t.seen-1)%t.Every != 0 {
		return
	}

	r := t.r
	r.commits = append(r.commits, commitRow{
		runID:  t.runID,
		seqNo:  e.SeqNo,
		piece:  e.Piece,
		pc:     int64(e.PC),
		class:  e.Info.Decode.Class.String(),
		fetch:  e.FetchCycle,
		decode: e.DecodeCycle,
		exec:   e.ExecCycle,
		retire: e.RetireCycle,
	})

	if len(r.commits) >= r.batchSize && t.err == nil {
		t.err = r.Flush()
	}
}

// Err returns the first error met while flushing.
func (t *CommitTracer) Err() error {
	return t.err
}
