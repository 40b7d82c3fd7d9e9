// Package pipeline provides the trace-driven timing core.
//
// The core never simulates cycle by cycle. Each micro-operation is timed
// once, when it is fetched, by computing its fetch, execute and retire
// cycles from the readiness of its sources, the availability of execution
// lanes, the memory hierarchy and the state of the instruction window.
// Stage notifications (decode, execute, commit) are queued as events and
// delivered to the predictors and observers lazily, whenever the fetch
// cycle moves past them.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sarchlab/cbpsim/insts"
	"github.com/sarchlab/cbpsim/timing/bpred"
	"github.com/sarchlab/cbpsim/timing/cache"
	"github.com/sarchlab/cbpsim/timing/config"
	"github.com/sarchlab/cbpsim/timing/latency"
	"github.com/sarchlab/cbpsim/timing/prefetch"
	"github.com/sarchlab/cbpsim/timing/vpred"
)

const (
	// agenLatency is the address generation latency of loads.
	agenLatency = 1
	// sqSearchLatency is the store queue search latency of loads.
	sqSearchLatency = 1
)

// Option is a functional option for configuring the Pipeline.
type Option func(*Pipeline)

// WithDirectionPredictor replaces the direction predictor named by the
// configuration.
func WithDirectionPredictor(dir bpred.DirectionPredictor) Option {
	return func(p *Pipeline) {
		p.dir = dir
	}
}

// WithTargetPredictor replaces the default BTB/RAS target predictor.
func WithTargetPredictor(target bpred.TargetPredictor) Option {
	return func(p *Pipeline) {
		p.target = target
	}
}

// WithValuePredictor replaces the default stride value predictor.
func WithValuePredictor(vp vpred.Predictor) Option {
	return func(p *Pipeline) {
		p.vp = vp
	}
}

// WithObserver adds a stage observer. Observers are notified after the
// branch predictors.
func WithObserver(o StageObserver) Option {
	return func(p *Pipeline) {
		p.observers = append(p.observers, o)
	}
}

// WithLogger sets the logger used for per-step tracing and errors.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// Pipeline is the timing core.
type Pipeline struct {
	config  *config.Config
	latency *latency.Table
	logger  *slog.Logger
	debug   bool

	mem  *cache.Hierarchy
	pf   *prefetch.StridePrefetcher
	alu  *ResourceSchedule
	ldst *ResourceSchedule
	rf   RegisterFile
	sq   *StoreQueue

	window *Window
	dq     decodeQueue
	eq     executeQueue

	dir       bpred.DirectionPredictor
	target    bpred.TargetPredictor
	tracker   *bpred.Tracker
	vp        vpred.Predictor
	track     vpred.Track
	observers []StageObserver

	seqNo     uint64
	piece     uint8
	fetch     uint64
	prevFetch uint64
	cycle     uint64

	numFetched         uint
	numFetchedBranches uint

	stats        Statistics
	epochInsts   uint64
	lastEpochEnd uint64
	epochs       []Epoch

	finished bool
	err      error
}

// NewPipeline creates a timing core for cfg. The configuration is copied.
func NewPipeline(cfg *config.Config, opts ...Option) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	p := &Pipeline{
		config: cfg.Clone(),
		logger: slog.Default(),
		sq:     NewStoreQueue(),
		window: NewWindow(cfg.WindowSize),
		track:  cfg.VPTrack(),
	}
	p.latency = latency.NewTableWithConfig(&p.config.Latency)

	for _, opt := range opts {
		opt(p)
	}

	if err := p.build(); err != nil {
		return nil, err
	}

	p.debug = p.logger.Enabled(context.Background(), slog.LevelDebug)

	p.tracker.Init()
	if p.vp != nil {
		p.vp.Init()
	}

	return p, nil
}

func (p *Pipeline) build() error {
	var err error

	p.alu, err = NewResourceSchedule(p.config.ALULanes)
	if err != nil {
		return fmt.Errorf("alu lanes: %w", err)
	}
	p.ldst, err = NewResourceSchedule(p.config.LoadStoreLanes)
	if err != nil {
		return fmt.Errorf("load/store lanes: %w", err)
	}

	p.mem = cache.NewHierarchy(p.config.Memory)

	pfConfig := p.config.Prefetcher.Config
	if !p.config.Prefetcher.Enable {
		pfConfig = prefetch.DefaultConfig()
	}
	p.pf = prefetch.NewStridePrefetcher(pfConfig)

	if p.dir == nil {
		name := p.config.Branch.Direction
		if name == "" {
			name = "bimodal"
		}
		p.dir, err = bpred.NewDirectionPredictor(name)
		if err != nil {
			return err
		}
	}
	if p.target == nil {
		p.target = bpred.NewBTBPredictor(bpred.TargetConfig{
			BTBSize:  p.config.Branch.BTBSize,
			RASDepth: p.config.Branch.RASDepth,
		})
	}
	p.tracker = bpred.NewTracker(p.dir, p.target, bpred.TrackerConfig{
		MispReductionPercent: p.config.Branch.MispReductionPercent,
		Seed:                 p.config.Branch.Seed,
		PerfectIndirect:      p.config.Branch.PerfectIndirect,
		Perfect:              p.config.Branch.Perfect,
	})

	vp := p.config.ValuePrediction
	if vp.Enable && !vp.Perfect && p.vp == nil {
		p.vp = vpred.NewStridePredictor(vpred.StrideConfig{})
	}
	if !vp.Enable || vp.Perfect {
		p.vp = nil
	}

	return nil
}

// Config returns the configuration the pipeline was built with.
func (p *Pipeline) Config() *config.Config {
	return p.config
}

// Tracker returns the branch outcome tracker.
func (p *Pipeline) Tracker() *bpred.Tracker {
	return p.tracker
}

// FetchCycle returns the cycle at which the next micro-operation will be
// fetched.
func (p *Pipeline) FetchCycle() uint64 {
	return p.fetch
}

// InFlight returns the number of micro-operations in the window.
func (p *Pipeline) InFlight() int {
	return p.window.Len()
}

// Step times one micro-operation. Once Step or Finish has returned an
// InvariantError, every later call returns the same error.
func (p *Pipeline) Step(op *insts.MicroOp) (err error) {
	if p.err != nil {
		return p.err
	}
	if p.finished {
		return ErrFinished
	}

	defer p.recoverInvariant(&err)
	p.step(op)
	return nil
}

func (p *Pipeline) recoverInvariant(err *error) {
	r := recover()
	if r == nil {
		return
	}

	ie, ok := r.(*InvariantError)
	if !ok {
		panic(r)
	}

	p.err = ie
	*err = ie
	p.logger.Error("timing core stopped",
		"seq", ie.SeqNo, "piece", ie.Piece, "cycle", ie.Cycle, "reason", ie.Msg)
}

func (p *Pipeline) fail(format string, args ...any) {
	p.failAt(p.seqNo, p.piece, p.fetch, format, args...)
}

func (p *Pipeline) failAt(seqNo uint64, piece uint8, cycle uint64, format string, args ...any) {
	panic(&InvariantError{
		SeqNo: seqNo,
		Piece: piece,
		Cycle: cycle,
		Msg:   fmt.Sprintf(format, args...),
	})
}

func (p *Pipeline) checkOperands(op *insts.MicroOp) {
	if !op.Class.Valid() {
		p.fail("unknown instruction class %d", op.Class)
	}
	for _, s := range op.Src {
		if s.Valid && s.Reg >= insts.NumRegs {
			p.fail("source register %d out of range", s.Reg)
		}
	}
	if op.Dst.Valid && op.Dst.Reg >= insts.NumRegs {
		p.fail("destination register %d out of range", op.Dst.Reg)
	}
}

func (p *Pipeline) step(op *insts.MicroOp) {
	p.checkOperands(op)

	if p.fetch != p.prevFetch {
		p.catchUp(p.prevFetch, p.fetch)
	}

	if p.config.Fetch.ModelICache {
		ready := p.mem.IC.Access(p.fetch, true, op.PC, false)
		if ready > p.fetch {
			p.catchUp(p.fetch, ready)
			p.fetch = ready
		}
	}

	vp := p.predictValue(op)

	exec := max(p.fetch+p.latency.FillLatency(), p.rf.SourcesReady(op.Src))
	if op.Class.IsMem() {
		exec = p.ldst.Schedule(exec)
	} else {
		exec = p.alu.Schedule(exec)
	}

	var lat uint64
	if op.Class.IsLoad() {
		exec, lat = p.executeLoad(op, exec)
	} else {
		lat = p.latency.GetLatency(op.Class)
		exec += lat
	}

	if p.config.Prefetcher.Enable {
		p.issuePrefetches()
	}

	p.stats.MicroOps++
	if op.LastPiece {
		p.stats.Instructions++
	}
	p.cycle = max(p.cycle, exec)

	squash := false
	if op.Dst.Valid && op.Dst.Reg != insts.RegZero {
		squash = vp.speculate && vp.value != op.Dst.Value
		if vp.speculate && !squash {
			p.rf.SetReady(op.Dst.Reg, p.fetch)
		} else {
			p.rf.SetReady(op.Dst.Reg, exec)
		}
	}

	if op.Class.IsStore() {
		p.completeStore(op, exec)
	}

	if vp.eligible {
		p.stats.VPEligible++
		if vp.speculate && squash {
			p.stats.VPIncorrect++
		} else if vp.speculate {
			p.stats.VPCorrect++
		}
	}

	entry := p.dispatch(op, exec, lat)
	predictCycle := p.fetch
	p.prevFetch = p.fetch

	if p.debug {
		p.logger.Debug("step",
			"seq", p.seqNo, "piece", p.piece, "pc", fmt.Sprintf("%#x", op.PC),
			"class", op.Class, "fetch", entry.FetchCycle,
			"exec", entry.ExecCycle, "retire", entry.RetireCycle)
	}

	p.advanceFetch(op, squash)
	p.predictBranch(op, entry, exec, predictCycle)

	horizon := min(p.fetch, p.pf.OldestCycle())
	p.ldst.AdvanceBaseCycle(horizon)
	p.alu.AdvanceBaseCycle(horizon)

	p.seqNo++
	if op.LastPiece {
		p.piece = 0
		p.epochInsts++
		if p.config.EpochSize > 0 && p.epochInsts == p.config.EpochSize {
			p.closeEpoch(predictCycle)
			p.tracker.BeginEpoch()
		}
	} else {
		p.piece++
	}
}

type valuePrediction struct {
	eligible  bool
	speculate bool
	value     uint64
}

func (p *Pipeline) predictValue(op *insts.MicroOp) valuePrediction {
	vpc := p.config.ValuePrediction
	if !vpc.Enable {
		return valuePrediction{}
	}

	eligible := p.track.Eligible(op.Class, op.Dst)
	if vpc.Perfect {
		return valuePrediction{eligible: eligible, speculate: eligible, value: op.Dst.Value}
	}

	req := vpred.Request{
		SeqNo:     p.seqNo,
		Piece:     p.piece,
		PC:        op.PC,
		Candidate: eligible,
	}
	if eligible && p.track == vpred.TrackLoadsOnlyHitMiss {
		req.HasHitLevel = true
		req.HitLevel = p.mem.Probe(p.loadProbeCycle(op), op.Addr)
	}

	res := p.vp.Predict(req)
	speculate := eligible && res.Speculate

	verdict := vpred.VerdictUnknown
	if speculate && res.Value == op.Dst.Value {
		verdict = vpred.VerdictCorrect
	} else if speculate {
		verdict = vpred.VerdictIncorrect
	}

	p.vp.SpecUpdate(vpred.SpecInfo{
		SeqNo:    p.seqNo,
		Piece:    p.piece,
		PC:       op.PC,
		NextPC:   op.NextPC,
		Class:    op.Class,
		Eligible: eligible,
		Verdict:  verdict,
		Dst:      op.Dst,
	})

	return valuePrediction{eligible: eligible, speculate: speculate, value: res.Value}
}

// loadProbeCycle estimates the address generation cycle of a load without
// booking a lane.
func (p *Pipeline) loadProbeCycle(op *insts.MicroOp) uint64 {
	exec := max(p.fetch+p.latency.FillLatency(), p.rf.SourcesReady(op.Src))
	return p.ldst.TrySchedule(exec) + agenLatency
}

func (p *Pipeline) dispatch(op *insts.MicroOp, exec, lat uint64) *WindowEntry {
	if p.fetch >= exec {
		p.fail("execute cycle %d not after fetch cycle %d", exec, p.fetch)
	}

	e := WindowEntry{
		SeqNo:       p.seqNo,
		Piece:       p.piece,
		PC:          op.PC,
		Info:        op.ExecuteInfo(),
		FetchCycle:  p.fetch,
		DecodeCycle: p.fetch + p.latency.DecodeLatency(),
		ExecCycle:   exec,
		RetireCycle: max(exec, p.window.BackRetireCycle()),
		Latency:     lat,
	}
	if op.Class.IsMem() {
		e.Addr = op.Addr
	}
	if op.Dst.Valid && op.Dst.Reg != insts.RegFlags {
		e.Value = op.Dst.Value
		e.HasValue = true
	}

	entry := p.window.Push(e)
	if entry == nil {
		p.fail("window occupancy exceeds %d", p.window.Cap())
	}

	p.dq.push(event{cycle: e.DecodeCycle, seqNo: e.SeqNo, piece: e.Piece})
	p.eq.push(event{cycle: e.ExecCycle, seqNo: e.SeqNo, piece: e.Piece})

	if front := p.window.Front(); front.RetireCycle <= p.fetch {
		p.fail("oldest entry retires at %d, not after fetch cycle %d",
			front.RetireCycle, p.fetch)
	}

	return entry
}

// advanceFetch applies the window and bundle rules to the fetch cycle of
// the next micro-operation.
func (p *Pipeline) advanceFetch(op *insts.MicroOp, squash bool) {
	fc := p.config.Fetch

	if squash {
		p.numFetched = 0
		p.fetch = p.window.BackRetireCycle()
		return
	}

	if p.window.Full() {
		if front := p.window.Front(); p.fetch < front.RetireCycle {
			p.numFetched = 0
			p.fetch = front.RetireCycle
			return
		}
	}

	stop := false
	if fc.Width > 0 && op.LastPiece {
		p.numFetched++
		stop = stop || p.numFetched == fc.Width
	}
	if fc.NumBranches > 0 && op.Class.IsBranch() {
		p.numFetchedBranches++
		stop = stop || p.numFetchedBranches == fc.NumBranches
	}
	if fc.StopAtIndirect && op.Class.IsUncondIndirect() {
		stop = true
	}
	if fc.StopAtTaken && op.Class.IsBranch() && op.Taken {
		stop = true
	}

	if stop {
		p.numFetched = 0
		p.numFetchedBranches = 0
		p.fetch++
	}
}

func (p *Pipeline) predictBranch(op *insts.MicroOp, entry *WindowEntry, exec, predictCycle uint64) {
	out := p.tracker.Predict(entry.SeqNo, entry.Piece, op.Class, op.PC, op.NextPC)
	entry.DirPredicted = out.DirPredicted

	if out.Mispredicted {
		p.numFetched = 0
		p.numFetchedBranches = 0
		p.fetch = max(p.fetch, exec)
		if p.fetch <= predictCycle {
			p.fail("redirected fetch cycle %d not after predict cycle %d", p.fetch, predictCycle)
		}

		wrongPath := p.fetch - predictCycle
		p.stats.WrongPathCycles += wrongPath
		p.tracker.AddWrongPathCycles(wrongPath)
	}

	if !op.Class.IsBranch() {
		return
	}

	predTaken := true
	if op.Class.IsCondBranch() {
		predTaken = op.Taken != out.Mispredicted
	} else if !op.Taken {
		p.fail("unconditional branch at %#x not taken", op.PC)
	}

	if !entry.setPredTaken(predTaken) {
		p.fail("predicted direction recorded twice")
	}
}

func (p *Pipeline) closeEpoch(end uint64) {
	if end < p.lastEpochEnd {
		p.fail("epoch end %d before previous epoch end %d", end, p.lastEpochEnd)
	}

	p.epochs = append(p.epochs, Epoch{
		Instructions: p.epochInsts,
		Cycles:       end - p.lastEpochEnd,
	})
	p.lastEpochEnd = end
	p.epochInsts = 0
}

// Finish delivers every outstanding stage notification, closes the last
// epoch and finalizes the predictors.
func (p *Pipeline) Finish() (stats Statistics, err error) {
	if p.err != nil {
		return Statistics{}, p.err
	}
	if p.finished {
		return Statistics{}, ErrFinished
	}

	defer p.recoverInvariant(&err)

	if !p.window.Empty() {
		p.catchUp(p.prevFetch, p.window.BackRetireCycle())
	}
	if h, ok := p.tracker.Direction().(bpred.MetadataHolder); ok && h.Live() != 0 {
		p.fail("%d branches still hold predictor metadata after the last commit", h.Live())
	}
	p.closeEpoch(p.cycle)
	p.finished = true

	p.tracker.Fini()
	if p.vp != nil {
		p.vp.Fini()
	}

	return p.Stats(), nil
}

// Stats returns a snapshot of the statistics. Epochs only lists closed
// epochs.
func (p *Pipeline) Stats() Statistics {
	s := p.stats
	s.Cycles = p.cycle
	s.Branch = p.tracker.Totals()
	s.Prefetcher = p.pf.Stats()

	branch := p.tracker.Epochs()
	s.Epochs = make([]Epoch, len(p.epochs))
	for i, e := range p.epochs {
		if i < len(branch) {
			e.Branch = branch[i]
		}
		s.Epochs[i] = e
	}

	for _, c := range p.mem.Levels() {
		s.Caches = append(s.Caches, CacheStats{
			Name:   c.Name(),
			Config: c.Config(),
			Stats:  c.Stats(),
		})
	}
	s.MemoryAccesses = p.mem.Memory.Accesses()

	return s
}
