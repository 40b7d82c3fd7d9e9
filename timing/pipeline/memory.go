package pipeline

import (
	"github.com/sarchlab/cbpsim/insts"
	"github.com/sarchlab/cbpsim/timing/prefetch"
)

// executeLoad times a load granted a load/store lane at laneCycle. It
// returns the cycle at which the loaded value is available and the load's
// execution latency.
func (p *Pipeline) executeLoad(op *insts.MicroOp, laneCycle uint64) (uint64, uint64) {
	agen := laneCycle + agenLatency

	if p.config.Prefetcher.Enable {
		p.pf.Lookahead(op.PC, p.fetch)
		p.pf.Train(prefetch.TrainingInfo{
			PC:   op.PC,
			Addr: op.Addr,
			Hit:  p.mem.L1.IsHit(agen, op.Addr),
		})
	}

	var cacheReady uint64
	if p.config.PerfectCache {
		cacheReady = agen + p.config.Memory.L1.Latency
	} else {
		cacheReady = p.mem.L1.Access(agen, true, op.Addr, false)
	}

	searched := agen + sqSearchLatency

	size := max(op.Size, 1)
	done := searched
	sqMiss := false
	for i := range size {
		if fwd, ok := p.sq.Forward(op.Addr+i, searched); ok {
			done = max(done, fwd)
		} else {
			done = max(done, cacheReady)
			sqMiss = true
		}
	}

	p.stats.Loads++
	if sqMiss {
		p.stats.LoadsSQMiss++
	}

	lat := done - laneCycle
	if lat < agenLatency+sqSearchLatency {
		p.fail("load latency %d below %d", lat, agenLatency+sqSearchLatency)
	}

	return done, lat
}

// completeStore records the bytes written by a store executing at exec.
func (p *Pipeline) completeStore(op *insts.MicroOp, exec uint64) {
	ready := exec
	if p.config.WriteAllocate && !p.config.PerfectCache {
		ready = p.mem.L1.Access(exec, true, op.Addr, false)
	}

	p.sq.Write(op.Addr, max(op.Size, 1), StoreEntry{
		ExecCycle:   exec,
		RetireCycle: max(ready, p.window.BackRetireCycle()),
	})
}

// issuePrefetches lets pending prefetches take free load/store lane slots
// between the previous and the current fetch cycle.
func (p *Pipeline) issuePrefetches() {
	for {
		pf, ok := p.pf.Issue(p.fetch)
		if !ok {
			return
		}

		from := max(p.prevFetch, pf.Generated)
		slot, ok := p.ldst.ScheduleWithin(from, p.fetch-from)
		if !ok {
			p.pf.PutBack(pf)
			return
		}

		p.mem.L1.Access(slot, true, pf.Addr, true)
		p.stats.PrefetchesIssued++
	}
}
