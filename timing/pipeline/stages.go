package pipeline

import "math"

// catchUp delivers every decode, execute and retire event due in
// [from, to], cycle by cycle. Cycles without a due event are skipped.
func (p *Pipeline) catchUp(from, to uint64) {
	for {
		c := p.nextEventCycle()
		if c > to {
			return
		}
		if c < from {
			p.fail("event at cycle %d missed, catching up from %d", c, from)
		}

		p.evalDecode(c)
		p.evalExecute(c)
		p.evalRetire(c)
	}
}

func (p *Pipeline) nextEventCycle() uint64 {
	c := uint64(math.MaxUint64)
	if e := p.dq.front(); e != nil {
		c = min(c, e.cycle)
	}
	if e := p.eq.front(); e != nil {
		c = min(c, e.cycle)
	}
	if e := p.window.Front(); e != nil {
		c = min(c, e.RetireCycle)
	}
	return c
}

func (p *Pipeline) lookup(ev event) *WindowEntry {
	e := p.window.Lookup(ev.seqNo, ev.piece)
	if e == nil {
		p.failAt(ev.seqNo, ev.piece, ev.cycle, "event for a micro-operation not in the window")
	}
	return e
}

func (p *Pipeline) evalDecode(cycle uint64) {
	for ev := p.dq.front(); ev != nil && ev.cycle == cycle; ev = p.dq.front() {
		e := p.lookup(p.dq.pop())
		for _, o := range p.observers {
			o.NotifyDecode(e, cycle)
		}
	}
}

func (p *Pipeline) evalExecute(cycle uint64) {
	for ev := p.eq.front(); ev != nil && ev.cycle == cycle; ev = p.eq.front() {
		e := p.lookup(p.eq.pop())

		if e.DirPredicted {
			predTaken, _ := e.PredTaken()
			p.tracker.Resolve(e.SeqNo, e.Piece, e.PC, e.Info.Taken, predTaken, e.Info.NextPC)
		}
		for _, o := range p.observers {
			o.NotifyExecute(e, cycle)
		}
	}
}

func (p *Pipeline) evalRetire(cycle uint64) {
	for e := p.window.Front(); e != nil && e.RetireCycle <= cycle; e = p.window.Front() {
		if e.DirPredicted {
			p.tracker.Commit(e.SeqNo, e.Piece, e.PC)
		}
		if p.vp != nil {
			p.vp.Update(e.SeqNo, e.Addr, e.Value, e.Latency)
		}
		for _, o := range p.observers {
			o.NotifyCommit(e, cycle)
		}
		p.window.Pop()
	}
}
