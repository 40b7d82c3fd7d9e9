// Package prefetch provides a PC-indexed stride prefetcher for the L1 data
// cache.
//
// The prefetcher keeps a reference prediction table. Each entry tracks the
// last address and stride of one load PC and walks through four states:
// initial, transient, steady and no-prediction. A steady entry generates
// prefetch candidates at fetch time of the next instance of the load; the
// candidates wait in a bounded queue until the core finds a free load/store
// lane to issue them.
package prefetch

import (
	"fmt"
	"math"
)

// Config holds the prefetcher parameters.
type Config struct {
	// TableSize is the number of reference prediction table entries. Must
	// be a power of two.
	TableSize int `json:"table_size"`
	// Distance is how many strides ahead the first candidate lies.
	Distance int `json:"distance"`
	// Degree is the number of candidates generated per lookahead.
	Degree int `json:"degree"`
	// QueueSize bounds the number of pending prefetches.
	QueueSize int `json:"queue_size"`
	// BlockSize is the line size candidates are aligned to.
	BlockSize int `json:"block_size"`
}

// DefaultConfig returns the default prefetcher configuration.
func DefaultConfig() Config {
	return Config{
		TableSize: 256,
		Distance:  4,
		Degree:    2,
		QueueSize: 32,
		BlockSize: 64,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if c.TableSize <= 0 || c.TableSize&(c.TableSize-1) != 0 {
		return fmt.Errorf("table_size must be a power of two")
	}
	if c.Distance <= 0 || c.Degree <= 0 || c.QueueSize <= 0 {
		return fmt.Errorf("distance, degree and queue_size must be > 0")
	}
	if c.BlockSize <= 0 || c.BlockSize&(c.BlockSize-1) != 0 {
		return fmt.Errorf("block_size must be a power of two")
	}
	return nil
}

// State is the confidence state of a table entry.
type State uint8

// Entry states.
const (
	StateInitial State = iota
	StateTransient
	StateSteady
	StateNoPrediction
)

type entry struct {
	valid    bool
	pc       uint64
	lastAddr uint64
	stride   int64
	state    State
}

// Prefetch is a generated, not yet issued, prefetch request.
type Prefetch struct {
	Addr uint64
	// Generated is the cycle at which the candidate was generated. It may
	// not issue earlier.
	Generated uint64
}

// TrainingInfo is what the prefetcher learns from one executed load.
type TrainingInfo struct {
	PC   uint64
	Addr uint64
	// Hit is whether the load found its line in the L1 at its address
	// generation cycle.
	Hit bool
}

// Stats holds prefetcher statistics.
type Stats struct {
	Trainings  uint64
	Generated  uint64
	Dropped    uint64
	Issued     uint64
	PutBacks   uint64
	TrainedHit uint64
}

// StridePrefetcher is a reference prediction table stride prefetcher.
type StridePrefetcher struct {
	config Config
	table  []entry
	queue  []Prefetch
	stats  Stats
}

// NewStridePrefetcher creates a prefetcher.
func NewStridePrefetcher(config Config) *StridePrefetcher {
	return &StridePrefetcher{
		config: config,
		table:  make([]entry, config.TableSize),
	}
}

func (p *StridePrefetcher) index(pc uint64) int {
	return int((pc >> 2) & uint64(p.config.TableSize-1))
}

// Lookahead generates candidates for the load at pc, fetched at cycle.
func (p *StridePrefetcher) Lookahead(pc uint64, cycle uint64) {
	e := &p.table[p.index(pc)]
	if !e.valid || e.pc != pc || e.state != StateSteady || e.stride == 0 {
		return
	}

	for d := 0; d < p.config.Degree; d++ {
		ahead := int64(p.config.Distance+d) * e.stride
		addr := p.align(uint64(int64(e.lastAddr) + ahead))
		p.enqueue(Prefetch{Addr: addr, Generated: cycle})
	}
}

func (p *StridePrefetcher) enqueue(pf Prefetch) {
	for _, q := range p.queue {
		if q.Addr == pf.Addr {
			return
		}
	}

	if len(p.queue) >= p.config.QueueSize {
		p.stats.Dropped++
		return
	}

	p.stats.Generated++
	p.queue = append(p.queue, pf)
}

func (p *StridePrefetcher) align(addr uint64) uint64 {
	return addr &^ uint64(p.config.BlockSize-1)
}

// Train updates the table with an executed load.
func (p *StridePrefetcher) Train(info TrainingInfo) {
	p.stats.Trainings++
	if info.Hit {
		p.stats.TrainedHit++
	}

	e := &p.table[p.index(info.PC)]
	if !e.valid || e.pc != info.PC {
		*e = entry{valid: true, pc: info.PC, lastAddr: info.Addr, state: StateInitial}
		return
	}

	stride := int64(info.Addr - e.lastAddr)
	match := stride == e.stride

	switch e.state {
	case StateInitial:
		if match {
			e.state = StateSteady
		} else {
			e.state = StateTransient
			e.stride = stride
		}
	case StateTransient:
		if match {
			e.state = StateSteady
		} else {
			e.state = StateNoPrediction
			e.stride = stride
		}
	case StateSteady:
		if !match {
			e.state = StateInitial
		}
	case StateNoPrediction:
		if match {
			e.state = StateTransient
		} else {
			e.stride = stride
		}
	}

	e.lastAddr = info.Addr
}

// Issue pops the oldest pending prefetch generated no later than cycle.
func (p *StridePrefetcher) Issue(cycle uint64) (Prefetch, bool) {
	if len(p.queue) == 0 || p.queue[0].Generated > cycle {
		return Prefetch{}, false
	}

	pf := p.queue[0]
	p.queue = p.queue[1:]
	p.stats.Issued++
	return pf, true
}

// PutBack returns a prefetch that could not be issued to the head of the
// queue.
func (p *StridePrefetcher) PutBack(pf Prefetch) {
	p.stats.Issued--
	p.stats.PutBacks++
	p.queue = append([]Prefetch{pf}, p.queue...)
}

// OldestCycle returns the generation cycle of the oldest pending prefetch,
// or math.MaxUint64 when none is pending.
func (p *StridePrefetcher) OldestCycle() uint64 {
	if len(p.queue) == 0 {
		return math.MaxUint64
	}
	return p.queue[0].Generated
}

// Pending returns the number of queued prefetches.
func (p *StridePrefetcher) Pending() int {
	return len(p.queue)
}

// Stats returns the prefetcher statistics.
func (p *StridePrefetcher) Stats() Stats {
	return p.stats
}

// StateOf returns the table state tracked for pc.
func (p *StridePrefetcher) StateOf(pc uint64) (State, bool) {
	e := p.table[p.index(pc)]
	if !e.valid || e.pc != pc {
		return 0, false
	}
	return e.state, true
}
