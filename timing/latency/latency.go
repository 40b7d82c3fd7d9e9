// Package latency provides the fixed execution latencies used by the
// timing model.
//
// Loads are not covered here: their latency comes from the cache hierarchy
// and the store queue.
package latency

import (
	"github.com/sarchlab/cbpsim/insts"
)

// Table provides execution latency lookups by instruction class.
type Table struct {
	config *TimingConfig
}

// NewTable creates a new latency table with default timing values.
func NewTable() *Table {
	return &Table{
		config: DefaultTimingConfig(),
	}
}

// NewTableWithConfig creates a new latency table with custom timing configuration.
func NewTableWithConfig(config *TimingConfig) *Table {
	return &Table{
		config: config,
	}
}

// GetLatency returns the execution latency in cycles for the given class.
func (t *Table) GetLatency(class insts.InstClass) uint64 {
	switch class {
	case insts.ClassFP:
		return t.config.FPLatency
	case insts.ClassSlowALU:
		return t.config.SlowALULatency
	default:
		return t.config.ALULatency
	}
}

// FillLatency returns the fetch-to-execute depth of the pipeline.
func (t *Table) FillLatency() uint64 {
	return t.config.PipelineFillLatency
}

// DecodeLatency returns the fetch-to-decode depth of the pipeline.
func (t *Table) DecodeLatency() uint64 {
	return t.config.DecodeLatency
}

// Config returns the current timing configuration.
func (t *Table) Config() *TimingConfig {
	return t.config
}
