package latency

import (
	"encoding/json"
	"fmt"
	"os"
)

// TimingConfig holds the fixed execution latencies of the core and the
// depth of its front end.
type TimingConfig struct {
	// ALULatency is the execution latency of simple integer operations,
	// branches, stores and any class without a dedicated latency.
	// Default: 1 cycle.
	ALULatency uint64 `json:"alu_latency"`

	// FPLatency is the execution latency of FP/SIMD operations.
	// Default: 3 cycles.
	FPLatency uint64 `json:"fp_latency"`

	// SlowALULatency is the execution latency of multiply/divide style
	// integer operations. Default: 4 cycles.
	SlowALULatency uint64 `json:"slow_alu_latency"`

	// PipelineFillLatency is the number of cycles between fetch and the
	// earliest execute cycle. Default: 10 cycles.
	PipelineFillLatency uint64 `json:"pipeline_fill_latency"`

	// DecodeLatency is the number of cycles between fetch and decode. It
	// must lie in [1, PipelineFillLatency]. Default: 3 cycles.
	DecodeLatency uint64 `json:"decode_latency"`
}

// DefaultTimingConfig returns a TimingConfig with the default latencies.
func DefaultTimingConfig() *TimingConfig {
	return &TimingConfig{
		ALULatency:          1,
		FPLatency:           3,
		SlowALULatency:      4,
		PipelineFillLatency: 10,
		DecodeLatency:       3,
	}
}

// LoadConfig loads a TimingConfig from a JSON file.
func LoadConfig(path string) (*TimingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read timing config file: %w", err)
	}

	config := DefaultTimingConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse timing config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a TimingConfig to a JSON file.
func (c *TimingConfig) SaveConfig(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize timing config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write timing config file: %w", err)
	}

	return nil
}

// Validate checks that all latency values are usable.
func (c *TimingConfig) Validate() error {
	if c.ALULatency == 0 {
		return fmt.Errorf("alu_latency must be > 0")
	}
	if c.FPLatency == 0 {
		return fmt.Errorf("fp_latency must be > 0")
	}
	if c.SlowALULatency == 0 {
		return fmt.Errorf("slow_alu_latency must be > 0")
	}
	if c.PipelineFillLatency == 0 {
		return fmt.Errorf("pipeline_fill_latency must be > 0")
	}
	if c.DecodeLatency == 0 {
		return fmt.Errorf("decode_latency must be >= 1")
	}
	if c.DecodeLatency > c.PipelineFillLatency {
		return fmt.Errorf("decode_latency must be <= pipeline_fill_latency")
	}
	return nil
}

// Clone returns a deep copy of the TimingConfig.
func (c *TimingConfig) Clone() *TimingConfig {
	clone := *c
	return &clone
}
