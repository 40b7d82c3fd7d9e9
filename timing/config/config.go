// Package config holds the configuration of the whole simulated core.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/sarchlab/cbpsim/timing/bpred"
	"github.com/sarchlab/cbpsim/timing/cache"
	"github.com/sarchlab/cbpsim/timing/latency"
	"github.com/sarchlab/cbpsim/timing/prefetch"
	"github.com/sarchlab/cbpsim/timing/vpred"
)

// ErrInvalid is wrapped by every validation error.
var ErrInvalid = errors.New("invalid configuration")

// FetchConfig describes how fetch bundles are formed.
type FetchConfig struct {
	// Width is the maximum number of instructions per bundle. 0 means
	// unlimited.
	Width uint `json:"width"`
	// NumBranches is the maximum number of branches per bundle. 0 means
	// unlimited.
	NumBranches uint `json:"num_branches"`
	// StopAtIndirect ends a bundle after an indirect jump, indirect call
	// or return.
	StopAtIndirect bool `json:"stop_at_indirect"`
	// StopAtTaken ends a bundle after a taken branch.
	StopAtTaken bool `json:"stop_at_taken"`
	// ModelICache probes the instruction cache for every micro-operation.
	ModelICache bool `json:"model_icache"`
}

// BranchConfig selects the branch predictors and the idealizations applied
// to them.
type BranchConfig struct {
	// Direction names the direction predictor.
	Direction string `json:"direction"`
	// MispReductionPercent turns this percentage of conditional
	// mispredictions into correct predictions.
	MispReductionPercent uint `json:"misp_reduction_percent"`
	// Seed seeds the misprediction reduction draws.
	Seed uint64 `json:"seed"`
	// Perfect disables every branch misprediction.
	Perfect bool `json:"perfect"`
	// PerfectIndirect disables indirect and return mispredictions.
	PerfectIndirect bool `json:"perfect_indirect"`
	// BTBSize and RASDepth size the target predictor.
	BTBSize  uint32 `json:"btb_size"`
	RASDepth int    `json:"ras_depth"`
}

// PrefetchConfig configures the L1 data prefetcher.
type PrefetchConfig struct {
	Enable bool `json:"enable"`
	prefetch.Config
}

// ValuePredictionConfig configures value prediction.
type ValuePredictionConfig struct {
	Enable bool `json:"enable"`
	// Perfect predicts every eligible value correctly.
	Perfect bool `json:"perfect"`
	// Track is one of "all", "loads", "loads-hitmiss".
	Track string `json:"track"`
}

// Config is the complete configuration of the simulated core.
type Config struct {
	// WindowSize is the capacity of the instruction window.
	WindowSize uint `json:"window_size"`

	Fetch FetchConfig `json:"fetch"`

	// ALULanes and LoadStoreLanes are the execution lanes available each
	// cycle.
	ALULanes       uint `json:"alu_lanes"`
	LoadStoreLanes uint `json:"load_store_lanes"`

	Latency latency.TimingConfig  `json:"latency"`
	Memory  cache.HierarchyConfig `json:"memory"`

	// PerfectCache makes every load hit in the L1.
	PerfectCache bool `json:"perfect_cache"`
	// WriteAllocate makes stores access the L1 before they retire.
	WriteAllocate bool `json:"write_allocate"`

	Prefetcher      PrefetchConfig        `json:"prefetcher"`
	Branch          BranchConfig          `json:"branch"`
	ValuePrediction ValuePredictionConfig `json:"value_prediction"`

	// EpochSize is the number of instructions per measurement epoch. 0
	// makes the whole run a single epoch.
	EpochSize uint64 `json:"epoch_size"`
}

// DefaultConfig returns the default core configuration.
func DefaultConfig() *Config {
	return &Config{
		WindowSize: 1024,
		Fetch: FetchConfig{
			Width:          16,
			NumBranches:    16,
			StopAtIndirect: true,
			StopAtTaken:    true,
			ModelICache:    true,
		},
		ALULanes:       16,
		LoadStoreLanes: 8,
		Latency:        *latency.DefaultTimingConfig(),
		Memory:         cache.DefaultHierarchyConfig(),
		WriteAllocate:  true,
		Prefetcher: PrefetchConfig{
			Enable: true,
			Config: prefetch.DefaultConfig(),
		},
		Branch: BranchConfig{
			Direction: "gshare",
			Seed:      1,
			BTBSize:   4096,
			RASDepth:  32,
		},
		ValuePrediction: ValuePredictionConfig{
			Track: vpred.TrackAll.String(),
		},
		EpochSize: 1_000_000,
	}
}

// Load loads a Config from a JSON file. Fields missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return config, nil
}

// Save writes the Config to a JSON file.
func (c *Config) Save(path string) error {
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks that the configuration describes a core that can be
// simulated. Every returned error wraps ErrInvalid.
func (c *Config) Validate() error {
	if c.WindowSize == 0 {
		return fmt.Errorf("%w: window_size must be > 0", ErrInvalid)
	}
	if c.ALULanes == 0 {
		return fmt.Errorf("%w: alu_lanes must be > 0", ErrInvalid)
	}
	if c.LoadStoreLanes == 0 {
		return fmt.Errorf("%w: load_store_lanes must be > 0", ErrInvalid)
	}
	if err := c.Latency.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if err := c.Memory.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	if c.Prefetcher.Enable {
		if err := c.Prefetcher.Config.Validate(); err != nil {
			return fmt.Errorf("%w: prefetcher: %w", ErrInvalid, err)
		}
	}
	if c.Branch.MispReductionPercent > 100 {
		return fmt.Errorf("%w: misp_reduction_percent must be <= 100", ErrInvalid)
	}
	if !c.Branch.Perfect {
		if _, err := bpred.NewDirectionPredictor(c.Branch.Direction); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalid, err)
		}
	}
	if c.Branch.BTBSize == 0 || c.Branch.BTBSize&(c.Branch.BTBSize-1) != 0 {
		return fmt.Errorf("%w: btb_size must be a power of two", ErrInvalid)
	}
	if c.Branch.RASDepth <= 0 {
		return fmt.Errorf("%w: ras_depth must be > 0", ErrInvalid)
	}
	if c.ValuePrediction.Enable {
		if _, err := vpred.ParseTrack(c.ValuePrediction.Track); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalid, err)
		}
	}
	return nil
}

// VPTrack returns the parsed value prediction track.
func (c *Config) VPTrack() vpred.Track {
	t, err := vpred.ParseTrack(c.ValuePrediction.Track)
	if err != nil {
		return vpred.TrackAll
	}
	return t
}

// Clone returns a deep copy of the Config.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
