package main

import (
	"github.com/spf13/pflag"

	"github.com/sarchlab/cbpsim/timing/config"
)

// addConfigFlags registers one flag per commonly swept configuration field.
func addConfigFlags(fs *pflag.FlagSet) {
	d := config.DefaultConfig()

	fs.UintP("window", "w", d.WindowSize, "instruction window size")
	fs.UintP("fetch-width", "F", d.Fetch.Width, "instructions per fetch bundle, 0 for unlimited")
	fs.Uint("fetch-branches", d.Fetch.NumBranches, "branches per fetch bundle, 0 for unlimited")
	fs.Bool("stop-at-indirect", d.Fetch.StopAtIndirect, "end a fetch bundle after an indirect branch")
	fs.Bool("stop-at-taken", d.Fetch.StopAtTaken, "end a fetch bundle after a taken branch")
	fs.BoolP("icache", "I", d.Fetch.ModelICache, "model the instruction cache")
	fs.UintP("alu-lanes", "A", d.ALULanes, "ALU lanes")
	fs.UintP("ldst-lanes", "M", d.LoadStoreLanes, "load/store lanes")
	fs.Uint64P("fill", "P", d.Latency.PipelineFillLatency, "pipeline fill latency")
	fs.Uint64P("decode", "D", d.Latency.DecodeLatency, "decode latency")
	fs.Uint64P("epoch", "E", d.EpochSize, "instructions per epoch, 0 for a single epoch")
	fs.String("predictor", d.Branch.Direction, "direction predictor: bimodal, gshare or perceptron")
	fs.UintP("misp-reduction", "b", d.Branch.MispReductionPercent, "percent of conditional mispredictions to correct")
	fs.Uint64("seed", d.Branch.Seed, "seed of the misprediction reduction")
	fs.Bool("perfect-branch", d.Branch.Perfect, "perfect branch prediction")
	fs.Bool("perfect-indirect", d.Branch.PerfectIndirect, "perfect indirect and return prediction")
	fs.BoolP("perfect-cache", "d", d.PerfectCache, "every load hits in the L1")
	fs.Bool("write-allocate", d.WriteAllocate, "stores access the L1 before retiring")
	fs.Bool("prefetch", d.Prefetcher.Enable, "enable the L1 stride prefetcher")
	fs.Bool("vp", d.ValuePrediction.Enable, "enable value prediction")
	fs.Bool("vp-perfect", d.ValuePrediction.Perfect, "perfect value prediction")
	fs.String("vp-track", d.ValuePrediction.Track, "value prediction track: all, loads or loads-hitmiss")
}

// applyConfigFlags overwrites cfg fields whose flag was set explicitly.
func applyConfigFlags(fs *pflag.FlagSet, cfg *config.Config) error {
	var err error
	setUint := func(name string, dst *uint) {
		if err == nil && fs.Changed(name) {
			*dst, err = fs.GetUint(name)
		}
	}
	setUint64 := func(name string, dst *uint64) {
		if err == nil && fs.Changed(name) {
			*dst, err = fs.GetUint64(name)
		}
	}
	setBool := func(name string, dst *bool) {
		if err == nil && fs.Changed(name) {
			*dst, err = fs.GetBool(name)
		}
	}
	setString := func(name string, dst *string) {
		if err == nil && fs.Changed(name) {
			*dst, err = fs.GetString(name)
		}
	}

	setUint("window", &cfg.WindowSize)
	setUint("fetch-width", &cfg.Fetch.Width)
	setUint("fetch-branches", &cfg.Fetch.NumBranches)
	setBool("stop-at-indirect", &cfg.Fetch.StopAtIndirect)
	setBool("stop-at-taken", &cfg.Fetch.StopAtTaken)
	setBool("icache", &cfg.Fetch.ModelICache)
	setUint("alu-lanes", &cfg.ALULanes)
	setUint("ldst-lanes", &cfg.LoadStoreLanes)
	setUint64("fill", &cfg.Latency.PipelineFillLatency)
	setUint64("decode", &cfg.Latency.DecodeLatency)
	setUint64("epoch", &cfg.EpochSize)
	setString("predictor", &cfg.Branch.Direction)
	setUint("misp-reduction", &cfg.Branch.MispReductionPercent)
	setUint64("seed", &cfg.Branch.Seed)
	setBool("perfect-branch", &cfg.Branch.Perfect)
	setBool("perfect-indirect", &cfg.Branch.PerfectIndirect)
	setBool("perfect-cache", &cfg.PerfectCache)
	setBool("write-allocate", &cfg.WriteAllocate)
	setBool("prefetch", &cfg.Prefetcher.Enable)
	setBool("vp", &cfg.ValuePrediction.Enable)
	setBool("vp-perfect", &cfg.ValuePrediction.Perfect)
	setString("vp-track", &cfg.ValuePrediction.Track)

	return err
}
