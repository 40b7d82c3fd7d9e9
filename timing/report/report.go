// Package report renders the end-of-run text report: the configuration
// echo, memory hierarchy and store queue measurements, overall results,
// the branch category table and the per-interval branch tables.
package report

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/sarchlab/cbpsim/timing/bpred"
	"github.com/sarchlab/cbpsim/timing/cache"
	"github.com/sarchlab/cbpsim/timing/config"
	"github.com/sarchlab/cbpsim/timing/pipeline"
)

const ruleWidth = 135

const intervalHeader = "       Instr       Cycles      IPC      NumBr     MispBr BrPerCyc MispBrPerCyc        MR     MPKI      CycWP   CycWPAvg   CycWPPKI"

func section(title string) string {
	title = " " + title + " "
	if len(title) >= ruleWidth {
		return title
	}
	left := (ruleWidth - len(title)) / 2
	return strings.Repeat("-", left) + title + strings.Repeat("-", ruleWidth-left-len(title))
}

func rule() string {
	return strings.Repeat("-", ruleWidth)
}

func flag(b bool) int {
	if b {
		return 1
	}
	return 0
}

func scaledSize(bytes int) string {
	switch {
	case bytes >= 1<<20 && bytes%(1<<20) == 0:
		return fmt.Sprintf("%d MB", bytes>>20)
	case bytes >= 1<<10 && bytes%(1<<10) == 0:
		return fmt.Sprintf("%d KB", bytes>>10)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

func cacheLabel(name string) string {
	if name == "IC" {
		return "I$"
	}
	return name + "$"
}

// Write renders the full report of a run.
func Write(w io.Writer, cfg *config.Config, stats pipeline.Statistics) error {
	bw := bufio.NewWriter(w)

	writeConfig(bw, cfg)
	writeMemory(bw, cfg, stats)
	if cfg.ValuePrediction.Enable {
		writeValuePrediction(bw, stats)
	}
	writeOverall(bw, stats)
	writeCategories(bw, stats.Branch)
	writeIntervals(bw, stats.Epochs)

	return bw.Flush()
}

func writeConfig(w io.Writer, cfg *config.Config) {
	fmt.Fprintln(w, section("SIM CONFIGURATION"))
	fmt.Fprintf(w, "WINDOW_SIZE = %d\n", cfg.WindowSize)
	fmt.Fprintf(w, "FETCH_WIDTH = %d\n", cfg.Fetch.Width)
	fmt.Fprintf(w, "FETCH_NUM_BRANCH = %d\n", cfg.Fetch.NumBranches)
	fmt.Fprintf(w, "FETCH_STOP_AT_INDIRECT = %d\n", flag(cfg.Fetch.StopAtIndirect))
	fmt.Fprintf(w, "FETCH_STOP_AT_TAKEN = %d\n", flag(cfg.Fetch.StopAtTaken))
	fmt.Fprintf(w, "FETCH_MODEL_ICACHE = %d\n", flag(cfg.Fetch.ModelICache))
	fmt.Fprintf(w, "PERFECT_BRANCH_PRED = %d\n", flag(cfg.Branch.Perfect))
	fmt.Fprintf(w, "PERFECT_INDIRECT_PRED = %d\n", flag(cfg.Branch.PerfectIndirect))
	fmt.Fprintf(w, "BRANCH_PREDICTOR = %s\n", cfg.Branch.Direction)
	fmt.Fprintf(w, "MISP_REDUCTION_PERCENT = %d\n", cfg.Branch.MispReductionPercent)
	fmt.Fprintf(w, "PIPELINE_FILL_LATENCY = %d\n", cfg.Latency.PipelineFillLatency)
	fmt.Fprintf(w, "DECODE_LATENCY = %d\n", cfg.Latency.DecodeLatency)
	fmt.Fprintf(w, "NUM_LDST_LANES = %d\n", cfg.LoadStoreLanes)
	fmt.Fprintf(w, "NUM_ALU_LANES = %d\n", cfg.ALULanes)
	fmt.Fprintf(w, "STRIDE_PREFETCHER = %d\n", flag(cfg.Prefetcher.Enable))
	fmt.Fprintf(w, "PERFECT_CACHE = %d\n", flag(cfg.PerfectCache))
	fmt.Fprintf(w, "WRITE_ALLOCATE = %d\n", flag(cfg.WriteAllocate))
	fmt.Fprintf(w, "VALUE_PREDICTION = %d\n", flag(cfg.ValuePrediction.Enable))
	if cfg.ValuePrediction.Enable {
		fmt.Fprintf(w, "VP_PERFECT = %d\n", flag(cfg.ValuePrediction.Perfect))
		fmt.Fprintf(w, "VP_TRACK = %s\n", cfg.VPTrack())
	}
	fmt.Fprintln(w, "AGEN_LATENCY = 1")
	fmt.Fprintf(w, "SQ_SIZE = %d\n", cfg.WindowSize)
	fmt.Fprintln(w, "ST_TO_LD_FWD_LATENCY = 1")
	fmt.Fprintln(w, "ORACLE_MEM_DISAM")
	fmt.Fprintf(w, "EPOCH_SIZE = %d\n", cfg.EpochSize)
	fmt.Fprintln(w, rule())

	mem := cfg.Memory
	if cfg.Fetch.ModelICache {
		writeGeometry(w, "I$", mem.ICache)
	}
	writeGeometry(w, "L1$", mem.L1)
	writeGeometry(w, "L2$", mem.L2)
	writeGeometry(w, "L3$", mem.L3)
	fmt.Fprintf(w, "Main Memory: %d-cycle fixed search time\n", mem.MemoryLatency)
}

func writeGeometry(w io.Writer, name string, c cache.Config) {
	fmt.Fprintf(w, "%s: %s, %d-way set-assoc., %dB block size, %d-cycle search latency\n",
		name, scaledSize(c.Size), c.Associativity, c.BlockSize, c.Latency)
}

func writeMemory(w io.Writer, cfg *config.Config, stats pipeline.Statistics) {
	fmt.Fprintln(w, section("STORE QUEUE MEASUREMENTS"))
	fmt.Fprintf(w, "Number of loads: %d\n", stats.Loads)
	fmt.Fprintf(w, "Number of loads that miss in SQ: %d (%.2f%%)\n",
		stats.LoadsSQMiss, stats.SQMissRate())
	fmt.Fprintf(w, "Number of PFs issued to the memory system %d\n", stats.PrefetchesIssued)
	fmt.Fprintln(w, rule())

	fmt.Fprintln(w, section("MEMORY HIERARCHY MEASUREMENTS"))
	for _, c := range stats.Caches {
		if c.Name == "IC" && !cfg.Fetch.ModelICache {
			continue
		}
		s := c.Stats
		fmt.Fprintf(w, "%s:\n", cacheLabel(c.Name))
		fmt.Fprintf(w, "  accesses   = %d (reads %d, writes %d)\n", s.Accesses(), s.Reads, s.Writes)
		fmt.Fprintf(w, "  misses     = %d (%.2f%%)\n", s.Misses, 100*s.MissRate())
		fmt.Fprintf(w, "  writebacks = %d\n", s.Writebacks)
		fmt.Fprintf(w, "  prefetches = %d (misses %d)\n", s.PrefetchAccesses, s.PrefetchMisses)
	}
	fmt.Fprintf(w, "Main Memory: %d accesses\n", stats.MemoryAccesses)
	fmt.Fprintln(w, rule())

	if cfg.Prefetcher.Enable {
		pf := stats.Prefetcher
		fmt.Fprintln(w, section("Prefetcher"))
		fmt.Fprintf(w, "trainings  = %d (L1 hits %d)\n", pf.Trainings, pf.TrainedHit)
		fmt.Fprintf(w, "generated  = %d\n", pf.Generated)
		fmt.Fprintf(w, "dropped    = %d\n", pf.Dropped)
		fmt.Fprintf(w, "issued     = %d\n", pf.Issued)
		fmt.Fprintf(w, "put back   = %d\n", pf.PutBacks)
		fmt.Fprintln(w, rule())
	}
}

func writeValuePrediction(w io.Writer, stats pipeline.Statistics) {
	fmt.Fprintln(w, section("VALUE PREDICTION MEASUREMENTS"))
	fmt.Fprintf(w, "eligible  = %d\n", stats.VPEligible)
	fmt.Fprintf(w, "correct   = %d (%.2f%%)\n", stats.VPCorrect,
		bpred.MispredictionRate(stats.VPCorrect, stats.VPEligible))
	fmt.Fprintf(w, "incorrect = %d (%.2f%%)\n", stats.VPIncorrect,
		bpred.MispredictionRate(stats.VPIncorrect, stats.VPEligible))
	fmt.Fprintln(w, rule())
}

func writeOverall(w io.Writer, stats pipeline.Statistics) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, section("OVERALL STATS"))
	fmt.Fprintf(w, "instructions = %d\n", stats.Instructions)
	fmt.Fprintf(w, "micro-ops    = %d\n", stats.MicroOps)
	fmt.Fprintf(w, "cycles       = %d\n", stats.Cycles)
	fmt.Fprintf(w, "CycWP        = %d\n", stats.WrongPathCycles)
	fmt.Fprintf(w, "IPC          = %.4f\n", stats.IPC())
	fmt.Fprintln(w, rule())
}

func writeCategory(w io.Writer, name string, n, m, insts uint64) {
	fmt.Fprintf(w, "%-17s%10d %10d %8.4f%% %8.4f\n",
		name, n, m, bpred.MispredictionRate(m, n), bpred.PerKilo(m, insts))
}

func writeCategories(w io.Writer, c bpred.Counters) {
	classified := c.Classified()

	fmt.Fprintln(w)
	fmt.Fprintln(w, section("BRANCH PREDICTION MEASUREMENTS"))
	fmt.Fprintln(w, "Type                  NumBr     MispBr        MR     MPKI")
	writeCategory(w, "CondDirect", c.CondBranches, c.CondMispredicts, classified)
	writeCategory(w, "JumpDirect", c.DirectJumps, 0, classified)
	writeCategory(w, "JumpIndirect", c.IndirectJumps, c.IndirectMispredicts, classified)
	writeCategory(w, "JumpReturn", c.Returns, c.ReturnMispredicts, classified)
	writeCategory(w, "Not control", c.NonControl, c.NonControlAnomalies, classified)
	fmt.Fprintln(w, rule())
}

func writeIntervalRow(w io.Writer, iv Interval) {
	fmt.Fprintf(w, "%12d %12d %8.4f %10d %10d %8.4f %12.4f %8.4f%% %8.4f %10d %10.4f %10.4f\n",
		iv.Instructions, iv.Cycles, iv.IPC(), iv.Branches, iv.Mispredicts,
		iv.BranchesPerCycle(), iv.MispredictsPerCycle(), iv.MispredictionRate(),
		iv.MPKI(), iv.WrongPathCycles, iv.WrongPathAvg(), iv.WrongPathPKI())
}

func writeIntervals(w io.Writer, epochs []pipeline.Epoch) {
	for _, ni := range TrailingWindows(epochs) {
		fmt.Fprintln(w)
		fmt.Fprintln(w, section("DIRECT CONDITIONAL BRANCH PREDICTION MEASUREMENTS ("+ni.Name+")"))
		fmt.Fprintln(w, intervalHeader)
		writeIntervalRow(w, ni.Interval)
		fmt.Fprintln(w, rule())
	}

	fmt.Fprintf(w, "EPOCH COUNT  = %d\n", len(epochs))
	fmt.Fprintln(w)
	fmt.Fprintln(w, section("DIRECT CONDITIONAL BRANCH PREDICTION PER EPOCH MEASUREMENTS"))
	fmt.Fprintln(w, "EPOCH"+intervalHeader)
	for i, e := range epochs {
		fmt.Fprintf(w, "%5d ", i)
		writeIntervalRow(w, Single(e))
	}
	fmt.Fprintln(w, rule())
}
