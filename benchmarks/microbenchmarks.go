package benchmarks

import (
	"math/rand/v2"

	"github.com/sarchlab/cbpsim/insts"
)

const (
	codeBase = 0x1000
	dataBase = 0x100000
)

// GetMicrobenchmarks returns the standard set of microbenchmarks. Each
// benchmark targets one characteristic of the core.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		arithmeticSequential(),
		dependencyChain(),
		memorySequential(),
		memoryStrided(),
		functionCalls(),
		branchTaken(),
		branchRandom(),
		mixedOperations(),
		matrixMultiply(),
		loopSimulation(),
	}
}

// GetCoreBenchmarks returns a minimal set of 3 core benchmarks for quick
// validation: a loop, a matrix multiply and branch-heavy code.
func GetCoreBenchmarks() []Benchmark {
	return []Benchmark{
		loopSimulation(),
		matrixMultiply(),
		branchTaken(),
	}
}

// loop emits iters iterations of body closed by a backward conditional
// branch. body must emit the same ops in every iteration.
func loop(b *TraceBuilder, iters int, body func(b *TraceBuilder, i int)) {
	start := b.PC()
	for i := 0; i < iters; i++ {
		body(b, i)
		b.ALU(9, 9)
		b.Compare(9)
		b.CondBranch(i < iters-1, start)
	}
}

// 1. Arithmetic Sequential - ALU throughput with independent operations
func arithmeticSequential() Benchmark {
	return Benchmark{
		Name:        "arithmetic_sequential",
		Description: "200 ADDs over 8 independent registers - measures ALU throughput",
		Trace: func() []insts.MicroOp {
			b := NewTraceBuilder(codeBase)
			for i := 0; i < 200; i++ {
				r := uint8(i % 8)
				b.ALU(r, r)
			}
			return b.Ops()
		},
		ExpectedInstructions: 200,
	}
}

// 2. Dependency Chain - instruction latency with RAW hazards
func dependencyChain() Benchmark {
	return Benchmark{
		Name:        "dependency_chain",
		Description: "200 dependent ADDs (X0 = X0 + 1) - measures back-to-back latency",
		Trace: func() []insts.MicroOp {
			return buildDependencyChain(200)
		},
		ExpectedInstructions: 200,
	}
}

func buildDependencyChain(n int) []insts.MicroOp {
	b := NewTraceBuilder(codeBase)
	for i := 0; i < n; i++ {
		b.ALU(0, 0)
	}
	return b.Ops()
}

// 3. Memory Sequential - store to load forwarding
func memorySequential() Benchmark {
	return Benchmark{
		Name:        "memory_sequential",
		Description: "100 store/load pairs to sequential addresses - measures forwarding",
		Trace: func() []insts.MicroOp {
			b := NewTraceBuilder(codeBase)
			for i := uint64(0); i < 100; i++ {
				addr := dataBase + 8*i
				b.Store(0, 1, addr, 8)
				b.Load(0, 1, addr, 8, 42)
			}
			return b.Ops()
		},
		ExpectedInstructions: 200,
	}
}

// 4. Memory Strided - cache misses and stride prefetching
func memoryStrided() Benchmark {
	const iters = 512
	return Benchmark{
		Name:        "memory_strided",
		Description: "512 loads one cache line apart - measures miss latency and prefetching",
		Trace: func() []insts.MicroOp {
			b := NewTraceBuilder(codeBase)
			loop(b, iters, func(b *TraceBuilder, i int) {
				b.Load(2, 1, dataBase+64*uint64(i), 8, uint64(i))
				b.ALU(3, 3, 2)
			})
			return b.Ops()
		},
		ExpectedInstructions: iters * 5,
	}
}

// 5. Function Calls - call/return overhead
func functionCalls() Benchmark {
	const calls = 50
	return Benchmark{
		Name:        "function_calls",
		Description: "50 calls to a 3-instruction function - measures call and return prediction",
		Trace: func() []insts.MicroOp {
			const fn = codeBase + 0x800
			b := NewTraceBuilder(codeBase)
			for i := 0; i < calls; i++ {
				ret := b.PC() + 4
				b.Call(fn)
				b.ALU(0, 0)
				b.ALU(1, 0)
				b.Return(ret)
			}
			return b.Ops()
		},
		ExpectedInstructions: calls * 4,
	}
}

// 6. Branch Taken - fetch redirection on taken branches
func branchTaken() Benchmark {
	return Benchmark{
		Name:        "branch_taken",
		Description: "100 taken jumps each followed by one ADD - measures fetch breaks",
		Trace: func() []insts.MicroOp {
			b := NewTraceBuilder(codeBase)
			for i := 0; i < 100; i++ {
				b.ALU(uint8(i%4), uint8(i%4))
				b.Jump(b.PC() + 0x40)
			}
			return b.Ops()
		},
		ExpectedInstructions: 200,
	}
}

// 7. Branch Random - mispredictions on unpredictable branches
func branchRandom() Benchmark {
	const iters = 500
	return Benchmark{
		Name:        "branch_random",
		Description: "500 data-dependent branches with random outcomes - measures misprediction cost",
		Trace: func() []insts.MicroOp {
			rng := rand.New(rand.NewPCG(7, 7))
			b := NewTraceBuilder(codeBase)
			for i := 0; i < iters; i++ {
				start := b.PC()
				b.Load(2, 1, dataBase+8*uint64(i), 8, 0)
				b.Compare(2)
				taken := rng.IntN(2) == 1
				b.CondBranch(taken, start+0x20)
				if !taken {
					b.ALU(3, 3)
					b.Jump(start + 0x20)
				}
				b.ALU(4, 4)
				b.Jump(codeBase)
			}
			return b.Ops()
		},
	}
}

// 8. Mixed Operations - a typical instruction mix
func mixedOperations() Benchmark {
	const iters = 100
	return Benchmark{
		Name:        "mixed_operations",
		Description: "loop mixing loads, stores, ALU, multiply and FP work",
		Trace: func() []insts.MicroOp {
			b := NewTraceBuilder(codeBase)
			loop(b, iters, func(b *TraceBuilder, i int) {
				addr := dataBase + 16*uint64(i)
				b.Load(2, 1, addr, 8, uint64(i))
				b.ALU(3, 2, 3)
				b.SlowALU(4, 3)
				b.FP(0, 0, 1)
				b.Store(4, 1, addr+8, 8)
			})
			return b.Ops()
		},
		ExpectedInstructions: iters * 8,
	}
}

// 9. Matrix Multiply - an 8x8 matrix product
func matrixMultiply() Benchmark {
	const n = 8
	return Benchmark{
		Name:        "matrix_multiply",
		Description: "8x8 FP matrix multiply - measures load bandwidth and FP latency",
		Trace: func() []insts.MicroOp {
			const (
				a = dataBase
				m = dataBase + 0x1000
				c = dataBase + 0x2000
			)
			b := NewTraceBuilder(codeBase)
			for i := uint64(0); i < n; i++ {
				for j := uint64(0); j < n; j++ {
					loop(b, n, func(b *TraceBuilder, k int) {
						kk := uint64(k)
						b.Load(10, 1, a+8*(i*n+kk), 8, 0)
						b.Load(11, 2, m+8*(kk*n+j), 8, 0)
						b.FP(2, 2, 0, 1)
					})
					b.Store(12, 3, c+8*(i*n+j), 8)
				}
			}
			return b.Ops()
		},
		ExpectedInstructions: n * n * (n*6 + 1),
	}
}

// 10. Loop Simulation - a counted loop
func loopSimulation() Benchmark {
	const iters = 1000
	return Benchmark{
		Name:        "loop_simulation",
		Description: "1000-iteration counted loop - measures loop branch prediction",
		Trace: func() []insts.MicroOp {
			b := NewTraceBuilder(codeBase)
			loop(b, iters, func(b *TraceBuilder, _ int) {
				b.ALU(0, 0)
			})
			return b.Ops()
		},
		ExpectedInstructions: iters * 4,
	}
}
