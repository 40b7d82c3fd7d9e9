package benchmarks

import "github.com/sarchlab/cbpsim/insts"

// TraceBuilder assembles a synthetic micro-operation trace. Every op gets
// the next program counter unless a branch redirects it.
type TraceBuilder struct {
	pc  uint64
	ops []insts.MicroOp
}

// NewTraceBuilder starts a trace at pc.
func NewTraceBuilder(pc uint64) *TraceBuilder {
	return &TraceBuilder{pc: pc}
}

// PC returns the program counter of the next op.
func (b *TraceBuilder) PC() uint64 {
	return b.pc
}

// Ops returns the trace built so far.
func (b *TraceBuilder) Ops() []insts.MicroOp {
	return b.ops
}

// Len returns the number of ops built so far.
func (b *TraceBuilder) Len() int {
	return len(b.ops)
}

func (b *TraceBuilder) emit(op insts.MicroOp, next uint64) *TraceBuilder {
	op.PC = b.pc
	op.NextPC = next
	op.LastPiece = true
	b.ops = append(b.ops, op)
	b.pc = next
	return b
}

func withSources(op insts.MicroOp, srcs []insts.Operand) insts.MicroOp {
	copy(op.Src[:], srcs)
	return op
}

// ALU adds an integer operation writing dst.
func (b *TraceBuilder) ALU(dst uint8, srcs ...uint8) *TraceBuilder {
	op := insts.MicroOp{Class: insts.ClassALU, Dst: insts.IntOperand(dst)}
	for i, s := range srcs {
		op.Src[i] = insts.IntOperand(s)
	}
	return b.emit(op, b.pc+4)
}

// SlowALU adds a multiply/divide style operation writing dst.
func (b *TraceBuilder) SlowALU(dst uint8, srcs ...uint8) *TraceBuilder {
	b.ALU(dst, srcs...)
	b.ops[len(b.ops)-1].Class = insts.ClassSlowALU
	return b
}

// FP adds an FP/SIMD operation. Register numbers are FP register indices.
func (b *TraceBuilder) FP(dst uint8, srcs ...uint8) *TraceBuilder {
	op := insts.MicroOp{Class: insts.ClassFP, Dst: insts.FPOperand(insts.NumIntRegs + dst)}
	for i, s := range srcs {
		op.Src[i] = insts.FPOperand(insts.NumIntRegs + s)
	}
	return b.emit(op, b.pc+4)
}

// Load adds a load of size bytes at addr into dst, with base as address
// source. value is the loaded value.
func (b *TraceBuilder) Load(dst, base uint8, addr, size, value uint64) *TraceBuilder {
	op := withSources(insts.MicroOp{
		Class: insts.ClassLoad,
		Addr:  addr,
		Size:  size,
		Dst:   insts.IntOperand(dst).WithValue(value),
	}, []insts.Operand{insts.IntOperand(base)})
	return b.emit(op, b.pc+4)
}

// Store adds a store of src to size bytes at addr, with base as address
// source.
func (b *TraceBuilder) Store(src, base uint8, addr, size uint64) *TraceBuilder {
	op := withSources(insts.MicroOp{
		Class: insts.ClassStore,
		Addr:  addr,
		Size:  size,
	}, []insts.Operand{insts.IntOperand(src), insts.IntOperand(base)})
	return b.emit(op, b.pc+4)
}

// Compare adds an operation setting the flags from src.
func (b *TraceBuilder) Compare(src uint8) *TraceBuilder {
	op := insts.MicroOp{
		Class: insts.ClassALU,
		Dst:   insts.IntOperand(insts.RegFlags),
	}
	op.Src[0] = insts.IntOperand(src)
	return b.emit(op, b.pc+4)
}

// CondBranch adds a conditional branch on the flags. A taken branch moves
// the program counter to target.
func (b *TraceBuilder) CondBranch(taken bool, target uint64) *TraceBuilder {
	op := insts.MicroOp{Class: insts.ClassCondBranch, Taken: taken}
	op.Src[0] = insts.IntOperand(insts.RegFlags)
	next := b.pc + 4
	if taken {
		next = target
	}
	return b.emit(op, next)
}

// Jump adds an unconditional direct branch to target.
func (b *TraceBuilder) Jump(target uint64) *TraceBuilder {
	return b.emit(insts.MicroOp{Class: insts.ClassUncondDirectBranch, Taken: true}, target)
}

// Call adds a direct call to target writing the link register.
func (b *TraceBuilder) Call(target uint64) *TraceBuilder {
	op := insts.MicroOp{
		Class: insts.ClassCallDirect,
		Taken: true,
		Dst:   insts.IntOperand(30).WithValue(b.pc + 4),
	}
	return b.emit(op, target)
}

// IndirectJump adds an indirect branch through reg to target.
func (b *TraceBuilder) IndirectJump(reg uint8, target uint64) *TraceBuilder {
	op := insts.MicroOp{Class: insts.ClassUncondIndirectBranch, Taken: true}
	op.Src[0] = insts.IntOperand(reg)
	return b.emit(op, target)
}

// Return adds a return to target through the link register.
func (b *TraceBuilder) Return(target uint64) *TraceBuilder {
	op := insts.MicroOp{Class: insts.ClassReturn, Taken: true}
	op.Src[0] = insts.IntOperand(30)
	return b.emit(op, target)
}
