package insts

// Operand is a register operand of a micro-operation.
type Operand struct {
	// Valid is false for absent operands.
	Valid bool
	// IsInt distinguishes integer registers from FP/SIMD registers.
	IsInt bool
	// Reg is the logical register identifier.
	Reg uint8
	// Value is the value carried by the operand. Only destination operands
	// carry a meaningful value; it comes from the trace.
	Value uint64
}

// IntOperand returns a valid integer register operand.
func IntOperand(reg uint8) Operand {
	return Operand{Valid: true, IsInt: true, Reg: reg}
}

// FPOperand returns a valid FP/SIMD register operand.
func FPOperand(reg uint8) Operand {
	return Operand{Valid: true, IsInt: false, Reg: reg}
}

// WithValue returns a copy of o carrying value v.
func (o Operand) WithValue(v uint64) Operand {
	o.Value = v
	return o
}

// MicroOp is one decoded piece of a traced macro-instruction.
type MicroOp struct {
	PC     uint64
	NextPC uint64
	Class  InstClass

	// Taken is the traced branch outcome. Only meaningful for branches.
	Taken bool

	// Addr and Size describe the memory access of loads and stores.
	Addr uint64
	Size uint64

	Src [3]Operand
	Dst Operand

	// LastPiece marks the final micro-operation of a macro-instruction.
	LastPiece bool
}

// IsInstruction reports whether op completes a macro-instruction.
func (op *MicroOp) IsInstruction() bool {
	return op.LastPiece
}

// DecodeInfo is the part of a micro-operation known at decode.
type DecodeInfo struct {
	Class InstClass
	Src   [3]Operand
	Dst   Operand
}

// ExecuteInfo is the part of a micro-operation known once it has executed.
// Every optional field carries an explicit validity flag.
type ExecuteInfo struct {
	Decode DecodeInfo

	HasTaken bool
	Taken    bool

	NextPC uint64

	HasMem  bool
	MemAddr uint64
	MemSize uint64

	HasDstValue bool
	DstValue    uint64
}

// DecodeInfo returns the decode-time view of op.
func (op *MicroOp) DecodeInfo() DecodeInfo {
	return DecodeInfo{Class: op.Class, Src: op.Src, Dst: op.Dst}
}

// ExecuteInfo returns the execute-time view of op.
func (op *MicroOp) ExecuteInfo() ExecuteInfo {
	info := ExecuteInfo{
		Decode: op.DecodeInfo(),
		NextPC: op.NextPC,
	}

	if op.Class.IsBranch() {
		info.HasTaken = true
		info.Taken = op.Taken
	}

	if op.Class.IsMem() {
		info.HasMem = true
		info.MemAddr = op.Addr
		info.MemSize = op.Size
	}

	if op.Dst.Valid {
		info.HasDstValue = true
		info.DstValue = op.Dst.Value
	}

	return info
}
