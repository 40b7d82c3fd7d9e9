// Package insts provides the micro-operation model consumed by the timing
// simulator.
//
// A trace records macro-instructions. Each macro-instruction is split into
// one or more micro-operations ("pieces"); the last piece of a
// macro-instruction carries LastPiece. Instruction counts used for IPC,
// fetch-bundle width and epochs are counted in macro-instructions, i.e. in
// micro-operations with LastPiece set.
//
// Usage:
//
//	op := &insts.MicroOp{PC: 0x1000, NextPC: 0x1004, Class: insts.ClassALU, LastPiece: true}
//	op.Dst = insts.IntOperand(3)
//	fmt.Println(op.Class, op.IsInstruction())
package insts

import "fmt"

// InstClass is the category of a micro-operation. The numeric values match
// the class byte of the binary trace format.
type InstClass uint8

// Instruction classes.
const (
	ClassALU InstClass = iota
	ClassLoad
	ClassStore
	ClassCondBranch
	ClassUncondDirectBranch
	ClassUncondIndirectBranch
	ClassFP
	ClassSlowALU
	ClassUndef
	ClassCallDirect
	ClassCallIndirect
	ClassReturn

	numClasses
)

var classNames = [...]string{
	ClassALU:                  "alu",
	ClassLoad:                 "load",
	ClassStore:                "store",
	ClassCondBranch:           "cond-branch",
	ClassUncondDirectBranch:   "uncond-direct-branch",
	ClassUncondIndirectBranch: "uncond-indirect-branch",
	ClassFP:                   "fp",
	ClassSlowALU:              "slow-alu",
	ClassUndef:                "undef",
	ClassCallDirect:           "call-direct",
	ClassCallIndirect:         "call-indirect",
	ClassReturn:               "return",
}

// String returns a short lowercase name of the class.
func (c InstClass) String() string {
	if c < numClasses {
		return classNames[c]
	}
	return fmt.Sprintf("class(%d)", uint8(c))
}

// Valid reports whether c is one of the defined classes.
func (c InstClass) Valid() bool {
	return c < numClasses
}

// IsLoad reports whether c is a load.
func (c InstClass) IsLoad() bool { return c == ClassLoad }

// IsStore reports whether c is a store.
func (c InstClass) IsStore() bool { return c == ClassStore }

// IsMem reports whether c accesses data memory.
func (c InstClass) IsMem() bool { return c == ClassLoad || c == ClassStore }

// IsCondBranch reports whether c is a conditional branch.
func (c InstClass) IsCondBranch() bool { return c == ClassCondBranch }

// IsUncondBranch reports whether c is any unconditional control transfer.
func (c InstClass) IsUncondBranch() bool {
	switch c {
	case ClassUncondDirectBranch, ClassUncondIndirectBranch,
		ClassCallDirect, ClassCallIndirect, ClassReturn:
		return true
	}
	return false
}

// IsBranch reports whether c is a control transfer of any kind.
func (c InstClass) IsBranch() bool {
	return c.IsCondBranch() || c.IsUncondBranch()
}

// IsUncondDirect reports whether c is a direct jump or a direct call.
func (c InstClass) IsUncondDirect() bool {
	return c == ClassUncondDirectBranch || c == ClassCallDirect
}

// IsUncondIndirect reports whether the target of c comes from a register:
// indirect jumps, indirect calls and returns.
func (c InstClass) IsUncondIndirect() bool {
	return c == ClassUncondIndirectBranch || c == ClassCallIndirect || c == ClassReturn
}

// IsCall reports whether c is a call.
func (c InstClass) IsCall() bool {
	return c == ClassCallDirect || c == ClassCallIndirect
}

// Register identifiers. Integer registers occupy 0-31 and FP/SIMD registers
// 32-63.
const (
	NumIntRegs = 32
	NumFPRegs  = 32

	// RegFlags is the condition-flags register. It is tracked for readiness
	// but never value-predicted.
	RegFlags uint8 = 64
	// RegZero is the hardwired zero register. It never delays a consumer and
	// is never written.
	RegZero uint8 = 65

	// NumRegs is the size of the register identifier space.
	NumRegs = 66
)

// IsIntReg reports whether reg names an integer register (including flags
// and zero).
func IsIntReg(reg uint8) bool {
	return reg < NumIntRegs || reg == RegFlags || reg == RegZero
}
