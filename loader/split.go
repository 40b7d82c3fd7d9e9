package loader

import (
	"fmt"

	"github.com/sarchlab/cbpsim/insts"
)

// Split cracks a macro-instruction into micro-operations.
//
// Non-store instructions produce one piece per output register, plus one
// more for every FP/SIMD output whose upper 64 bits are non-zero. A memory
// instruction that updates its base register gets a trailing ALU piece that
// writes the base. Stores produce one piece per stored value register. The
// memory access is divided evenly among the memory pieces.
func Split(rec *Record) ([]insts.MicroOp, error) {
	if rec.Class.IsUncondBranch() && !rec.Taken {
		return nil, fmt.Errorf("%w: unconditional branch at 0x%x not taken",
			ErrMalformed, rec.PC)
	}

	baseReg, hasBase, err := baseUpdateReg(rec)
	if err != nil {
		return nil, err
	}

	template := insts.MicroOp{
		PC:     rec.PC,
		NextPC: rec.NextPC(),
		Class:  rec.Class,
		Taken:  rec.Class.IsBranch() && rec.Taken,
	}

	var ops []insts.MicroOp
	if rec.Class.IsStore() {
		ops, err = splitStore(rec, template)
	} else {
		ops, err = splitOutputs(rec, template, baseReg, hasBase)
	}
	if err != nil {
		return nil, err
	}

	if hasBase {
		base := template
		base.Class = insts.ClassALU
		base.Src[0] = operand(baseReg)
		base.Dst = operand(baseReg).WithValue(baseValue(rec, baseReg))
		ops = append(ops, base)
	}

	ops[len(ops)-1].LastPiece = true
	return ops, nil
}

func splitStore(rec *Record, template insts.MicroOp) ([]insts.MicroOp, error) {
	fixed := 1
	if rec.RegOffset {
		fixed = 2
	}
	if len(rec.InRegs) < fixed {
		return nil, fmt.Errorf("%w: store at 0x%x has %d inputs",
			ErrMalformed, rec.PC, len(rec.InRegs))
	}

	pieces := len(rec.InRegs) - fixed
	if pieces == 0 {
		pieces = 1
	}
	if int(rec.MemSize)%pieces != 0 {
		return nil, fmt.Errorf("%w: store at 0x%x size %d not divisible by %d values",
			ErrMalformed, rec.PC, rec.MemSize, pieces)
	}
	sizeFactor := uint64(rec.MemSize) / uint64(pieces)

	ops := make([]insts.MicroOp, 0, pieces+1)
	for p := 0; p < pieces; p++ {
		op := template
		op.Src[0] = operand(rec.InRegs[0])
		next := 1
		if rec.RegOffset {
			op.Src[1] = operand(rec.InRegs[1])
			next = 2
		}
		if idx := fixed + p; idx < len(rec.InRegs) {
			op.Src[next] = operand(rec.InRegs[idx])
		}
		op.Addr = rec.EffAddr + uint64(p)*sizeFactor
		op.Size = max(1, sizeFactor)
		ops = append(ops, op)
	}

	return ops, nil
}

func splitOutputs(
	rec *Record,
	template insts.MicroOp,
	baseReg uint8,
	hasBase bool,
) ([]insts.MicroOp, error) {
	if len(rec.InRegs) > 3 {
		return nil, fmt.Errorf("%w: %s at 0x%x has %d inputs",
			ErrMalformed, rec.Class, rec.PC, len(rec.InRegs))
	}

	for i, reg := range rec.InRegs {
		template.Src[i] = operand(reg)
	}

	var ops []insts.MicroOp
	for i, reg := range rec.OutRegs {
		if hasBase && reg == baseReg {
			continue
		}

		op := template
		op.Dst = operand(reg).WithValue(rec.OutValues[i][0])
		ops = append(ops, op)

		if !insts.IsIntReg(reg) && rec.OutValues[i][1] != 0 {
			hi := template
			hi.Dst = operand(reg).WithValue(rec.OutValues[i][1])
			ops = append(ops, hi)
		}
	}

	if len(ops) == 0 {
		ops = append(ops, template)
	}

	if rec.Class.IsLoad() {
		sizeFactor := uint64(rec.MemSize) / uint64(len(ops))
		for i := range ops {
			ops[i].Addr = rec.EffAddr + uint64(i)*sizeFactor
			ops[i].Size = max(1, sizeFactor)
		}
	}

	return ops, nil
}

// baseUpdateReg finds the register written back by a pre/post-indexed
// memory access.
func baseUpdateReg(rec *Record) (uint8, bool, error) {
	switch {
	case rec.Class.IsStore():
		if len(rec.OutRegs) > 1 {
			return 0, false, fmt.Errorf("%w: store at 0x%x has %d outputs",
				ErrMalformed, rec.PC, len(rec.OutRegs))
		}
		if (len(rec.OutRegs) == 1) != rec.BaseUpdate {
			return 0, false, fmt.Errorf("%w: store at 0x%x base update flag mismatch",
				ErrMalformed, rec.PC)
		}
		if rec.BaseUpdate {
			return rec.OutRegs[0], true, nil
		}
		return 0, false, nil

	case rec.Class.IsLoad():
		if len(rec.OutRegs) == 0 {
			return 0, false, fmt.Errorf("%w: load at 0x%x has no outputs", ErrMalformed, rec.PC)
		}
		if len(rec.OutRegs) == 1 {
			return 0, false, nil
		}

		var overlap []uint8
		for _, out := range rec.OutRegs {
			if out >= insts.NumIntRegs {
				continue
			}
			for _, in := range rec.InRegs {
				if in == out {
					overlap = append(overlap, out)
					break
				}
			}
		}

		if len(overlap) > 1 {
			return 0, false, fmt.Errorf("%w: load at 0x%x overlaps %d registers",
				ErrMalformed, rec.PC, len(overlap))
		}
		if rec.BaseUpdate && len(overlap) == 0 {
			return 0, false, fmt.Errorf("%w: load at 0x%x flags a base update without a base",
				ErrMalformed, rec.PC)
		}
		if rec.BaseUpdate {
			return overlap[0], true, nil
		}
	}

	return 0, false, nil
}

func baseValue(rec *Record, reg uint8) uint64 {
	for i, out := range rec.OutRegs {
		if out == reg {
			return rec.OutValues[i][0]
		}
	}
	return 0
}

func operand(reg uint8) insts.Operand {
	return insts.Operand{Valid: true, IsInt: insts.IsIntReg(reg), Reg: reg}
}
