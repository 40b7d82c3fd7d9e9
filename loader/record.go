// Package loader reads binary instruction traces and turns every traced
// macro-instruction into the micro-operations consumed by the timing model.
//
// A trace is a sequence of little-endian records:
//
//	PC                      8 bytes
//	class                   1 byte
//	if load or store:
//	  effective address     8 bytes
//	  access size (total)   1 byte
//	  base update           1 byte
//	  if store:
//	    register offset     1 byte
//	if branch:
//	  taken                 1 byte
//	  if taken:
//	    target              8 bytes
//	input register count    1 byte, then 1 byte per register
//	output register count   1 byte, then 1 byte per register
//	output values           8 bytes per integer register, 16 per SIMD register
//
// Traces are usually compressed; Open picks a decompressor from the file
// extension (.gz, .zst, .lz4).
package loader

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/sarchlab/cbpsim/insts"
)

// Record is one traced macro-instruction, as stored in the trace.
type Record struct {
	PC     uint64
	Class  insts.InstClass
	Taken  bool
	Target uint64

	EffAddr    uint64
	MemSize    uint8
	BaseUpdate bool
	RegOffset  bool

	InRegs  []uint8
	OutRegs []uint8
	// OutValues holds one (low, high) pair per output register. The high
	// half is only stored for FP/SIMD registers.
	OutValues [][2]uint64
}

// NextPC returns the address of the instruction that follows r.
func (r *Record) NextPC() uint64 {
	if r.Class.IsBranch() && r.Taken {
		return r.Target
	}
	return r.PC + 4
}

// WriteRecord encodes r in trace format.
func WriteRecord(w io.Writer, r *Record) error {
	if len(r.OutValues) != len(r.OutRegs) {
		return fmt.Errorf("record at 0x%x: %d output registers but %d values",
			r.PC, len(r.OutRegs), len(r.OutValues))
	}

	buf := make([]byte, 0, 64)
	buf = binary.LittleEndian.AppendUint64(buf, r.PC)
	buf = append(buf, byte(r.Class))

	if r.Class.IsMem() {
		buf = binary.LittleEndian.AppendUint64(buf, r.EffAddr)
		buf = append(buf, r.MemSize, boolByte(r.BaseUpdate))
		if r.Class.IsStore() {
			buf = append(buf, boolByte(r.RegOffset))
		}
	}

	if r.Class.IsBranch() {
		buf = append(buf, boolByte(r.Taken))
		if r.Taken {
			buf = binary.LittleEndian.AppendUint64(buf, r.Target)
		}
	}

	buf = append(buf, byte(len(r.InRegs)))
	buf = append(buf, r.InRegs...)
	buf = append(buf, byte(len(r.OutRegs)))
	buf = append(buf, r.OutRegs...)

	for i, reg := range r.OutRegs {
		buf = binary.LittleEndian.AppendUint64(buf, r.OutValues[i][0])
		if !insts.IsIntReg(reg) {
			buf = binary.LittleEndian.AppendUint64(buf, r.OutValues[i][1])
		}
	}

	_, err := w.Write(buf)
	return err
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
