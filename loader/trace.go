package loader

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/sarchlab/cbpsim/insts"
)

// ErrMalformed is wrapped by every error caused by an invalid record.
var ErrMalformed = errors.New("malformed trace record")

// TraceReader produces micro-operations from a binary trace.
type TraceReader struct {
	r      *bufio.Reader
	closer io.Closer

	pending []insts.MicroOp
	next    int

	numInstrs uint64
}

// NewTraceReader reads an uncompressed trace from r.
func NewTraceReader(r io.Reader) *TraceReader {
	return &TraceReader{r: bufio.NewReaderSize(r, 1<<16)}
}

// Open opens a trace file. The decompressor is chosen by extension: .gz
// (gzip), .zst (zstd), .lz4 (lz4); anything else is read as is.
func Open(path string) (*TraceReader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open trace: %w", err)
	}

	var (
		r      io.Reader
		closer io.Closer = f
	)

	switch filepath.Ext(path) {
	case ".gz":
		zr, err := gzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to open gzip stream: %w", err)
		}
		r = zr
		closer = multiCloser{zr, f}
	case ".zst":
		zr, err := zstd.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("failed to open zstd stream: %w", err)
		}
		r = zr
		closer = multiCloser{zstdCloser{zr}, f}
	case ".lz4":
		r = lz4.NewReader(f)
	default:
		r = f
	}

	tr := NewTraceReader(r)
	tr.closer = closer
	return tr, nil
}

// Close releases the underlying file, if any.
func (t *TraceReader) Close() error {
	if t.closer == nil {
		return nil
	}
	return t.closer.Close()
}

// Instructions returns the number of macro-instructions read so far.
func (t *TraceReader) Instructions() uint64 {
	return t.numInstrs
}

// Next returns the next micro-operation. It returns io.EOF at the end of
// the trace.
func (t *TraceReader) Next() (*insts.MicroOp, error) {
	for t.next >= len(t.pending) {
		rec, err := t.readRecord()
		if err != nil {
			return nil, err
		}

		ops, err := Split(rec)
		if err != nil {
			return nil, err
		}

		t.numInstrs++
		t.pending = ops
		t.next = 0
	}

	op := &t.pending[t.next]
	t.next++
	return op, nil
}

func (t *TraceReader) readRecord() (*Record, error) {
	rec := &Record{}

	pc, err := t.u64()
	if err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, fmt.Errorf("truncated record: %w", err)
		}
		return nil, err
	}
	rec.PC = pc

	class, err := t.u8()
	if err != nil {
		return nil, truncated(err)
	}
	rec.Class = insts.InstClass(class)
	if !rec.Class.Valid() || rec.Class == insts.ClassUndef {
		return nil, fmt.Errorf("%w: invalid class %d at pc 0x%x", ErrMalformed, class, pc)
	}

	if rec.Class.IsMem() {
		if rec.EffAddr, err = t.u64(); err != nil {
			return nil, truncated(err)
		}
		if rec.MemSize, err = t.u8(); err != nil {
			return nil, truncated(err)
		}
		if rec.BaseUpdate, err = t.flag(); err != nil {
			return nil, truncated(err)
		}
		if rec.Class.IsStore() {
			if rec.RegOffset, err = t.flag(); err != nil {
				return nil, truncated(err)
			}
		}
	}

	if rec.Class.IsBranch() {
		if rec.Taken, err = t.flag(); err != nil {
			return nil, truncated(err)
		}
		if rec.Taken {
			if rec.Target, err = t.u64(); err != nil {
				return nil, truncated(err)
			}
		}
	}

	if rec.InRegs, err = t.regList(); err != nil {
		return nil, err
	}
	if rec.OutRegs, err = t.regList(); err != nil {
		return nil, err
	}

	rec.OutValues = make([][2]uint64, len(rec.OutRegs))
	for i, reg := range rec.OutRegs {
		if rec.OutValues[i][0], err = t.u64(); err != nil {
			return nil, truncated(err)
		}
		if !insts.IsIntReg(reg) {
			if rec.OutValues[i][1], err = t.u64(); err != nil {
				return nil, truncated(err)
			}
		}
	}

	return rec, nil
}

func (t *TraceReader) regList() ([]uint8, error) {
	n, err := t.u8()
	if err != nil {
		return nil, truncated(err)
	}

	regs := make([]uint8, n)
	if _, err := io.ReadFull(t.r, regs); err != nil {
		return nil, truncated(err)
	}

	for _, reg := range regs {
		if reg >= insts.NumRegs {
			return nil, fmt.Errorf("%w: register id %d out of range", ErrMalformed, reg)
		}
	}

	return regs, nil
}

func (t *TraceReader) u64() (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(t.r, b[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b[:]), nil
}

func (t *TraceReader) u8() (uint8, error) {
	return t.r.ReadByte()
}

func (t *TraceReader) flag() (bool, error) {
	b, err := t.r.ReadByte()
	return b != 0, err
}

func truncated(err error) error {
	if errors.Is(err, io.EOF) {
		err = io.ErrUnexpectedEOF
	}
	return fmt.Errorf("truncated record: %w", err)
}

type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var errs []error
	for _, c := range m {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

type zstdCloser struct {
	d *zstd.Decoder
}

func (z zstdCloser) Close() error {
	z.d.Close()
	return nil
}
