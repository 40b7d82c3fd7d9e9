package loader_test

import (
	"bytes"
	"errors"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/cbpsim/insts"
	"github.com/sarchlab/cbpsim/loader"
)

func readAll(src interface {
	Next() (*insts.MicroOp, error)
}) []insts.MicroOp {
	var ops []insts.MicroOp
	for {
		op, err := src.Next()
		if errors.Is(err, io.EOF) {
			return ops
		}
		Expect(err).NotTo(HaveOccurred())
		ops = append(ops, *op)
	}
}

var _ = Describe("TraceReader", func() {
	var buf *bytes.Buffer

	BeforeEach(func() {
		buf = &bytes.Buffer{}
	})

	write := func(recs ...*loader.Record) {
		for _, r := range recs {
			Expect(loader.WriteRecord(buf, r)).To(Succeed())
		}
	}

	It("should return io.EOF on an empty trace", func() {
		r := loader.NewTraceReader(buf)
		_, err := r.Next()
		Expect(err).To(Equal(io.EOF))
	})

	It("should read a simple ALU instruction", func() {
		write(&loader.Record{
			PC:        0x1000,
			Class:     insts.ClassALU,
			InRegs:    []uint8{1, 2},
			OutRegs:   []uint8{3},
			OutValues: [][2]uint64{{42, 0}},
		})

		ops := readAll(loader.NewTraceReader(buf))
		Expect(ops).To(HaveLen(1))
		Expect(ops[0].PC).To(Equal(uint64(0x1000)))
		Expect(ops[0].NextPC).To(Equal(uint64(0x1004)))
		Expect(ops[0].Src[0].Reg).To(Equal(uint8(1)))
		Expect(ops[0].Src[1].Reg).To(Equal(uint8(2)))
		Expect(ops[0].Src[2].Valid).To(BeFalse())
		Expect(ops[0].Dst.Value).To(Equal(uint64(42)))
		Expect(ops[0].LastPiece).To(BeTrue())
	})

	It("should take the target of a taken branch as next PC", func() {
		write(
			&loader.Record{PC: 0x10, Class: insts.ClassCondBranch, Taken: true, Target: 0x80, InRegs: []uint8{64}},
			&loader.Record{PC: 0x80, Class: insts.ClassCondBranch, Taken: false, InRegs: []uint8{64}},
		)

		ops := readAll(loader.NewTraceReader(buf))
		Expect(ops).To(HaveLen(2))
		Expect(ops[0].Taken).To(BeTrue())
		Expect(ops[0].NextPC).To(Equal(uint64(0x80)))
		Expect(ops[1].Taken).To(BeFalse())
		Expect(ops[1].NextPC).To(Equal(uint64(0x84)))
	})

	It("should split a load pair with base update into three pieces", func() {
		write(&loader.Record{
			PC:         0x2000,
			Class:      insts.ClassLoad,
			EffAddr:    0x8000,
			MemSize:    16,
			BaseUpdate: true,
			InRegs:     []uint8{5},
			OutRegs:    []uint8{1, 5, 2},
			OutValues:  [][2]uint64{{11, 0}, {0x8010, 0}, {22, 0}},
		})

		r := loader.NewTraceReader(buf)
		ops := readAll(r)
		Expect(ops).To(HaveLen(3))
		Expect(r.Instructions()).To(Equal(uint64(1)))

		Expect(ops[0].Class).To(Equal(insts.ClassLoad))
		Expect(ops[0].Dst.Reg).To(Equal(uint8(1)))
		Expect(ops[0].Addr).To(Equal(uint64(0x8000)))
		Expect(ops[0].Size).To(Equal(uint64(8)))
		Expect(ops[1].Dst.Reg).To(Equal(uint8(2)))
		Expect(ops[1].Addr).To(Equal(uint64(0x8008)))

		Expect(ops[2].Class).To(Equal(insts.ClassALU))
		Expect(ops[2].Src[0].Reg).To(Equal(uint8(5)))
		Expect(ops[2].Dst.Reg).To(Equal(uint8(5)))
		Expect(ops[2].Dst.Value).To(Equal(uint64(0x8010)))

		Expect(ops[0].LastPiece).To(BeFalse())
		Expect(ops[1].LastPiece).To(BeFalse())
		Expect(ops[2].LastPiece).To(BeTrue())
	})

	It("should add a piece for the upper half of a SIMD result", func() {
		write(&loader.Record{
			PC:        0x3000,
			Class:     insts.ClassFP,
			InRegs:    []uint8{33, 34},
			OutRegs:   []uint8{35},
			OutValues: [][2]uint64{{1, 2}},
		})

		ops := readAll(loader.NewTraceReader(buf))
		Expect(ops).To(HaveLen(2))
		Expect(ops[0].Dst.IsInt).To(BeFalse())
		Expect(ops[0].Dst.Value).To(Equal(uint64(1)))
		Expect(ops[1].Dst.Value).To(Equal(uint64(2)))
	})

	It("should split a store pair by value register", func() {
		write(&loader.Record{
			PC:        0x4000,
			Class:     insts.ClassStore,
			EffAddr:   0x9000,
			MemSize:   16,
			InRegs:    []uint8{7, 1, 2},
			OutRegs:   []uint8{},
			OutValues: [][2]uint64{},
		})

		ops := readAll(loader.NewTraceReader(buf))
		Expect(ops).To(HaveLen(2))
		Expect(ops[0].Src[0].Reg).To(Equal(uint8(7)))
		Expect(ops[0].Src[1].Reg).To(Equal(uint8(1)))
		Expect(ops[1].Src[1].Reg).To(Equal(uint8(2)))
		Expect(ops[1].Addr).To(Equal(uint64(0x9008)))
		Expect(ops[1].Dst.Valid).To(BeFalse())
	})

	It("should reject unknown classes", func() {
		buf.Write([]byte{0, 0, 0, 0, 0, 0, 0, 0, 99})
		_, err := loader.NewTraceReader(buf).Next()
		Expect(err).To(MatchError(loader.ErrMalformed))
	})

	It("should report truncated records", func() {
		buf.Write([]byte{0, 0, 0, 0, 0, 0, 0, 0, byte(insts.ClassLoad), 1, 2})
		_, err := loader.NewTraceReader(buf).Next()
		Expect(err).To(MatchError(io.ErrUnexpectedEOF))
	})

	It("should open gzip compressed traces", func() {
		path := filepath.Join(GinkgoT().TempDir(), "trace.gz")
		f, err := os.Create(path)
		Expect(err).NotTo(HaveOccurred())

		zw := gzip.NewWriter(f)
		for i := uint64(0); i < 10; i++ {
			Expect(loader.WriteRecord(zw, &loader.Record{
				PC: 0x100 + 4*i, Class: insts.ClassALU,
			})).To(Succeed())
		}
		Expect(zw.Close()).To(Succeed())
		Expect(f.Close()).To(Succeed())

		r, err := loader.Open(path)
		Expect(err).NotTo(HaveOccurred())
		defer func() { _ = r.Close() }()

		ops := readAll(r)
		Expect(ops).To(HaveLen(10))
		Expect(ops[9].PC).To(Equal(uint64(0x124)))
	})
})

var _ = Describe("SliceSource", func() {
	It("should replay and rewind", func() {
		src := loader.NewSliceSource([]insts.MicroOp{{PC: 1}, {PC: 2}})
		Expect(readAll(src)).To(HaveLen(2))
		src.Rewind()
		op, err := src.Next()
		Expect(err).NotTo(HaveOccurred())
		Expect(op.PC).To(Equal(uint64(1)))
	})
})
