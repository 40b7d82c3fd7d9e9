package loader

import (
	"io"

	"github.com/sarchlab/cbpsim/insts"
)

// SliceSource replays a fixed list of micro-operations.
type SliceSource struct {
	ops  []insts.MicroOp
	next int
}

// NewSliceSource creates a source over ops. The slice is not copied.
func NewSliceSource(ops []insts.MicroOp) *SliceSource {
	return &SliceSource{ops: ops}
}

// Next returns the next micro-operation, or io.EOF once all have been
// returned.
func (s *SliceSource) Next() (*insts.MicroOp, error) {
	if s.next >= len(s.ops) {
		return nil, io.EOF
	}
	op := &s.ops[s.next]
	s.next++
	return op, nil
}

// Rewind restarts the replay from the first micro-operation.
func (s *SliceSource) Rewind() {
	s.next = 0
}

// Len returns the number of micro-operations in the source.
func (s *SliceSource) Len() int {
	return len(s.ops)
}
