package pipeline

import (
	"errors"
	"fmt"
)

// ErrInvariant is matched by every InvariantError.
var ErrInvariant = errors.New("pipeline invariant violated")

// ErrFinished is returned by Step and Finish once Finish has run.
var ErrFinished = errors.New("pipeline already finished")

// InvariantError reports a violated pipeline invariant. The pipeline that
// returned it refuses further work.
type InvariantError struct {
	SeqNo uint64
	Piece uint8
	Cycle uint64
	Msg   string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("%v: seq %d piece %d at cycle %d: %s",
		ErrInvariant, e.SeqNo, e.Piece, e.Cycle, e.Msg)
}

// Is makes errors.Is(err, ErrInvariant) hold.
func (e *InvariantError) Is(target error) bool {
	return target == ErrInvariant
}
