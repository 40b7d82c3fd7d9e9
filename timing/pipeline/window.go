package pipeline

import "github.com/sarchlab/cbpsim/insts"

// WindowEntry is one in-flight micro-operation.
type WindowEntry struct {
	SeqNo uint64
	Piece uint8
	PC    uint64

	Info insts.ExecuteInfo

	FetchCycle  uint64
	DecodeCycle uint64
	ExecCycle   uint64
	RetireCycle uint64

	// Latency is the execution latency, from lane grant to result.
	Latency uint64

	// Addr is the memory address of loads and stores, 0 otherwise.
	Addr uint64
	// Value is the produced value when HasValue is set.
	Value    uint64
	HasValue bool

	// DirPredicted is set when the direction predictor was consulted for
	// this op at fetch.
	DirPredicted bool

	predTaken    bool
	hasPredTaken bool
}

// PredTaken returns the predicted direction recorded for a branch.
func (e *WindowEntry) PredTaken() (bool, bool) {
	return e.predTaken, e.hasPredTaken
}

func (e *WindowEntry) setPredTaken(taken bool) bool {
	if e.hasPredTaken {
		return false
	}
	e.predTaken = taken
	e.hasPredTaken = true
	return true
}

// Window is the bounded in-order instruction window. Entries are stored in
// a ring and located by sequence number, which is contiguous from the
// oldest entry to the youngest.
type Window struct {
	entries []WindowEntry
	head    int
	size    int
}

// NewWindow creates a window with room for capacity entries.
func NewWindow(capacity uint) *Window {
	return &Window{entries: make([]WindowEntry, capacity)}
}

// Cap returns the window capacity.
func (w *Window) Cap() int {
	return len(w.entries)
}

// Len returns the number of entries in flight.
func (w *Window) Len() int {
	return w.size
}

// Full reports whether the window holds Cap entries.
func (w *Window) Full() bool {
	return w.size == len(w.entries)
}

// Empty reports whether the window holds no entry.
func (w *Window) Empty() bool {
	return w.size == 0
}

// Push appends e as the youngest entry. It returns nil when the window is
// full.
func (w *Window) Push(e WindowEntry) *WindowEntry {
	if w.Full() {
		return nil
	}
	if w.size > 0 && e.SeqNo != w.Back().SeqNo+1 {
		return nil
	}

	slot := (w.head + w.size) % len(w.entries)
	w.entries[slot] = e
	w.size++
	return &w.entries[slot]
}

// Front returns the oldest entry, or nil when empty.
func (w *Window) Front() *WindowEntry {
	if w.size == 0 {
		return nil
	}
	return &w.entries[w.head]
}

// Back returns the youngest entry, or nil when empty.
func (w *Window) Back() *WindowEntry {
	if w.size == 0 {
		return nil
	}
	return &w.entries[(w.head+w.size-1)%len(w.entries)]
}

// Pop removes the oldest entry.
func (w *Window) Pop() {
	if w.size == 0 {
		return
	}
	w.head = (w.head + 1) % len(w.entries)
	w.size--
}

// Lookup returns the in-flight entry (seqNo, piece), or nil.
func (w *Window) Lookup(seqNo uint64, piece uint8) *WindowEntry {
	front := w.Front()
	if front == nil || seqNo < front.SeqNo {
		return nil
	}

	off := seqNo - front.SeqNo
	if off >= uint64(w.size) {
		return nil
	}

	e := &w.entries[(w.head+int(off))%len(w.entries)]
	if e.Piece != piece {
		return nil
	}
	return e
}

// BackRetireCycle returns the retire cycle of the youngest entry, or 0.
func (w *Window) BackRetireCycle() uint64 {
	if b := w.Back(); b != nil {
		return b.RetireCycle
	}
	return 0
}
