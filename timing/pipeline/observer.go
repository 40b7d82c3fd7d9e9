package pipeline

// StageObserver is notified when an in-flight micro-operation reaches a
// pipeline stage. The entry is only valid for the duration of the call.
type StageObserver interface {
	NotifyDecode(e *WindowEntry, cycle uint64)
	NotifyExecute(e *WindowEntry, cycle uint64)
	NotifyCommit(e *WindowEntry, cycle uint64)
}

// StageCounter is a StageObserver that counts notifications.
type StageCounter struct {
	Decoded   uint64
	Executed  uint64
	Committed uint64
}

// NotifyDecode counts a decode.
func (c *StageCounter) NotifyDecode(*WindowEntry, uint64) { c.Decoded++ }

// NotifyExecute counts an execute.
func (c *StageCounter) NotifyExecute(*WindowEntry, uint64) { c.Executed++ }

// NotifyCommit counts a commit.
func (c *StageCounter) NotifyCommit(*WindowEntry, uint64) { c.Committed++ }
