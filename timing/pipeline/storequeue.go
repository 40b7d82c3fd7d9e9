package pipeline

// StoreEntry is the youngest store seen for one byte address.
type StoreEntry struct {
	// ExecCycle is the cycle at which the store's data is available for
	// forwarding.
	ExecCycle uint64
	// RetireCycle is the cycle at which the store leaves the window. A load
	// executing at or after it reads the cache instead.
	RetireCycle uint64
}

// StoreQueue maps byte addresses to the youngest store that wrote them.
// Address disambiguation is oracle: every load knows exactly which bytes
// are in flight.
type StoreQueue struct {
	entries map[uint64]StoreEntry
}

// NewStoreQueue creates an empty store queue.
func NewStoreQueue() *StoreQueue {
	return &StoreQueue{entries: make(map[uint64]StoreEntry)}
}

// Write records a store covering size bytes starting at addr.
func (q *StoreQueue) Write(addr, size uint64, e StoreEntry) {
	for i := range size {
		q.entries[addr+i] = e
	}
}

// Forward returns the cycle at which a load executing at cycle can obtain
// the byte at addr from an in-flight store.
func (q *StoreQueue) Forward(addr, cycle uint64) (uint64, bool) {
	e, ok := q.entries[addr]
	if !ok || cycle >= e.RetireCycle {
		return 0, false
	}
	return max(cycle, e.ExecCycle), true
}

// Len returns the number of tracked byte addresses.
func (q *StoreQueue) Len() int {
	return len(q.entries)
}
