package cache

// MainMemory is the last level of the hierarchy. Every access takes a fixed
// latency.
type MainMemory struct {
	latency  uint64
	accesses uint64
}

// NewMainMemory creates a memory with the given access latency.
func NewMainMemory(latency uint64) *MainMemory {
	return &MainMemory{latency: latency}
}

// Access returns cycle plus the memory latency.
func (m *MainMemory) Access(cycle uint64, _ bool, _ uint64, _ bool) uint64 {
	m.accesses++
	return cycle + m.latency
}

// IsHit always reports true; memory holds every address.
func (m *MainMemory) IsHit(uint64, uint64) bool {
	return true
}

// Latency returns the access latency.
func (m *MainMemory) Latency() uint64 {
	return m.latency
}

// Accesses returns the number of requests that reached memory.
func (m *MainMemory) Accesses() uint64 {
	return m.accesses
}
