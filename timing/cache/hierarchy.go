package cache

import "fmt"

// HierarchyConfig describes the instruction cache, the three data cache
// levels and main memory.
type HierarchyConfig struct {
	ICache        Config `json:"icache"`
	L1            Config `json:"l1"`
	L2            Config `json:"l2"`
	L3            Config `json:"l3"`
	MemoryLatency uint64 `json:"memory_latency"`
}

// DefaultHierarchyConfig returns the default hierarchy.
func DefaultHierarchyConfig() HierarchyConfig {
	return HierarchyConfig{
		ICache:        DefaultICacheConfig(),
		L1:            DefaultL1Config(),
		L2:            DefaultL2Config(),
		L3:            DefaultL3Config(),
		MemoryLatency: 150,
	}
}

// Validate checks every level.
func (c HierarchyConfig) Validate() error {
	levels := []struct {
		name string
		cfg  Config
	}{
		{"icache", c.ICache},
		{"l1", c.L1},
		{"l2", c.L2},
		{"l3", c.L3},
	}

	for _, l := range levels {
		if err := l.cfg.Validate(); err != nil {
			return fmt.Errorf("%s: %w", l.name, err)
		}
	}

	return nil
}

// HitLevel tells where an address currently resides.
type HitLevel int

// Hit levels, from closest to farthest.
const (
	HitL1 HitLevel = iota
	HitL2
	HitL3
	HitMemory
)

func (l HitLevel) String() string {
	switch l {
	case HitL1:
		return "L1"
	case HitL2:
		return "L2"
	case HitL3:
		return "L3"
	default:
		return "memory"
	}
}

// Hierarchy wires the instruction cache and the L1 data cache in front of a
// shared L2, L3 and main memory.
type Hierarchy struct {
	IC     *Cache
	L1     *Cache
	L2     *Cache
	L3     *Cache
	Memory *MainMemory
}

// NewHierarchy builds the hierarchy described by cfg.
func NewHierarchy(cfg HierarchyConfig) *Hierarchy {
	mem := NewMainMemory(cfg.MemoryLatency)
	l3 := New("L3", cfg.L3, mem)
	l2 := New("L2", cfg.L2, l3)

	return &Hierarchy{
		IC:     New("IC", cfg.ICache, l2),
		L1:     New("L1", cfg.L1, l2),
		L2:     l2,
		L3:     l3,
		Memory: mem,
	}
}

// Probe returns the closest data cache level that holds addr ready at
// cycle.
func (h *Hierarchy) Probe(cycle, addr uint64) HitLevel {
	switch {
	case h.L1.IsHit(cycle, addr):
		return HitL1
	case h.L2.IsHit(cycle, addr):
		return HitL2
	case h.L3.IsHit(cycle, addr):
		return HitL3
	default:
		return HitMemory
	}
}

// Levels returns the cache levels in report order.
func (h *Hierarchy) Levels() []*Cache {
	return []*Cache{h.IC, h.L1, h.L2, h.L3}
}
