// Package cache provides a timestamped cache hierarchy built on Akita cache
// components.
//
// The hierarchy does not move data. Every access returns the cycle at which
// the requested block is available, and every resident block remembers the
// cycle at which its fill completes, so an access that hits a block still
// in flight waits for the fill.
package cache

import (
	"fmt"
	"math/bits"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// Config holds cache configuration parameters.
type Config struct {
	// Size in bytes
	Size int `json:"size"`
	// Associativity (number of ways)
	Associativity int `json:"associativity"`
	// BlockSize in bytes (cache line size)
	BlockSize int `json:"block_size"`
	// Latency is the tag search latency in cycles, paid by hits and misses.
	Latency uint64 `json:"latency"`
}

// NumSets returns the number of sets.
func (c Config) NumSets() int {
	return c.Size / (c.Associativity * c.BlockSize)
}

// Validate checks that the geometry can be modeled.
func (c Config) Validate() error {
	if c.Size <= 0 || c.Associativity <= 0 || c.BlockSize <= 0 {
		return fmt.Errorf("size, associativity and block_size must be > 0")
	}
	if bits.OnesCount(uint(c.BlockSize)) != 1 {
		return fmt.Errorf("block_size %d is not a power of two", c.BlockSize)
	}
	if c.Size%(c.Associativity*c.BlockSize) != 0 {
		return fmt.Errorf("size %d is not a multiple of associativity*block_size", c.Size)
	}
	if bits.OnesCount(uint(c.NumSets())) != 1 {
		return fmt.Errorf("number of sets %d is not a power of two", c.NumSets())
	}
	return nil
}

// DefaultICacheConfig returns the default instruction cache configuration:
// 128KB, 8-way, 64B lines. Hits add no latency so that a hitting fetch
// does not stall.
func DefaultICacheConfig() Config {
	return Config{
		Size:          128 * 1024,
		Associativity: 8,
		BlockSize:     64,
		Latency:       0,
	}
}

// DefaultL1Config returns the default L1 data cache configuration:
// 48KB, 12-way, 64B lines, 5 cycles.
func DefaultL1Config() Config {
	return Config{
		Size:          48 * 1024,
		Associativity: 12,
		BlockSize:     64,
		Latency:       5,
	}
}

// DefaultL2Config returns the default unified L2 configuration:
// 2MB, 16-way, 64B lines, 14 cycles.
func DefaultL2Config() Config {
	return Config{
		Size:          2 * 1024 * 1024,
		Associativity: 16,
		BlockSize:     64,
		Latency:       14,
	}
}

// DefaultL3Config returns the default last-level cache configuration:
// 32MB, 16-way, 128B lines, 30 cycles.
func DefaultL3Config() Config {
	return Config{
		Size:          32 * 1024 * 1024,
		Associativity: 16,
		BlockSize:     128,
		Latency:       30,
	}
}

// Level is one level of the memory hierarchy.
type Level interface {
	// Access returns the cycle at which the block holding addr is
	// available to a request issued at cycle.
	Access(cycle uint64, isRead bool, addr uint64, isPrefetch bool) uint64
	// IsHit reports whether addr is resident and ready at cycle. It does
	// not change replacement state or statistics.
	IsHit(cycle uint64, addr uint64) bool
}

// Statistics holds cache performance statistics. Demand counters exclude
// prefetches.
type Statistics struct {
	Reads      uint64
	Writes     uint64
	Hits       uint64
	Misses     uint64
	Evictions  uint64
	Writebacks uint64

	PrefetchAccesses uint64
	PrefetchMisses   uint64
}

// Accesses returns the number of demand accesses.
func (s Statistics) Accesses() uint64 {
	return s.Reads + s.Writes
}

// MissRate returns demand misses per demand access.
func (s Statistics) MissRate() float64 {
	if s.Accesses() == 0 {
		return 0
	}
	return float64(s.Misses) / float64(s.Accesses())
}

// Cache is a set-associative, write-allocate level with LRU replacement.
type Cache struct {
	name   string
	config Config

	// Akita cache directory for tag/state management
	directory *akitacache.DirectoryImpl

	// Fill completion cycle - indexed by (setID * associativity + wayID)
	readyAt []uint64

	next  Level
	stats Statistics
}

// New creates a new cache level in front of next.
func New(name string, config Config, next Level) *Cache {
	numSets := config.NumSets()

	return &Cache{
		name:   name,
		config: config,
		directory: akitacache.NewDirectory(
			numSets,
			config.Associativity,
			config.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
		readyAt: make([]uint64, numSets*config.Associativity),
		next:    next,
	}
}

// Name returns the level name used in reports.
func (c *Cache) Name() string {
	return c.name
}

// Config returns the cache configuration.
func (c *Cache) Config() Config {
	return c.config
}

// Stats returns cache statistics.
func (c *Cache) Stats() Statistics {
	return c.stats
}

// blockIndex computes the index into readyAt for a block.
func (c *Cache) blockIndex(block *akitacache.Block) int {
	return block.SetID*c.config.Associativity + block.WayID
}

func (c *Cache) blockAddr(addr uint64) uint64 {
	return addr &^ uint64(c.config.BlockSize-1)
}

// Access looks addr up at cycle. A hit is ready after the search latency or
// when the block's fill completes, whichever is later. A miss forwards the
// request to the next level when the search completes and allocates the
// block with the next level's ready cycle.
func (c *Cache) Access(cycle uint64, isRead bool, addr uint64, isPrefetch bool) uint64 {
	c.countAccess(isRead, isPrefetch)

	blockAddr := c.blockAddr(addr)
	searchDone := cycle + c.config.Latency

	block := c.directory.Lookup(0, blockAddr)
	if block != nil && block.IsValid {
		if !isPrefetch {
			c.stats.Hits++
		}
		c.directory.Visit(block) // Update LRU
		if !isRead {
			block.IsDirty = true
		}
		return max(searchDone, c.readyAt[c.blockIndex(block)])
	}

	if isPrefetch {
		c.stats.PrefetchMisses++
	} else {
		c.stats.Misses++
	}

	ready := searchDone
	if c.next != nil {
		ready = c.next.Access(searchDone, true, blockAddr, isPrefetch)
	}

	victim := c.directory.FindVictim(blockAddr)
	if victim == nil {
		// This shouldn't happen with proper directory setup
		return ready
	}

	if victim.IsValid {
		c.stats.Evictions++
		if victim.IsDirty {
			c.stats.Writebacks++
		}
	}

	victim.Tag = blockAddr
	victim.IsValid = true
	victim.IsDirty = !isRead
	c.readyAt[c.blockIndex(victim)] = ready
	c.directory.Visit(victim)

	return ready
}

// IsHit reports whether addr is resident with its fill complete at cycle.
func (c *Cache) IsHit(cycle uint64, addr uint64) bool {
	block := c.directory.Lookup(0, c.blockAddr(addr))
	if block == nil || !block.IsValid {
		return false
	}
	return c.readyAt[c.blockIndex(block)] <= cycle
}

// Invalidate marks a cache line as invalid.
func (c *Cache) Invalidate(addr uint64) {
	block := c.directory.Lookup(0, c.blockAddr(addr))
	if block != nil && block.IsValid {
		block.IsValid = false
		block.IsDirty = false
	}
}

// Reset invalidates all cache lines and clears statistics.
func (c *Cache) Reset() {
	c.directory.Reset()
	clear(c.readyAt)
	c.stats = Statistics{}
}

func (c *Cache) countAccess(isRead, isPrefetch bool) {
	switch {
	case isPrefetch:
		c.stats.PrefetchAccesses++
	case isRead:
		c.stats.Reads++
	default:
		c.stats.Writes++
	}
}
