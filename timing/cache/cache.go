// Package cache provides a data cache model for load/store traffic using
// Akita cache components.
package cache

import (
	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// WordSize is the size of a memory word in bytes.
const WordSize = 4

// Config holds cache configuration parameters.
type Config struct {
	// Size in bytes
	Size int
	// Associativity (number of ways)
	Associativity int
	// BlockSize in bytes (cache line size), a multiple of WordSize
	BlockSize int
	// HitLatency in cycles
	HitLatency uint64
	// MissLatency in cycles (includes memory access time)
	MissLatency uint64
}

// DefaultConfig returns a small L1 data cache sized for the 16KB word
// memory: 1KB, 2-way, 16B (four word) lines.
func DefaultConfig() Config {
	return Config{
		Size:          1024,
		Associativity: 2,
		BlockSize:     16,
		HitLatency:    1,
		MissLatency:   10,
	}
}

// AccessResult contains the result of a cache access.
type AccessResult struct {
	// Hit indicates whether the access was a cache hit.
	Hit bool
	// Latency is the number of cycles this access would take.
	Latency uint64
	// Data is the word read (for loads).
	Data uint32
	// Evicted is true if a valid block was evicted.
	Evicted bool
	// EvictedAddr is the word address of the evicted block.
	EvictedAddr uint16
}

// Cache is a write-back, write-allocate data cache. It holds real data, so
// every value read through it matches what memory would return.
type Cache struct {
	config Config

	// Akita cache directory for tag/state management
	directory *akitacache.DirectoryImpl

	// Data storage - indexed by (setID * associativity + wayID)
	dataStore [][]uint32

	stats Statistics

	backing BackingStore
}

// Statistics holds cache performance statistics.
type Statistics struct {
	Reads      uint64
	Writes     uint64
	Hits       uint64
	Misses     uint64
	Evictions  uint64
	Writebacks uint64
	// AccessCycles sums the latency of every access.
	AccessCycles uint64
}

// HitRate returns hits over accesses, or 0 with no accesses.
func (s Statistics) HitRate() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// BackingStore is the next level of the memory hierarchy, addressed in words.
type BackingStore interface {
	// ReadBlock fetches n words starting at addr.
	ReadBlock(addr uint16, n int) []uint32
	// WriteBlock stores words starting at addr.
	WriteBlock(addr uint16, words []uint32)
}

// New creates a new cache with the given configuration.
func New(config Config, backing BackingStore) *Cache {
	numSets := config.Size / (config.Associativity * config.BlockSize)
	totalBlocks := numSets * config.Associativity

	dataStore := make([][]uint32, totalBlocks)
	for i := range dataStore {
		dataStore[i] = make([]uint32, config.BlockSize/WordSize)
	}

	return &Cache{
		config: config,
		directory: akitacache.NewDirectory(
			numSets,
			config.Associativity,
			config.BlockSize,
			akitacache.NewLRUVictimFinder(),
		),
		dataStore: dataStore,
		backing:   backing,
	}
}

// Config returns the cache configuration.
func (c *Cache) Config() Config {
	return c.config
}

// Stats returns cache statistics.
func (c *Cache) Stats() Statistics {
	return c.stats
}

// ResetStats clears cache statistics.
func (c *Cache) ResetStats() {
	c.stats = Statistics{}
}

func (c *Cache) blockIndex(block *akitacache.Block) int {
	return block.SetID*c.config.Associativity + block.WayID
}

// blockAddr returns the byte address of the line holding word addr.
func (c *Cache) blockAddr(addr uint16) uint64 {
	byteAddr := uint64(addr) * WordSize
	return (byteAddr / uint64(c.config.BlockSize)) * uint64(c.config.BlockSize)
}

func (c *Cache) wordOffset(addr uint16) int {
	return int(uint64(addr)*WordSize%uint64(c.config.BlockSize)) / WordSize
}

// Read performs a cache read of the word at addr.
func (c *Cache) Read(addr uint16) AccessResult {
	c.stats.Reads++

	block := c.directory.Lookup(0, c.blockAddr(addr))
	if block != nil && block.IsValid {
		c.stats.Hits++
		c.stats.AccessCycles += c.config.HitLatency
		c.directory.Visit(block)

		return AccessResult{
			Hit:     true,
			Latency: c.config.HitLatency,
			Data:    c.dataStore[c.blockIndex(block)][c.wordOffset(addr)],
		}
	}

	c.stats.Misses++
	return c.handleMiss(addr, false, 0)
}

// Write performs a cache write of the word at addr.
func (c *Cache) Write(addr uint16, value uint32) AccessResult {
	c.stats.Writes++

	block := c.directory.Lookup(0, c.blockAddr(addr))
	if block != nil && block.IsValid {
		c.stats.Hits++
		c.stats.AccessCycles += c.config.HitLatency
		c.directory.Visit(block)

		c.dataStore[c.blockIndex(block)][c.wordOffset(addr)] = value
		block.IsDirty = true

		return AccessResult{
			Hit:     true,
			Latency: c.config.HitLatency,
		}
	}

	// Write-allocate: fetch block, then write
	c.stats.Misses++
	return c.handleMiss(addr, true, value)
}

// ReadWord reads a word, discarding timing. It lets the cache stand in for
// memory on the load/store path.
func (c *Cache) ReadWord(addr uint16) uint32 {
	return c.Read(addr).Data
}

// WriteWord writes a word, discarding timing.
func (c *Cache) WriteWord(addr uint16, value uint32) {
	c.Write(addr, value)
}

func (c *Cache) handleMiss(addr uint16, isWrite bool, writeData uint32) AccessResult {
	result := AccessResult{
		Hit:     false,
		Latency: c.config.MissLatency,
	}
	c.stats.AccessCycles += c.config.MissLatency

	blockAddr := c.blockAddr(addr)

	victim := c.directory.FindVictim(blockAddr)
	if victim == nil {
		return result
	}

	victimData := c.dataStore[c.blockIndex(victim)]

	if victim.IsValid {
		c.stats.Evictions++
		result.Evicted = true
		result.EvictedAddr = uint16(victim.Tag / WordSize)

		if victim.IsDirty && c.backing != nil {
			c.stats.Writebacks++
			c.backing.WriteBlock(uint16(victim.Tag/WordSize), victimData)
		}
	}

	if c.backing != nil {
		copy(victimData, c.backing.ReadBlock(uint16(blockAddr/WordSize), len(victimData)))
	} else {
		clear(victimData)
	}

	// Tag stores the block-aligned byte address
	victim.Tag = blockAddr
	victim.IsValid = true
	victim.IsDirty = false

	offset := c.wordOffset(addr)
	if isWrite {
		victimData[offset] = writeData
		victim.IsDirty = true
	} else {
		result.Data = victimData[offset]
	}

	c.directory.Visit(victim)

	return result
}

// Peek returns the cached copy of the word at addr without counting an
// access or touching replacement state.
func (c *Cache) Peek(addr uint16) (uint32, bool) {
	block := c.directory.Lookup(0, c.blockAddr(addr))
	if block == nil || !block.IsValid {
		return 0, false
	}
	return c.dataStore[c.blockIndex(block)][c.wordOffset(addr)], true
}

// Invalidate marks the line holding addr as invalid without writeback.
func (c *Cache) Invalidate(addr uint16) {
	block := c.directory.Lookup(0, c.blockAddr(addr))
	if block != nil && block.IsValid {
		block.IsValid = false
		block.IsDirty = false
	}
}

// Flush writes back all dirty blocks and invalidates them.
func (c *Cache) Flush() {
	for _, set := range c.directory.GetSets() {
		for _, block := range set.Blocks {
			if block.IsValid && block.IsDirty && c.backing != nil {
				c.backing.WriteBlock(uint16(block.Tag/WordSize), c.dataStore[c.blockIndex(block)])
				c.stats.Writebacks++
			}
			block.IsValid = false
			block.IsDirty = false
		}
	}
}

// Reset invalidates all cache lines without writeback.
func (c *Cache) Reset() {
	c.directory.Reset()
	c.stats = Statistics{}
}
