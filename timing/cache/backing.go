package cache

import (
	"github.com/sarchlab/sbsim/emu"
)

// MemoryBacking wraps emu.Memory as a BackingStore.
type MemoryBacking struct {
	memory *emu.Memory
}

// NewMemoryBacking creates a new MemoryBacking adapter.
func NewMemoryBacking(memory *emu.Memory) *MemoryBacking {
	return &MemoryBacking{memory: memory}
}

// ReadBlock fetches n words from the backing memory.
func (m *MemoryBacking) ReadBlock(addr uint16, n int) []uint32 {
	words := make([]uint32, n)
	for i := range words {
		words[i] = m.memory.ReadWord(addr + uint16(i))
	}
	return words
}

// WriteBlock stores words to the backing memory.
func (m *MemoryBacking) WriteBlock(addr uint16, words []uint32) {
	for i, w := range words {
		m.memory.WriteWord(addr+uint16(i), w)
	}
}
