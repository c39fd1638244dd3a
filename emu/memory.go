package emu

import "math"

// MemorySize is the number of 32-bit words in data/instruction memory.
const MemorySize = 4096

// Memory is the word-addressed memory shared by instructions and data.
type Memory struct {
	words [MemorySize]uint32
}

// NewMemory creates a zeroed memory.
func NewMemory() *Memory {
	return &Memory{}
}

// ReadWord reads the word at addr. Addresses wrap at MemorySize.
func (m *Memory) ReadWord(addr uint16) uint32 {
	return m.words[int(addr)%MemorySize]
}

// WriteWord writes the word at addr. Addresses wrap at MemorySize.
func (m *Memory) WriteWord(addr uint16, value uint32) {
	m.words[int(addr)%MemorySize] = value
}

// ReadFloat reads the word at addr reinterpreted as an IEEE-754 float.
func (m *Memory) ReadFloat(addr uint16) float32 {
	return BitsToFloat(m.ReadWord(addr))
}

// WriteFloat stores the IEEE-754 bit pattern of value at addr.
func (m *Memory) WriteFloat(addr uint16, value float32) {
	m.WriteWord(addr, FloatToBits(value))
}

// LoadWords copies words into memory starting at address 0. Words beyond
// MemorySize are ignored; the rest of memory is left unchanged.
func (m *Memory) LoadWords(words []uint32) {
	copy(m.words[:], words)
}

// Words returns a copy of the full memory image.
func (m *Memory) Words() []uint32 {
	out := make([]uint32, MemorySize)
	copy(out, m.words[:])
	return out
}

// Clone returns an independent copy of the memory.
func (m *Memory) Clone() *Memory {
	c := *m
	return &c
}

// FloatToBits returns the IEEE-754 single-precision bit pattern of f.
// FloatToBits(0.085) == 1034818683.
func FloatToBits(f float32) uint32 {
	return math.Float32bits(f)
}

// BitsToFloat reinterprets a 32-bit word as a single-precision float.
func BitsToFloat(bits uint32) float32 {
	return math.Float32frombits(bits)
}
