// Package emu provides the architectural state of the scoreboard machine
// and a sequential functional emulator over it.
package emu

import (
	"fmt"

	"github.com/sarchlab/sbsim/insts"
)

// RegFile represents the floating-point register file F0-F15.
type RegFile struct {
	// F holds single-precision registers.
	F [insts.NumRegisters]float32
}

// NewRegFile creates a register file in its reset state, where Fi holds i.
func NewRegFile() *RegFile {
	r := &RegFile{}
	r.Reset()
	return r
}

// Reset restores every register Fi to the value i.
func (r *RegFile) Reset() {
	for i := range r.F {
		r.F[i] = float32(i)
	}
}

// ReadReg reads a register value.
func (r *RegFile) ReadReg(reg uint8) float32 {
	return r.F[reg]
}

// WriteReg writes a register value.
func (r *RegFile) WriteReg(reg uint8, value float32) {
	r.F[reg] = value
}

// RegName returns the assembly name of a register, e.g. "F3".
func RegName(reg uint8) string {
	return fmt.Sprintf("F%d", reg)
}
