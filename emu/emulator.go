package emu

import (
	"errors"
	"fmt"

	"github.com/sarchlab/sbsim/insts"
)

// ErrEndOfMemory is returned when execution runs past the last memory word
// without reaching HALT.
var ErrEndOfMemory = errors.New("program ran past the end of memory")

// StepResult represents the result of executing a single instruction.
type StepResult struct {
	// Halted is true once HALT has been executed.
	Halted bool

	// Err is set if an error occurred during execution.
	Err error
}

// Emulator executes instructions one at a time in program order with no
// timing. It defines the architectural result a scoreboard run must reach
// for programs whose loads and stores do not alias.
type Emulator struct {
	regFile *RegFile
	memory  *Memory
	decoder *insts.Decoder

	pc               uint32
	halted           bool
	instructionCount uint64
	maxInstructions  uint64 // 0 means no limit
}

// EmulatorOption is a functional option for configuring the Emulator.
type EmulatorOption func(*Emulator)

// WithRegFile makes the emulator operate on an existing register file.
func WithRegFile(regFile *RegFile) EmulatorOption {
	return func(e *Emulator) {
		e.regFile = regFile
	}
}

// WithMemory makes the emulator operate on an existing memory.
func WithMemory(memory *Memory) EmulatorOption {
	return func(e *Emulator) {
		e.memory = memory
	}
}

// WithMaxInstructions sets the maximum number of instructions to execute.
// A value of 0 means no limit.
func WithMaxInstructions(max uint64) EmulatorOption {
	return func(e *Emulator) {
		e.maxInstructions = max
	}
}

// NewEmulator creates a new sequential emulator.
func NewEmulator(opts ...EmulatorOption) *Emulator {
	e := &Emulator{
		decoder: insts.NewDecoder(),
	}

	for _, opt := range opts {
		opt(e)
	}

	if e.regFile == nil {
		e.regFile = NewRegFile()
	}
	if e.memory == nil {
		e.memory = NewMemory()
	}

	return e
}

// RegFile returns the emulator's register file.
func (e *Emulator) RegFile() *RegFile {
	return e.regFile
}

// Memory returns the emulator's memory.
func (e *Emulator) Memory() *Memory {
	return e.memory
}

// PC returns the index of the next instruction.
func (e *Emulator) PC() uint32 {
	return e.pc
}

// InstructionCount returns the number of instructions executed, HALT excluded.
func (e *Emulator) InstructionCount() uint64 {
	return e.instructionCount
}

// Step executes a single instruction.
func (e *Emulator) Step() StepResult {
	if e.halted {
		return StepResult{Halted: true}
	}

	if e.maxInstructions > 0 && e.instructionCount >= e.maxInstructions {
		return StepResult{Err: fmt.Errorf("max instructions reached")}
	}

	if e.pc >= MemorySize {
		return StepResult{Err: ErrEndOfMemory}
	}

	word := e.memory.ReadWord(uint16(e.pc))
	inst, err := e.decoder.Decode(word)
	if err != nil {
		return StepResult{Err: fmt.Errorf("pc %d: %w", e.pc, err)}
	}

	if inst.Op == insts.OpHALT {
		e.halted = true
		return StepResult{Halted: true}
	}

	Execute(inst, e.regFile, e.memory)
	e.instructionCount++
	e.pc++

	return StepResult{}
}

// Run executes instructions until HALT or an error.
func (e *Emulator) Run() error {
	for {
		result := e.Step()
		if result.Err != nil {
			return result.Err
		}
		if result.Halted {
			return nil
		}
	}
}

// Execute applies one non-HALT instruction to the architectural state.
func Execute(inst *insts.Instruction, regFile *RegFile, memory *Memory) {
	switch inst.Op {
	case insts.OpLD:
		regFile.WriteReg(inst.Dst, memory.ReadFloat(inst.Imm))
	case insts.OpST:
		memory.WriteFloat(inst.Imm, regFile.ReadReg(inst.Src1))
	default:
		regFile.WriteReg(inst.Dst, Compute(inst.Op,
			regFile.ReadReg(inst.Src0), regFile.ReadReg(inst.Src1)))
	}
}

// Compute evaluates an arithmetic opcode in single precision. Non-arithmetic
// opcodes return 0.
func Compute(op insts.Op, a, b float32) float32 {
	switch op {
	case insts.OpADD:
		return a + b
	case insts.OpSUB:
		return a - b
	case insts.OpMULT:
		return a * b
	case insts.OpDIV:
		return a / b
	default:
		return 0
	}
}
