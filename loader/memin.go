// Package loader reads memory images and writes the simulator's output
// files.
//
// A memory image (memin) holds one hexadecimal word per line, starting at
// address 0. Outputs are the final memory (memout), the final registers
// (regout), the per-instruction stage cycles (traceinst) and the per-cycle
// state of the traced unit (traceunit).
package loader

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/sarchlab/sbsim/emu"
	"github.com/sarchlab/sbsim/insts"
)

// ErrImageTooLarge is returned when a memory image has more words than
// memory holds.
var ErrImageTooLarge = errors.New("memory image larger than memory")

// Program is a memory image ready to be copied into memory.
type Program struct {
	// Words holds the image from address 0. Missing words are zero.
	Words []uint32
}

// Load reads the memory image at path.
func Load(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open memory image: %w", err)
	}
	defer func() { _ = f.Close() }()

	prog, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", path, err)
	}
	return prog, nil
}

// Parse reads a memory image. Each non-blank line holds one hexadecimal
// word with an optional 0x prefix.
func Parse(r io.Reader) (*Program, error) {
	prog := &Program{}

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++

		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}

		if len(prog.Words) == emu.MemorySize {
			return nil, fmt.Errorf("line %d: %w", lineNo, ErrImageTooLarge)
		}

		text := strings.TrimPrefix(strings.TrimPrefix(fields[0], "0x"), "0X")
		word, err := strconv.ParseUint(text, 16, 32)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid word %q: %w", lineNo, fields[0], err)
		}

		prog.Words = append(prog.Words, uint32(word))
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read memory image: %w", err)
	}

	return prog, nil
}

// LoadIntoMemory copies the image into memory from address 0.
func (p *Program) LoadIntoMemory(memory *emu.Memory) {
	memory.LoadWords(p.Words)
}

// InstructionCount returns the number of words before the first HALT, or
// the memory size if there is none.
func InstructionCount(memory *emu.Memory) int {
	decoder := insts.NewDecoder()
	var inst insts.Instruction

	for addr := 0; addr < emu.MemorySize; addr++ {
		err := decoder.DecodeInto(memory.ReadWord(uint16(addr)), &inst)
		if err == nil && inst.Op == insts.OpHALT {
			return addr
		}
	}
	return emu.MemorySize
}
