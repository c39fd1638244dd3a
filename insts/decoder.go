package insts

import (
	"errors"
	"fmt"
)

// NumRegisters is the number of architectural floating-point registers.
const NumRegisters = 16

// ErrInvalidEncoding is returned when a word is not a valid instruction.
var ErrInvalidEncoding = errors.New("invalid instruction encoding")

// Op represents an opcode.
type Op uint8

// Opcodes, numbered as they are encoded in bits [27:24].
const (
	OpLD Op = iota
	OpST
	OpADD
	OpSUB
	OpMULT
	OpDIV
	OpHALT
)

// NumOps is the number of defined opcodes.
const NumOps = int(OpHALT) + 1

var opNames = [NumOps]string{"LD", "ST", "ADD", "SUB", "MULT", "DIV", "HALT"}

// String returns the opcode mnemonic.
func (o Op) String() string {
	if int(o) < NumOps {
		return opNames[o]
	}
	return fmt.Sprintf("Op(%d)", uint8(o))
}

// IsMemory returns true for LD and ST.
func (o Op) IsMemory() bool {
	return o == OpLD || o == OpST
}

// IsArithmetic returns true for ADD, SUB, MULT and DIV.
func (o Op) IsArithmetic() bool {
	return o >= OpADD && o <= OpDIV
}

// ReadsSrc0 returns true if the operation reads Src0 from the register file.
func (o Op) ReadsSrc0() bool {
	return o.IsArithmetic()
}

// ReadsSrc1 returns true if the operation reads Src1 from the register file.
// ST reads the value to store from Src1.
func (o Op) ReadsSrc1() bool {
	return o.IsArithmetic() || o == OpST
}

// WritesRegister returns true if the operation writes Dst.
func (o Op) WritesRegister() bool {
	return o == OpLD || o.IsArithmetic()
}

// Instruction represents a decoded instruction.
type Instruction struct {
	Op   Op     // Operation code
	Dst  uint8  // Destination register
	Src0 uint8  // First source register
	Src1 uint8  // Second source register (the stored value for ST)
	Imm  uint16 // 12-bit unsigned immediate (memory address for LD/ST)
}

// Encode packs the instruction back into its 32-bit word.
func (i Instruction) Encode() uint32 {
	return uint32(i.Op&0xF)<<24 |
		uint32(i.Dst&0xF)<<20 |
		uint32(i.Src0&0xF)<<16 |
		uint32(i.Src1&0xF)<<12 |
		uint32(i.Imm&0xFFF)
}

// String renders the instruction in assembly form.
func (i Instruction) String() string {
	switch i.Op {
	case OpLD:
		return fmt.Sprintf("ld F%d = MEM[%d]", i.Dst, i.Imm)
	case OpST:
		return fmt.Sprintf("st MEM[%d] = F%d", i.Imm, i.Src1)
	case OpADD:
		return fmt.Sprintf("add.d F%d = F%d + F%d", i.Dst, i.Src0, i.Src1)
	case OpSUB:
		return fmt.Sprintf("sub.d F%d = F%d - F%d", i.Dst, i.Src0, i.Src1)
	case OpMULT:
		return fmt.Sprintf("mult.d F%d = F%d * F%d", i.Dst, i.Src0, i.Src1)
	case OpDIV:
		return fmt.Sprintf("div.d F%d = F%d / F%d", i.Dst, i.Src0, i.Src1)
	case OpHALT:
		return "halt"
	default:
		return i.Op.String()
	}
}

// Decoder decodes machine words into instructions.
type Decoder struct{}

// NewDecoder creates a new instruction decoder.
func NewDecoder() *Decoder {
	return &Decoder{}
}

// Decode decodes a 32-bit instruction word.
func (d *Decoder) Decode(word uint32) (*Instruction, error) {
	inst := &Instruction{}
	if err := d.DecodeInto(word, inst); err != nil {
		return nil, err
	}
	return inst, nil
}

// DecodeInto decodes a word into an existing Instruction, avoiding an
// allocation. On error inst is left unspecified.
func (d *Decoder) DecodeInto(word uint32, inst *Instruction) error {
	if reserved := (word >> 28) & 0xF; reserved != 0 {
		return fmt.Errorf("%w: word 0x%08x has reserved bits 0x%x",
			ErrInvalidEncoding, word, reserved)
	}

	op := Op((word >> 24) & 0xF)
	if int(op) >= NumOps {
		return fmt.Errorf("%w: word 0x%08x has unknown opcode %d",
			ErrInvalidEncoding, word, uint8(op))
	}

	inst.Op = op
	inst.Dst = uint8((word >> 20) & 0xF)
	inst.Src0 = uint8((word >> 16) & 0xF)
	inst.Src1 = uint8((word >> 12) & 0xF)
	inst.Imm = uint16(word & 0xFFF)

	// Register fields are 4 bits wide; the bound still holds as an invariant.
	for _, r := range [...]uint8{inst.Dst, inst.Src0, inst.Src1} {
		if r >= NumRegisters {
			return fmt.Errorf("%w: word 0x%08x names register F%d",
				ErrInvalidEncoding, word, r)
		}
	}

	return nil
}
