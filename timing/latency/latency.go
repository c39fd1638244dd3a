// Package latency provides functional unit configuration and per-opcode
// timing lookups for the scoreboard simulator.
//
// Values come from a Config, which can be loaded from the cfg text format,
// JSON or YAML.
package latency

import (
	"fmt"

	"github.com/sarchlab/sbsim/insts"
)

// ExecOps lists the opcodes that occupy a functional unit, in the order
// their unit classes are allocated.
var ExecOps = []insts.Op{
	insts.OpLD, insts.OpST, insts.OpADD, insts.OpSUB, insts.OpMULT, insts.OpDIV,
}

// UnitPrefix returns the name prefix of the functional unit class serving
// op: LD, ST, ADD, SUB, MUL or DIV. HALT has no unit class.
func UnitPrefix(op insts.Op) string {
	switch op {
	case insts.OpLD:
		return "LD"
	case insts.OpST:
		return "ST"
	case insts.OpADD:
		return "ADD"
	case insts.OpSUB:
		return "SUB"
	case insts.OpMULT:
		return "MUL"
	case insts.OpDIV:
		return "DIV"
	default:
		return ""
	}
}

// UnitName returns the name of unit index of the class serving op, e.g. "DIV1".
func UnitName(op insts.Op, index int) string {
	return fmt.Sprintf("%s%d", UnitPrefix(op), index)
}

// Table provides instruction latency lookups.
type Table struct {
	config *Config
}

// NewTable creates a new latency table with default values.
func NewTable() *Table {
	return &Table{
		config: DefaultConfig(),
	}
}

// NewTableWithConfig creates a new latency table with a custom configuration.
func NewTableWithConfig(config *Config) *Table {
	return &Table{
		config: config,
	}
}

// GetLatency returns the execution latency in cycles for the given
// instruction. HALT and nil take no cycles.
func (t *Table) GetLatency(inst *insts.Instruction) uint64 {
	if inst == nil {
		return 0
	}
	return t.config.Delay(inst.Op)
}

// Units returns the number of functional units serving op.
func (t *Table) Units(op insts.Op) int {
	return t.config.Units(op)
}

// IsMemoryOp returns true if the instruction accesses memory.
func (t *Table) IsMemoryOp(inst *insts.Instruction) bool {
	if inst == nil {
		return false
	}
	return inst.Op.IsMemory()
}

// Config returns the current configuration.
func (t *Table) Config() *Config {
	return t.config
}
