// Package pipeline provides the scoreboard pipeline engine for timing
// simulation.
//
// Each cycle runs Fetch, Issue, ReadOperands, Execute and WriteResult in
// that order over a pool of functional units. The register result status
// table records which unit will produce every register, and hazards are
// checked against it: structural and WAW at issue, RAW at read-operands
// and WAR at write-result.
package pipeline

import "github.com/sarchlab/sbsim/insts"

// UnitRef identifies a functional unit by its index in the unit pool.
// It never owns the unit.
type UnitRef int

// NoUnit is the UnitRef that refers to no unit.
const NoUnit UnitRef = -1

// UnitState is the stage reached by the instruction a unit holds.
type UnitState uint8

const (
	// UnitIdle means the unit holds no instruction.
	UnitIdle UnitState = iota
	// UnitIssued means the instruction waits for its operands.
	UnitIssued
	// UnitExecuting means operands are read and latency is counting down.
	UnitExecuting
	// UnitWriteResult means execution finished and the result waits to be
	// written back.
	UnitWriteResult
)

var unitStateNames = [...]string{"Idle", "Issued", "Executing", "WriteResult"}

func (s UnitState) String() string {
	if int(s) < len(unitStateNames) {
		return unitStateNames[s]
	}
	return "Unknown"
}

// FunctionalUnit holds the scoreboard state of one execution resource.
type FunctionalUnit struct {
	// Name is the class prefix followed by the index, e.g. "ADD0".
	Name string
	// Op is the opcode class the unit serves.
	Op insts.Op
	// Index is the position of the unit within its class.
	Index int

	State UnitState

	// Destination and source registers of the held instruction.
	Fi, Fj, Fk uint8

	// Producers of the pending source operands.
	Qj, Qk UnitRef

	// Operand ready flags.
	Rj, Rk bool

	// Result is the value computed at read-operands.
	Result float32
	// Imm is the memory address of loads and stores.
	Imm uint16

	// TimeLeft is the remaining execution latency.
	TimeLeft uint64
	// Seq is the issue-order index of the held instruction.
	Seq int

	// Cycles the held instruction entered each stage, 0 if not reached.
	IssueCycle   uint64
	ReadCycle    uint64
	ExecEndCycle uint64
}

// Busy returns true if the unit holds an instruction.
func (u *FunctionalUnit) Busy() bool {
	return u.State != UnitIdle
}

// Clear returns the unit to the idle state.
func (u *FunctionalUnit) Clear() {
	name, op, index := u.Name, u.Op, u.Index
	*u = FunctionalUnit{
		Name:  name,
		Op:    op,
		Index: index,
		Qj:    NoUnit,
		Qk:    NoUnit,
		Seq:   -1,
	}
}
