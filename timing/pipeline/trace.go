package pipeline

import (
	"fmt"

	"github.com/sarchlab/sbsim/emu"
	"github.com/sarchlab/sbsim/insts"
)

// InstructionStatus holds the stage-entry cycles of one issued
// instruction. A zero cycle means the stage was not reached.
type InstructionStatus struct {
	// Seq is the issue-order index of the instruction.
	Seq  int
	PC   uint16
	Word uint32
	Inst insts.Instruction
	// Unit is the name of the functional unit that served the instruction.
	Unit string

	Issue   uint64
	Read    uint64
	ExecEnd uint64
	Write   uint64
}

// Retired returns true once the instruction has written its result.
func (s InstructionStatus) Retired() bool {
	return s.Write != 0
}

// UnitSnapshot is the state of the traced unit in one cycle.
type UnitSnapshot struct {
	Cycle uint64
	Unit  string
	Fi    string
	Fj    string
	Fk    string
	Qj    string
	Qk    string
	Rj    bool
	Rk    bool
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// String renders the snapshot as a traceunit line.
func (s UnitSnapshot) String() string {
	return fmt.Sprintf("%d %s %s %s %s %s %s %s %s",
		s.Cycle, s.Unit, s.Fi, s.Fj, s.Fk, s.Qj, s.Qk, yesNo(s.Rj), yesNo(s.Rk))
}

// Recorder collects per-instruction status and traced-unit snapshots. It
// only observes the engine.
type Recorder struct {
	instructions []InstructionStatus
	snapshots    []UnitSnapshot
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) issue(f *FetchedInstruction, unit string, cycle uint64) int {
	seq := len(r.instructions)
	r.instructions = append(r.instructions, InstructionStatus{
		Seq:   seq,
		PC:    f.PC,
		Word:  f.Word,
		Inst:  f.Inst,
		Unit:  unit,
		Issue: cycle,
	})
	return seq
}

func (r *Recorder) read(seq int, cycle uint64) {
	r.instructions[seq].Read = cycle
}

func (r *Recorder) execEnd(seq int, cycle uint64) {
	r.instructions[seq].ExecEnd = cycle
}

func (r *Recorder) write(seq int, cycle uint64) {
	r.instructions[seq].Write = cycle
}

func (r *Recorder) snapshot(cycle uint64, pool *UnitPool, ref UnitRef) {
	u := pool.Unit(ref)
	r.snapshots = append(r.snapshots, UnitSnapshot{
		Cycle: cycle,
		Unit:  u.Name,
		Fi:    emu.RegName(u.Fi),
		Fj:    emu.RegName(u.Fj),
		Fk:    emu.RegName(u.Fk),
		Qj:    pool.Name(u.Qj),
		Qk:    pool.Name(u.Qk),
		Rj:    u.Rj,
		Rk:    u.Rk,
	})
}

// Instructions returns the status rows in issue order.
func (r *Recorder) Instructions() []InstructionStatus {
	out := make([]InstructionStatus, len(r.instructions))
	copy(out, r.instructions)
	return out
}

// Instruction returns the status row of the seq-th issued instruction.
func (r *Recorder) Instruction(seq int) (InstructionStatus, bool) {
	if seq < 0 || seq >= len(r.instructions) {
		return InstructionStatus{}, false
	}
	return r.instructions[seq], true
}

// Snapshots returns the traced-unit records in cycle order.
func (r *Recorder) Snapshots() []UnitSnapshot {
	out := make([]UnitSnapshot, len(r.snapshots))
	copy(out, r.snapshots)
	return out
}
