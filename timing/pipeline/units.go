package pipeline

import (
	"slices"

	"github.com/sarchlab/sbsim/insts"
	"github.com/sarchlab/sbsim/timing/latency"
)

// UnitPool holds every functional unit, grouped by opcode class.
type UnitPool struct {
	units   []FunctionalUnit
	classes [insts.NumOps][]UnitRef
	delays  [insts.NumOps]uint64

	busy []UnitRef
}

// NewUnitPool creates the units described by table. Units are numbered
// class by class in latency.ExecOps order.
func NewUnitPool(table *latency.Table) *UnitPool {
	p := &UnitPool{}

	for _, op := range latency.ExecOps {
		p.delays[op] = table.GetLatency(&insts.Instruction{Op: op})

		for i := 0; i < table.Units(op); i++ {
			ref := UnitRef(len(p.units))
			u := FunctionalUnit{
				Name:  latency.UnitName(op, i),
				Op:    op,
				Index: i,
			}
			u.Clear()
			p.units = append(p.units, u)
			p.classes[op] = append(p.classes[op], ref)
		}
	}

	p.busy = make([]UnitRef, 0, len(p.units))

	return p
}

// Len returns the total number of units.
func (p *UnitPool) Len() int {
	return len(p.units)
}

// ClassSize returns the number of units serving op.
func (p *UnitPool) ClassSize(op insts.Op) int {
	if int(op) >= insts.NumOps {
		return 0
	}
	return len(p.classes[op])
}

// Unit returns the unit ref points to.
func (p *UnitPool) Unit(ref UnitRef) *FunctionalUnit {
	return &p.units[ref]
}

// Name returns the name of the unit ref points to, or "-" for NoUnit.
func (p *UnitPool) Name(ref UnitRef) string {
	if ref == NoUnit {
		return "-"
	}
	return p.units[ref].Name
}

// Find returns the unit with the given name.
func (p *UnitPool) Find(name string) (UnitRef, bool) {
	for i := range p.units {
		if p.units[i].Name == name {
			return UnitRef(i), true
		}
	}
	return NoUnit, false
}

// Acquire claims the lowest-indexed idle unit serving op and loads its
// latency. It returns false when every unit of the class is busy.
func (p *UnitPool) Acquire(op insts.Op) (UnitRef, bool) {
	if int(op) >= insts.NumOps {
		return NoUnit, false
	}

	for _, ref := range p.classes[op] {
		u := &p.units[ref]
		if u.Busy() {
			continue
		}

		u.Clear()
		u.State = UnitIssued
		u.TimeLeft = p.delays[op]
		return ref, true
	}

	return NoUnit, false
}

// Release returns the unit to the idle state.
func (p *UnitPool) Release(ref UnitRef) {
	p.units[ref].Clear()
}

// AnyBusy returns true if some unit holds an instruction.
func (p *UnitPool) AnyBusy() bool {
	for i := range p.units {
		if p.units[i].Busy() {
			return true
		}
	}
	return false
}

// Busy returns the busy units ordered by destination register, then by
// issue order. The slice is reused and stays valid until the next call.
func (p *UnitPool) Busy() []UnitRef {
	p.busy = p.busy[:0]
	for i := range p.units {
		if p.units[i].Busy() {
			p.busy = append(p.busy, UnitRef(i))
		}
	}

	slices.SortFunc(p.busy, func(a, b UnitRef) int {
		ua, ub := &p.units[a], &p.units[b]
		if ua.Fi != ub.Fi {
			return int(ua.Fi) - int(ub.Fi)
		}
		return ua.Seq - ub.Seq
	})

	return p.busy
}

// Snapshot returns a copy of every unit.
func (p *UnitPool) Snapshot() []FunctionalUnit {
	out := make([]FunctionalUnit, len(p.units))
	copy(out, p.units)
	return out
}
