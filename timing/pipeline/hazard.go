package pipeline

import "github.com/sarchlab/sbsim/insts"

// RegisterStatus maps every register to the unit that will produce its
// next value, or NoUnit.
type RegisterStatus [insts.NumRegisters]UnitRef

// NewRegisterStatus returns a table with no producers.
func NewRegisterStatus() *RegisterStatus {
	s := &RegisterStatus{}
	s.Reset()
	return s
}

// Reset clears every slot.
func (s *RegisterStatus) Reset() {
	for i := range s {
		s[i] = NoUnit
	}
}

// Producer returns the unit producing reg.
func (s *RegisterStatus) Producer(reg uint8) UnitRef {
	return s[reg]
}

// Claim records ref as the producer of reg.
func (s *RegisterStatus) Claim(reg uint8, ref UnitRef) {
	s[reg] = ref
}

// Release clears reg if ref is still its producer.
func (s *RegisterStatus) Release(reg uint8, ref UnitRef) {
	if s[reg] == ref {
		s[reg] = NoUnit
	}
}

// Active returns true if any register has a producer.
func (s *RegisterStatus) Active() bool {
	for _, ref := range s {
		if ref != NoUnit {
			return true
		}
	}
	return false
}

// Hazard names the condition that keeps an instruction from advancing.
type Hazard uint8

const (
	// HazardNone means the instruction may advance.
	HazardNone Hazard = iota
	// HazardStructural means no unit of the class is free.
	HazardStructural
	// HazardWAW means the destination already has a live producer.
	HazardWAW
	// HazardRAW means a source operand is not yet produced.
	HazardRAW
	// HazardWAR means another unit has yet to read the old destination value.
	HazardWAR
)

var hazardNames = [...]string{"none", "structural", "WAW", "RAW", "WAR"}

func (h Hazard) String() string {
	if int(h) < len(hazardNames) {
		return hazardNames[h]
	}
	return "unknown"
}

// HazardUnit checks scoreboard hazards against the unit pool and the
// register result status table.
type HazardUnit struct {
	pool   *UnitPool
	status *RegisterStatus
}

// NewHazardUnit creates a hazard unit over pool and status.
func NewHazardUnit(pool *UnitPool, status *RegisterStatus) *HazardUnit {
	return &HazardUnit{pool: pool, status: status}
}

// DetectIssue reports a WAW hazard for inst. Stores write no register and
// never conflict.
func (h *HazardUnit) DetectIssue(inst *insts.Instruction) Hazard {
	if inst.Op.WritesRegister() && h.status.Producer(inst.Dst) != NoUnit {
		return HazardWAW
	}
	return HazardNone
}

// DetectRAW reports whether the unit still waits for an operand.
func (h *HazardUnit) DetectRAW(ref UnitRef) Hazard {
	u := h.pool.Unit(ref)
	if u.Rj && u.Rk {
		return HazardNone
	}
	return HazardRAW
}

// DetectWAR reports whether another busy unit still has to read the
// current value of the register this unit writes. A source marked ready
// but not yet read holds the old value.
func (h *HazardUnit) DetectWAR(ref UnitRef) Hazard {
	u := h.pool.Unit(ref)
	if !u.Op.WritesRegister() {
		return HazardNone
	}

	for i := range h.pool.units {
		other := UnitRef(i)
		if other == ref {
			continue
		}

		g := h.pool.Unit(other)
		if !g.Busy() {
			continue
		}

		if g.Op.ReadsSrc0() && g.Fj == u.Fi && g.Rj {
			return HazardWAR
		}
		if g.Op.ReadsSrc1() && g.Fk == u.Fi && g.Rk {
			return HazardWAR
		}
	}

	return HazardNone
}
