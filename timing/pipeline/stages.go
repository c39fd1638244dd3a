package pipeline

import (
	"fmt"

	"github.com/sarchlab/sbsim/emu"
	"github.com/sarchlab/sbsim/insts"
)

// fetch decodes the word at PC into the queue.
func (p *Pipeline) fetch() error {
	if p.halted {
		return nil
	}

	if p.queue.Full() {
		if p.stallOnFull {
			p.stats.FetchStalls++
			return nil
		}
		return fmt.Errorf("fetch at PC %d in cycle %d: %w", p.pc, p.cycle, ErrQueueFull)
	}

	word := p.fetchWord(p.pc)
	inst, err := p.decoder.Decode(word)
	if err != nil {
		return fmt.Errorf("fetch at PC %d: %w", p.pc, err)
	}

	if err := p.queue.Enqueue(FetchedInstruction{PC: p.pc, Word: word, Inst: *inst}); err != nil {
		return err
	}

	p.log.V(2).Info("fetch", "cycle", p.cycle, "pc", p.pc, "inst", inst.String())

	if inst.Op == insts.OpHALT {
		p.halted = true
		return nil
	}

	if int(p.pc) == emu.MemorySize-1 {
		return fmt.Errorf("fetch at PC %d: %w", p.pc, ErrMemoryExhausted)
	}
	p.pc++

	return nil
}

// fetchWord reads an instruction word, seeing stores still held in the
// data cache.
func (p *Pipeline) fetchWord(pc uint16) uint32 {
	if p.dcache != nil {
		if word, ok := p.dcache.Peek(pc); ok {
			return word
		}
	}
	return p.memory.ReadWord(pc)
}

// issue moves the queue head into a free unit. HALT never issues.
func (p *Pipeline) issue() error {
	head, err := p.queue.Peek()
	if err != nil {
		return nil
	}

	inst := &head.Inst
	if inst.Op == insts.OpHALT {
		return nil
	}

	if p.pool.ClassSize(inst.Op) == 0 {
		return fmt.Errorf("issue %q at PC %d: %w", inst.String(), head.PC, ErrNoUnits)
	}

	if p.hazards.DetectIssue(inst) == HazardWAW {
		p.stats.WAWStalls++
		p.log.V(2).Info("stall", "cycle", p.cycle, "hazard", HazardWAW, "inst", inst.String())
		return nil
	}

	ref, ok := p.pool.Acquire(inst.Op)
	if !ok {
		p.stats.StructuralStalls++
		p.log.V(2).Info("stall", "cycle", p.cycle, "hazard", HazardStructural, "inst", inst.String())
		return nil
	}

	u := p.pool.Unit(ref)
	u.Fi, u.Fj, u.Fk = inst.Dst, inst.Src0, inst.Src1
	u.Imm = inst.Imm

	switch {
	case inst.Op == insts.OpLD:
		u.Rj, u.Rk = true, true
	case inst.Op == insts.OpST:
		u.Rj = true
		u.Qk = p.status.Producer(inst.Src1)
		u.Rk = u.Qk == NoUnit
	default:
		u.Qj = p.status.Producer(inst.Src0)
		u.Qk = p.status.Producer(inst.Src1)
		u.Rj = u.Qj == NoUnit
		u.Rk = u.Qk == NoUnit
	}

	if inst.Op.WritesRegister() {
		p.status.Claim(inst.Dst, ref)
	}

	u.Seq = p.recorder.issue(head, u.Name, p.cycle)
	u.IssueCycle = p.cycle
	p.stats.Issued++

	p.log.V(1).Info("issue", "cycle", p.cycle, "unit", u.Name, "seq", u.Seq, "inst", inst.String())

	_, err = p.queue.Pop()
	return err
}

// readOperands starts execution of every unit whose operands are ready,
// except those issued this cycle.
func (p *Pipeline) readOperands(busy []UnitRef) {
	for _, ref := range busy {
		u := p.pool.Unit(ref)
		if u.State != UnitIssued || u.IssueCycle == p.cycle {
			continue
		}

		if p.hazards.DetectRAW(ref) == HazardRAW {
			p.stats.RAWStalls++
			continue
		}

		u.Rj, u.Rk = false, false
		u.TimeLeft--
		p.compute(u)

		u.ReadCycle = p.cycle
		u.State = UnitExecuting
		p.recorder.read(u.Seq, p.cycle)
		p.log.V(2).Info("read operands", "cycle", p.cycle, "unit", u.Name, "seq", u.Seq)

		if u.TimeLeft == 0 {
			p.finishExecution(u)
		}
	}
}

// compute performs the operation of u. Loads and stores access memory
// here.
func (p *Pipeline) compute(u *FunctionalUnit) {
	switch u.Op {
	case insts.OpLD:
		u.Result = emu.BitsToFloat(p.data.ReadWord(u.Imm))
	case insts.OpST:
		p.data.WriteWord(u.Imm, emu.FloatToBits(p.regFile.ReadReg(u.Fk)))
	default:
		u.Result = emu.Compute(u.Op, p.regFile.ReadReg(u.Fj), p.regFile.ReadReg(u.Fk))
	}
}

// execute counts down the latency of units that read operands in an
// earlier cycle.
func (p *Pipeline) execute(busy []UnitRef) {
	for _, ref := range busy {
		u := p.pool.Unit(ref)
		if u.State != UnitExecuting || u.ReadCycle == p.cycle {
			continue
		}

		u.TimeLeft--
		if u.TimeLeft == 0 {
			p.finishExecution(u)
		}
	}
}

func (p *Pipeline) finishExecution(u *FunctionalUnit) {
	u.ExecEndCycle = p.cycle
	u.State = UnitWriteResult
	p.recorder.execEnd(u.Seq, p.cycle)
	p.log.V(2).Info("execute end", "cycle", p.cycle, "unit", u.Name, "seq", u.Seq)
}

// writeResult retires every finished unit that no earlier reader blocks.
func (p *Pipeline) writeResult(busy []UnitRef) {
	for _, ref := range busy {
		u := p.pool.Unit(ref)
		if u.State != UnitWriteResult || u.ExecEndCycle == p.cycle {
			continue
		}

		if p.hazards.DetectWAR(ref) == HazardWAR {
			p.stats.WARStalls++
			continue
		}

		p.wakeConsumers(ref)

		if u.Op.WritesRegister() {
			p.regFile.WriteReg(u.Fi, u.Result)
			p.status.Release(u.Fi, ref)
		}

		p.recorder.write(u.Seq, p.cycle)
		p.stats.Instructions++
		p.log.V(1).Info("write result", "cycle", p.cycle, "unit", u.Name, "seq", u.Seq)

		p.pool.Release(ref)
	}
}

// wakeConsumers marks ready every operand waiting on producer.
func (p *Pipeline) wakeConsumers(producer UnitRef) {
	for i := range p.pool.units {
		g := &p.pool.units[i]
		if !g.Busy() {
			continue
		}

		if g.Qj == producer {
			g.Qj = NoUnit
			g.Rj = true
		}
		if g.Qk == producer {
			g.Qk = NoUnit
			g.Rk = true
		}
	}
}

// trace records the traced unit while it is busy.
func (p *Pipeline) trace() {
	if p.pool.Unit(p.traced).Busy() {
		p.recorder.snapshot(p.cycle, p.pool, p.traced)
	}
}
