package benchmarks

import (
	"github.com/sarchlab/sbsim/emu"
	"github.com/sarchlab/sbsim/insts"
)

// GetMicrobenchmarks returns the standard set of microbenchmarks. Each one
// targets a specific scoreboard behavior.
//
// Loads and stores never touch the same address, so the sequential
// emulator defines the expected final state.
func GetMicrobenchmarks() []Benchmark {
	return []Benchmark{
		independentAdds(),
		dependencyChain(),
		wawChain(),
		warPressure(),
		divideBound(),
		loadStoreStream(),
		dotProduct(),
	}
}

// GetCoreBenchmarks returns a minimal set of 3 core benchmarks for quick
// validation: one per data hazard class.
func GetCoreBenchmarks() []Benchmark {
	return []Benchmark{
		dependencyChain(),
		warPressure(),
		dotProduct(),
	}
}

// Instruction builders

// LD builds F[dst] = MEM[addr].
func LD(dst uint8, addr uint16) insts.Instruction {
	return insts.Instruction{Op: insts.OpLD, Dst: dst, Imm: addr}
}

// ST builds MEM[addr] = F[src].
func ST(addr uint16, src uint8) insts.Instruction {
	return insts.Instruction{Op: insts.OpST, Src1: src, Imm: addr}
}

// ADD builds F[dst] = F[src0] + F[src1].
func ADD(dst, src0, src1 uint8) insts.Instruction {
	return insts.Instruction{Op: insts.OpADD, Dst: dst, Src0: src0, Src1: src1}
}

// SUB builds F[dst] = F[src0] - F[src1].
func SUB(dst, src0, src1 uint8) insts.Instruction {
	return insts.Instruction{Op: insts.OpSUB, Dst: dst, Src0: src0, Src1: src1}
}

// MULT builds F[dst] = F[src0] * F[src1].
func MULT(dst, src0, src1 uint8) insts.Instruction {
	return insts.Instruction{Op: insts.OpMULT, Dst: dst, Src0: src0, Src1: src1}
}

// DIV builds F[dst] = F[src0] / F[src1].
func DIV(dst, src0, src1 uint8) insts.Instruction {
	return insts.Instruction{Op: insts.OpDIV, Dst: dst, Src0: src0, Src1: src1}
}

// HALT builds the halt instruction.
func HALT() insts.Instruction {
	return insts.Instruction{Op: insts.OpHALT}
}

// 1. Independent Adds - Tests ADD unit throughput (structural hazards)
func independentAdds() Benchmark {
	prog := []insts.Instruction{}
	for dst := uint8(4); dst < 16; dst++ {
		prog = append(prog, ADD(dst, 1, 2))
	}
	prog = append(prog, HALT())

	return Benchmark{
		Name:        "independent_adds",
		Description: "12 independent ADDs - measures ADD unit throughput",
		Program:     prog,
	}
}

// 2. Dependency Chain - Tests RAW and WAW serialization
func dependencyChain() Benchmark {
	prog := []insts.Instruction{}
	for i := 0; i < 10; i++ {
		prog = append(prog, ADD(1, 1, 2))
	}
	prog = append(prog, HALT())

	return Benchmark{
		Name:        "dependency_chain",
		Description: "10 dependent ADDs (F1 = F1 + F2) - measures RAW/WAW serialization",
		Program:     prog,
	}
}

// 3. WAW Chain - Long and short writers of the same register
func wawChain() Benchmark {
	prog := []insts.Instruction{}
	for i := 0; i < 4; i++ {
		prog = append(prog, MULT(3, 1, 2), ADD(3, 1, 2))
	}
	prog = append(prog, HALT())

	return Benchmark{
		Name:        "waw_chain",
		Description: "Alternating MULT/ADD into F3 - measures output dependency stalls",
		Program:     prog,
	}
}

// 4. WAR Pressure - Fast writers behind slow readers
func warPressure() Benchmark {
	return Benchmark{
		Name:        "war_pressure",
		Description: "ADDs waiting on a DIV hold stale operands that SUBs overwrite",
		Program: []insts.Instruction{
			DIV(4, 1, 2),
			ADD(5, 4, 6),
			SUB(6, 7, 8),
			ADD(9, 4, 10),
			SUB(10, 11, 12),
			MULT(13, 5, 6),
			HALT(),
		},
	}
}

// 5. Divide Bound - Independent divides on the single divider
func divideBound() Benchmark {
	prog := []insts.Instruction{}
	for dst := uint8(3); dst < 9; dst++ {
		prog = append(prog, DIV(dst, 15, 2))
	}
	prog = append(prog, HALT())

	return Benchmark{
		Name:        "divide_bound",
		Description: "6 independent DIVs - measures the structural hazard of one long unit",
		Program:     prog,
	}
}

// 6. Load/Store Stream - Scale a vector into a separate output buffer
func loadStoreStream() Benchmark {
	const n = 8
	prog := []insts.Instruction{}
	for i := uint16(0); i < n; i++ {
		reg := uint8(4 + i%4)
		prog = append(prog,
			LD(reg, 100+i),
			MULT(reg, reg, 2),
			ST(200+i, reg),
		)
	}
	prog = append(prog, HALT())

	return Benchmark{
		Name:        "load_store_stream",
		Description: "8 x (load, scale, store) - measures memory unit pressure",
		Setup: func(memory *emu.Memory) {
			for i := uint16(0); i < n; i++ {
				memory.WriteFloat(100+i, float32(i)*0.5)
			}
		},
		Program: prog,
	}
}

// 7. Dot Product - 4-element dot product with a reduction tree
func dotProduct() Benchmark {
	return Benchmark{
		Name:        "dot_product",
		Description: "4-element dot product - loads, multiplies and a reduction tree",
		Setup: func(memory *emu.Memory) {
			for i := uint16(0); i < 4; i++ {
				memory.WriteFloat(100+i, float32(i+1))
				memory.WriteFloat(110+i, 0.085)
			}
		},
		Program: []insts.Instruction{
			LD(1, 100), LD(2, 110),
			LD(3, 101), LD(4, 111),
			LD(5, 102), LD(6, 112),
			LD(7, 103), LD(8, 113),
			MULT(9, 1, 2),
			MULT(10, 3, 4),
			MULT(11, 5, 6),
			MULT(12, 7, 8),
			ADD(13, 9, 10),
			ADD(14, 11, 12),
			ADD(15, 13, 14),
			ST(200, 15),
			HALT(),
		},
	}
}
