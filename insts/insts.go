// Package insts provides the scoreboard machine's instruction definitions
// and decoding.
//
// Every instruction is one 32-bit word:
//
//	[31:28] reserved, must be zero
//	[27:24] opcode (0=LD, 1=ST, 2=ADD, 3=SUB, 4=MULT, 5=DIV, 6=HALT)
//	[23:20] destination register
//	[19:16] source register 0
//	[15:12] source register 1
//	[11:0]  unsigned immediate
//
// Usage:
//
//	decoder := insts.NewDecoder()
//	inst, err := decoder.Decode(0x02201000) // add.d F2 = F0 + F1
//	fmt.Printf("Op: %v, Dst: %d, Src0: %d, Src1: %d\n", inst.Op, inst.Dst, inst.Src0, inst.Src1)
package insts
