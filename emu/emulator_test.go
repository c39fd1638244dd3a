package emu_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/sbsim/emu"
	"github.com/sarchlab/sbsim/insts"
)

func encode(op insts.Op, dst, src0, src1 uint8, imm uint16) uint32 {
	inst := insts.Instruction{Op: op, Dst: dst, Src0: src0, Src1: src1, Imm: imm}
	return inst.Encode()
}

var _ = Describe("Emulator", func() {
	var (
		e      *emu.Emulator
		memory *emu.Memory
	)

	BeforeEach(func() {
		memory = emu.NewMemory()
		e = emu.NewEmulator(emu.WithMemory(memory))
	})

	Describe("NewEmulator", func() {
		It("should create an emulator with initialized components", func() {
			Expect(e).NotTo(BeNil())
			Expect(e.RegFile()).NotTo(BeNil())
			Expect(e.Memory()).To(BeIdenticalTo(memory))
			Expect(e.RegFile().ReadReg(7)).To(Equal(float32(7)))
		})
	})

	Describe("Run", func() {
		It("should stop immediately on HALT", func() {
			memory.WriteWord(0, encode(insts.OpHALT, 0, 0, 0, 0))

			Expect(e.Run()).To(Succeed())
			Expect(e.InstructionCount()).To(Equal(uint64(0)))
			Expect(e.PC()).To(Equal(uint32(0)))
		})

		It("should execute arithmetic in program order", func() {
			memory.LoadWords([]uint32{
				encode(insts.OpADD, 2, 0, 1, 0),  // F2 = 0 + 1
				encode(insts.OpMULT, 3, 2, 5, 0), // F3 = 1 * 5
				encode(insts.OpSUB, 4, 3, 1, 0),  // F4 = 5 - 1
				encode(insts.OpDIV, 5, 4, 2, 0),  // F5 = 4 / 1
				encode(insts.OpHALT, 0, 0, 0, 0),
			})

			Expect(e.Run()).To(Succeed())
			Expect(e.InstructionCount()).To(Equal(uint64(4)))
			Expect(e.RegFile().ReadReg(2)).To(Equal(float32(1)))
			Expect(e.RegFile().ReadReg(3)).To(Equal(float32(5)))
			Expect(e.RegFile().ReadReg(4)).To(Equal(float32(4)))
			Expect(e.RegFile().ReadReg(5)).To(Equal(float32(4)))
		})

		It("should load and store through bit reinterpretation", func() {
			memory.LoadWords([]uint32{
				encode(insts.OpLD, 1, 0, 0, 100),
				encode(insts.OpST, 0, 0, 1, 101),
				encode(insts.OpST, 0, 0, 6, 102),
				encode(insts.OpHALT, 0, 0, 0, 0),
			})
			memory.WriteWord(100, 1034818683)

			Expect(e.Run()).To(Succeed())
			Expect(e.RegFile().ReadReg(1)).To(Equal(float32(0.085)))
			Expect(memory.ReadWord(101)).To(Equal(uint32(1034818683)))
			Expect(memory.ReadFloat(102)).To(Equal(float32(6)))
		})

		It("should fail on an invalid encoding", func() {
			memory.WriteWord(0, 0xF0000000)

			Expect(e.Run()).To(MatchError(insts.ErrInvalidEncoding))
		})

		It("should fail when running past the end of memory", func() {
			for addr := 0; addr < emu.MemorySize; addr++ {
				memory.WriteWord(uint16(addr), encode(insts.OpADD, 1, 1, 1, 0))
			}

			Expect(e.Run()).To(MatchError(emu.ErrEndOfMemory))
		})

		It("should honour the instruction limit", func() {
			e = emu.NewEmulator(emu.WithMemory(memory), emu.WithMaxInstructions(2))
			memory.LoadWords([]uint32{
				encode(insts.OpADD, 1, 1, 1, 0),
				encode(insts.OpADD, 1, 1, 1, 0),
				encode(insts.OpADD, 1, 1, 1, 0),
				encode(insts.OpHALT, 0, 0, 0, 0),
			})

			Expect(e.Run()).To(HaveOccurred())
			Expect(e.InstructionCount()).To(Equal(uint64(2)))
		})
	})
})
