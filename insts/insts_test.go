package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/sbsim/insts"
)

var _ = Describe("Insts Package", func() {
	It("should have an Instruction type", func() {
		var i insts.Instruction
		Expect(i).To(BeZero())
	})

	It("should have a Decoder type", func() {
		decoder := insts.NewDecoder()
		Expect(decoder).ToNot(BeNil())
	})

	Describe("Op classification", func() {
		It("should name every opcode", func() {
			Expect(insts.OpLD.String()).To(Equal("LD"))
			Expect(insts.OpMULT.String()).To(Equal("MULT"))
			Expect(insts.OpHALT.String()).To(Equal("HALT"))
			Expect(insts.Op(9).String()).To(Equal("Op(9)"))
		})

		It("should report which operands are read", func() {
			Expect(insts.OpLD.ReadsSrc0()).To(BeFalse())
			Expect(insts.OpLD.ReadsSrc1()).To(BeFalse())
			Expect(insts.OpST.ReadsSrc0()).To(BeFalse())
			Expect(insts.OpST.ReadsSrc1()).To(BeTrue())
			Expect(insts.OpDIV.ReadsSrc0()).To(BeTrue())
			Expect(insts.OpDIV.ReadsSrc1()).To(BeTrue())
		})

		It("should report which operations write a register", func() {
			Expect(insts.OpLD.WritesRegister()).To(BeTrue())
			Expect(insts.OpADD.WritesRegister()).To(BeTrue())
			Expect(insts.OpST.WritesRegister()).To(BeFalse())
			Expect(insts.OpHALT.WritesRegister()).To(BeFalse())
		})
	})

	Describe("String", func() {
		DescribeTable("disassembly",
			func(inst insts.Instruction, want string) {
				Expect(inst.String()).To(Equal(want))
			},
			Entry("ld", insts.Instruction{Op: insts.OpLD, Dst: 1, Imm: 12}, "ld F1 = MEM[12]"),
			Entry("st", insts.Instruction{Op: insts.OpST, Src1: 3, Imm: 7}, "st MEM[7] = F3"),
			Entry("add", insts.Instruction{Op: insts.OpADD, Dst: 2, Src0: 0, Src1: 1}, "add.d F2 = F0 + F1"),
			Entry("sub", insts.Instruction{Op: insts.OpSUB, Dst: 4, Src0: 5, Src1: 6}, "sub.d F4 = F5 - F6"),
			Entry("mult", insts.Instruction{Op: insts.OpMULT, Dst: 7, Src0: 8, Src1: 9}, "mult.d F7 = F8 * F9"),
			Entry("div", insts.Instruction{Op: insts.OpDIV, Dst: 10, Src0: 11, Src1: 12}, "div.d F10 = F11 / F12"),
			Entry("halt", insts.Instruction{Op: insts.OpHALT}, "halt"),
		)
	})
})
