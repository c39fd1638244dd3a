package insts_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/sbsim/insts"
)

var _ = Describe("Decoder", func() {
	var decoder *insts.Decoder

	BeforeEach(func() {
		decoder = insts.NewDecoder()
	})

	Describe("Field extraction", func() {
		// add.d F2 = F0 + F1 -> 0x02201000
		It("should decode ADD", func() {
			inst, err := decoder.Decode(0x02201000)

			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Op).To(Equal(insts.OpADD))
			Expect(inst.Dst).To(Equal(uint8(2)))
			Expect(inst.Src0).To(Equal(uint8(0)))
			Expect(inst.Src1).To(Equal(uint8(1)))
			Expect(inst.Imm).To(Equal(uint16(0)))
		})

		// ld F15 = MEM[4095] -> 0x00F00FFF
		It("should decode LD with the largest immediate", func() {
			inst, err := decoder.Decode(0x00F00FFF)

			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Op).To(Equal(insts.OpLD))
			Expect(inst.Dst).To(Equal(uint8(15)))
			Expect(inst.Imm).To(Equal(uint16(4095)))
		})

		// st MEM[100] = F3 -> 0x01003064
		It("should decode ST", func() {
			inst, err := decoder.Decode(0x01003064)

			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Op).To(Equal(insts.OpST))
			Expect(inst.Src1).To(Equal(uint8(3)))
			Expect(inst.Imm).To(Equal(uint16(100)))
		})

		It("should decode SUB, MULT and DIV", func() {
			inst, err := decoder.Decode(0x03456000)
			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Op).To(Equal(insts.OpSUB))
			Expect(inst.Dst).To(Equal(uint8(4)))
			Expect(inst.Src0).To(Equal(uint8(5)))
			Expect(inst.Src1).To(Equal(uint8(6)))

			inst, err = decoder.Decode(0x04789000)
			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Op).To(Equal(insts.OpMULT))

			inst, err = decoder.Decode(0x05ABC000)
			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Op).To(Equal(insts.OpDIV))
			Expect(inst.Dst).To(Equal(uint8(10)))
			Expect(inst.Src0).To(Equal(uint8(11)))
			Expect(inst.Src1).To(Equal(uint8(12)))
		})

		It("should decode HALT", func() {
			inst, err := decoder.Decode(0x06000000)

			Expect(err).NotTo(HaveOccurred())
			Expect(inst.Op).To(Equal(insts.OpHALT))
		})
	})

	Describe("Invalid encodings", func() {
		It("should reject nonzero reserved bits", func() {
			_, err := decoder.Decode(0x12201000)
			Expect(err).To(MatchError(insts.ErrInvalidEncoding))

			_, err = decoder.Decode(0x80000000)
			Expect(err).To(MatchError(insts.ErrInvalidEncoding))
		})

		It("should reject unknown opcodes", func() {
			for op := uint32(7); op <= 0xF; op++ {
				_, err := decoder.Decode(op << 24)
				Expect(err).To(MatchError(insts.ErrInvalidEncoding), "opcode %d", op)
			}
		})
	})

	Describe("DecodeInto", func() {
		It("should match Decode", func() {
			var inst insts.Instruction
			Expect(decoder.DecodeInto(0x04789ABC, &inst)).To(Succeed())

			want, err := decoder.Decode(0x04789ABC)
			Expect(err).NotTo(HaveOccurred())
			Expect(inst).To(Equal(*want))
		})
	})

	Describe("Round trip", func() {
		It("should re-encode every valid opcode and field combination", func() {
			for op := uint32(0); op < uint32(insts.NumOps); op++ {
				for reg := uint32(0); reg < insts.NumRegisters; reg++ {
					for _, imm := range []uint32{0, 1, 0x7FF, 0xFFF} {
						word := op<<24 | reg<<20 | (15-reg)<<16 | ((reg*7)&0xF)<<12 | imm
						inst, err := decoder.Decode(word)
						Expect(err).NotTo(HaveOccurred())
						Expect(inst.Encode()).To(Equal(word))
					}
				}
			}
		})

		It("should encode instruction values returned by builders", func() {
			build := func(op insts.Op) insts.Instruction {
				return insts.Instruction{Op: op, Dst: 2, Src0: 3, Src1: 4, Imm: 0x5}
			}

			Expect(build(insts.OpHALT).Encode()).To(Equal(uint32(0x06234005)))
			Expect(insts.Instruction{Op: insts.OpST, Src1: 9, Imm: 200}.Encode()).
				To(Equal(uint32(0x010090C8)))
			Expect(build(insts.OpADD).String()).To(Equal("add.d F2 = F3 + F4"))
		})
	})
})
