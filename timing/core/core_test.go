package core_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/sbsim/emu"
	"github.com/sarchlab/sbsim/insts"
	"github.com/sarchlab/sbsim/timing/cache"
	"github.com/sarchlab/sbsim/timing/core"
	"github.com/sarchlab/sbsim/timing/latency"
	"github.com/sarchlab/sbsim/timing/pipeline"
)

var _ = Describe("Core", func() {
	var (
		regFile *emu.RegFile
		memory  *emu.Memory
		c       *core.Core
	)

	load := func(prog ...insts.Instruction) {
		for i := range prog {
			memory.WriteWord(uint16(i), prog[i].Encode())
		}
	}

	BeforeEach(func() {
		regFile = emu.NewRegFile()
		memory = emu.NewMemory()

		var err error
		c, err = core.NewCore(regFile, memory)
		Expect(err).NotTo(HaveOccurred())
	})

	It("should create a core with pipeline", func() {
		Expect(c.Pipeline).NotTo(BeNil())
		Expect(c.RegFile()).To(BeIdenticalTo(regFile))
		Expect(c.Memory()).To(BeIdenticalTo(memory))
	})

	It("should not be halted initially", func() {
		Expect(c.Halted()).To(BeFalse())
		Expect(c.Done()).To(BeFalse())
	})

	It("should propagate configuration errors", func() {
		config := latency.DefaultConfig()
		config.TraceUnit = "XYZ0"

		_, err := core.NewCore(regFile, memory,
			pipeline.WithLatencyTable(latency.NewTableWithConfig(config)))
		Expect(err).To(MatchError(latency.ErrInvalidConfig))
	})

	It("should execute instructions through tick", func() {
		load(
			insts.Instruction{Op: insts.OpMULT, Dst: 1, Src0: 3, Src1: 4},
			insts.Instruction{Op: insts.OpHALT},
		)

		for !c.Done() {
			Expect(c.Tick()).To(Succeed())
		}

		Expect(regFile.ReadReg(1)).To(Equal(float32(12)))
		Expect(c.Recorder().Instructions()).To(HaveLen(1))
	})

	It("should return stats", func() {
		load(
			insts.Instruction{Op: insts.OpADD, Dst: 2, Src0: 0, Src1: 1},
			insts.Instruction{Op: insts.OpSUB, Dst: 2, Src0: 0, Src1: 1},
			insts.Instruction{Op: insts.OpHALT},
		)

		Expect(c.Run()).To(Succeed())

		stats := c.Stats()
		Expect(stats.Cycles).To(Equal(uint64(8)))
		Expect(stats.Instructions).To(Equal(uint64(2)))
		Expect(stats.WAWStalls).To(Equal(uint64(3)))
		Expect(stats.Stalls).To(BeNumerically(">=", stats.WAWStalls))
		Expect(stats.CPI()).To(Equal(4.0))
	})

	It("should run a bounded number of cycles", func() {
		load(
			insts.Instruction{Op: insts.OpDIV, Dst: 1, Src0: 2, Src1: 3},
			insts.Instruction{Op: insts.OpHALT},
		)

		running, err := c.RunCycles(5)
		Expect(err).NotTo(HaveOccurred())
		Expect(running).To(BeTrue())
		Expect(c.Halted()).To(BeTrue())
	})

	It("should report data cache statistics", func() {
		var err error
		c, err = core.NewCore(regFile, memory, pipeline.WithDataCache(cache.DefaultConfig()))
		Expect(err).NotTo(HaveOccurred())

		load(
			insts.Instruction{Op: insts.OpLD, Dst: 1, Imm: 64},
			insts.Instruction{Op: insts.OpLD, Dst: 2, Imm: 65},
			insts.Instruction{Op: insts.OpHALT},
		)

		Expect(c.Run()).To(Succeed())

		stats := c.Stats()
		Expect(stats.DCache.Reads).To(Equal(uint64(2)))
		Expect(stats.DCache.Hits).To(Equal(uint64(1)))
	})
})
