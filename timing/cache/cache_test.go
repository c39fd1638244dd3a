package cache_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/sarchlab/sbsim/emu"
	"github.com/sarchlab/sbsim/timing/cache"
)

var _ = Describe("Cache", func() {
	var (
		c       *cache.Cache
		memory  *emu.Memory
		backing *cache.MemoryBacking
	)

	BeforeEach(func() {
		memory = emu.NewMemory()
		backing = cache.NewMemoryBacking(memory)
		// 256B, 2-way, 16B lines = 8 sets; words 0, 32, 64 share set 0
		config := cache.Config{
			Size:          256,
			Associativity: 2,
			BlockSize:     16,
			HitLatency:    1,
			MissLatency:   10,
		}
		c = cache.New(config, backing)
	})

	Describe("Read operations", func() {
		It("should miss on cold cache", func() {
			memory.WriteWord(100, 0xDEADBEEF)

			result := c.Read(100)
			Expect(result.Hit).To(BeFalse())
			Expect(result.Latency).To(Equal(uint64(10)))
			Expect(result.Data).To(Equal(uint32(0xDEADBEEF)))

			stats := c.Stats()
			Expect(stats.Reads).To(Equal(uint64(1)))
			Expect(stats.Misses).To(Equal(uint64(1)))
			Expect(stats.Hits).To(Equal(uint64(0)))
		})

		It("should hit on cached data", func() {
			memory.WriteWord(100, 0xCAFEBABE)

			c.Read(100)

			result := c.Read(100)
			Expect(result.Hit).To(BeTrue())
			Expect(result.Latency).To(Equal(uint64(1)))
			Expect(result.Data).To(Equal(uint32(0xCAFEBABE)))

			stats := c.Stats()
			Expect(stats.Reads).To(Equal(uint64(2)))
			Expect(stats.Hits).To(Equal(uint64(1)))
			Expect(stats.AccessCycles).To(Equal(uint64(11)))
			Expect(stats.HitRate()).To(BeNumerically("~", 0.5))
		})

		It("should hit on different words in same cache line", func() {
			memory.WriteWord(8, 0x11111111)
			memory.WriteWord(11, 0x22222222)

			c.Read(8)

			result := c.Read(11)
			Expect(result.Hit).To(BeTrue())
			Expect(result.Data).To(Equal(uint32(0x22222222)))
		})

		It("should miss on the next line", func() {
			c.Read(8)
			Expect(c.Read(12).Hit).To(BeFalse())
		})
	})

	Describe("Write operations", func() {
		It("should write-allocate on miss", func() {
			result := c.Write(40, 0x12345678)
			Expect(result.Hit).To(BeFalse())
			Expect(result.Latency).To(Equal(uint64(10)))

			readResult := c.Read(40)
			Expect(readResult.Hit).To(BeTrue())
			Expect(readResult.Data).To(Equal(uint32(0x12345678)))
		})

		It("should keep the rest of the line from memory", func() {
			memory.WriteWord(41, 0xABCD)

			c.Write(40, 1)

			Expect(c.ReadWord(41)).To(Equal(uint32(0xABCD)))
		})

		It("should hit on cached data", func() {
			c.Write(40, 0x11111111)

			result := c.Write(40, 0x22222222)
			Expect(result.Hit).To(BeTrue())
			Expect(result.Latency).To(Equal(uint64(1)))

			Expect(c.ReadWord(40)).To(Equal(uint32(0x22222222)))
		})

		It("should not write through to memory", func() {
			c.WriteWord(40, 7)
			Expect(memory.ReadWord(40)).To(Equal(uint32(0)))
		})
	})

	Describe("Eviction", func() {
		It("should evict when a set is full", func() {
			c.Write(0, 0x11111111)
			c.Write(32, 0x22222222)

			Expect(c.Read(0).Hit).To(BeTrue())
			Expect(c.Read(32).Hit).To(BeTrue())

			result := c.Write(64, 0x33333333)
			Expect(result.Hit).To(BeFalse())
			Expect(result.Evicted).To(BeTrue())
			Expect(result.EvictedAddr).To(Equal(uint16(0)))

			Expect(c.Stats().Evictions).To(Equal(uint64(1)))
		})

		It("should writeback dirty evicted blocks", func() {
			c.Write(0, 0x11111111)
			c.Write(32, 0x22222222)

			// Make word 0 the LRU line
			c.Read(32)

			c.Write(64, 0x33333333)

			Expect(memory.ReadWord(0)).To(Equal(uint32(0x11111111)))
			Expect(memory.ReadWord(32)).To(Equal(uint32(0)))
			Expect(c.Stats().Writebacks).To(Equal(uint64(1)))
		})

		It("should not write back clean blocks", func() {
			c.Read(0)
			c.Read(32)
			c.Read(64)

			Expect(c.Stats().Evictions).To(Equal(uint64(1)))
			Expect(c.Stats().Writebacks).To(Equal(uint64(0)))
		})
	})

	Describe("Flush", func() {
		It("should write back all dirty blocks", func() {
			c.Write(0, 0x11111111)
			c.Write(4095, 0x22222222)

			Expect(memory.ReadWord(0)).To(Equal(uint32(0)))
			Expect(memory.ReadWord(4095)).To(Equal(uint32(0)))

			c.Flush()

			Expect(memory.ReadWord(0)).To(Equal(uint32(0x11111111)))
			Expect(memory.ReadWord(4095)).To(Equal(uint32(0x22222222)))
			Expect(c.Stats().Writebacks).To(Equal(uint64(2)))

			Expect(c.Read(0).Hit).To(BeFalse())
		})
	})

	Describe("Invalidate and Reset", func() {
		It("should drop a dirty line on invalidate", func() {
			c.Write(0, 5)
			c.Invalidate(0)

			Expect(c.Read(0).Data).To(Equal(uint32(0)))
		})

		It("should clear stats on reset", func() {
			c.Read(0)
			c.Reset()

			Expect(c.Stats()).To(Equal(cache.Statistics{}))
			Expect(c.Read(0).Hit).To(BeFalse())
		})
	})

	Describe("Peek", func() {
		It("should return dirty data without counting an access", func() {
			c.Write(20, 9)
			before := c.Stats()

			v, ok := c.Peek(20)
			Expect(ok).To(BeTrue())
			Expect(v).To(Equal(uint32(9)))
			Expect(c.Stats()).To(Equal(before))
		})

		It("should miss on uncached words", func() {
			_, ok := c.Peek(20)
			Expect(ok).To(BeFalse())
		})
	})

	Describe("Default configuration", func() {
		It("should describe a small L1 data cache", func() {
			config := cache.DefaultConfig()
			Expect(config.Size).To(Equal(1024))
			Expect(config.Associativity).To(Equal(2))
			Expect(config.BlockSize).To(Equal(16))
		})
	})
})
