package pipeline

import (
	"errors"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/sarchlab/sbsim/emu"
	"github.com/sarchlab/sbsim/insts"
	"github.com/sarchlab/sbsim/timing/cache"
	"github.com/sarchlab/sbsim/timing/latency"
)

var (
	// ErrMemoryExhausted is returned when a non-halt instruction is fetched
	// from the last memory slot.
	ErrMemoryExhausted = errors.New("program ran past the end of memory")

	// ErrNoUnits is returned when an instruction needs a unit class that
	// has no units configured.
	ErrNoUnits = fmt.Errorf("no functional units for opcode: %w", latency.ErrInvalidConfig)
)

// DataPort is the path loads and stores take to memory.
type DataPort interface {
	ReadWord(addr uint16) uint32
	WriteWord(addr uint16, value uint32)
}

// Statistics holds pipeline performance statistics.
type Statistics struct {
	// Cycles is the total number of cycles simulated.
	Cycles uint64
	// Issued is the number of instructions given a functional unit.
	Issued uint64
	// Instructions is the number of instructions retired at write-result.
	Instructions uint64
	// StructuralStalls counts issue attempts with no free unit.
	StructuralStalls uint64
	// WAWStalls counts issue attempts blocked by a live producer.
	WAWStalls uint64
	// RAWStalls counts unit-cycles spent waiting for operands.
	RAWStalls uint64
	// WARStalls counts unit-cycles a finished result waited for readers.
	WARStalls uint64
	// FetchStalls counts cycles fetch was skipped on a full queue.
	FetchStalls uint64
}

// CPI returns the cycles per instruction.
func (s Statistics) CPI() float64 {
	if s.Instructions == 0 {
		return 0
	}
	return float64(s.Cycles) / float64(s.Instructions)
}

// PipelineOption is a functional option for configuring the Pipeline.
type PipelineOption func(*Pipeline)

// WithLatencyTable sets the unit counts, latencies and trace unit.
func WithLatencyTable(table *latency.Table) PipelineOption {
	return func(p *Pipeline) {
		p.latencyTable = table
	}
}

// WithLogger sets the logger for stage events. Issue and retire events
// log at V(1), other stage transitions at V(2).
func WithLogger(log logr.Logger) PipelineOption {
	return func(p *Pipeline) {
		p.log = log
	}
}

// WithDataCache places a data cache between loads/stores and memory. The
// cache changes no values; it is flushed when the pipeline drains.
func WithDataCache(config cache.Config) PipelineOption {
	return func(p *Pipeline) {
		p.dcache = cache.New(config, cache.NewMemoryBacking(p.memory))
	}
}

// Pipeline is a scoreboard pipeline over one register file and memory.
type Pipeline struct {
	latencyTable *latency.Table
	log          logr.Logger

	decoder  *insts.Decoder
	queue    *InstructionQueue
	pool     *UnitPool
	status   *RegisterStatus
	hazards  *HazardUnit
	recorder *Recorder

	traced      UnitRef
	stallOnFull bool

	regFile *emu.RegFile
	memory  *emu.Memory
	dcache  *cache.Cache
	data    DataPort

	pc     uint16
	cycle  uint64
	halted bool
	done   bool
	err    error

	stats Statistics
}

// NewPipeline creates a pipeline. It fails with latency.ErrInvalidConfig
// when the configuration is invalid or the trace unit names no unit.
func NewPipeline(regFile *emu.RegFile, memory *emu.Memory, opts ...PipelineOption) (*Pipeline, error) {
	p := &Pipeline{
		latencyTable: latency.NewTable(),
		log:          logr.Discard(),
		decoder:      insts.NewDecoder(),
		regFile:      regFile,
		memory:       memory,
		cycle:        1,
	}

	for _, opt := range opts {
		opt(p)
	}

	config := p.latencyTable.Config()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	p.queue = NewInstructionQueue(config.Capacity())
	p.stallOnFull = config.StallOnFullQueue()
	p.pool = NewUnitPool(p.latencyTable)
	p.status = NewRegisterStatus()
	p.hazards = NewHazardUnit(p.pool, p.status)
	p.recorder = NewRecorder()

	traced, ok := p.pool.Find(config.TraceUnit)
	if !ok {
		return nil, fmt.Errorf("trace unit %q matches no functional unit: %w",
			config.TraceUnit, latency.ErrInvalidConfig)
	}
	p.traced = traced

	p.data = memory
	if p.dcache != nil {
		p.data = p.dcache
	}

	return p, nil
}

// PC returns the memory index of the next fetch.
func (p *Pipeline) PC() uint16 {
	return p.pc
}

// Cycle returns the current cycle. Cycles start at 1.
func (p *Pipeline) Cycle() uint64 {
	return p.cycle
}

// Halted returns true once HALT has been fetched.
func (p *Pipeline) Halted() bool {
	return p.halted
}

// Done returns true once the program has halted and drained, or a fatal
// error stopped the run.
func (p *Pipeline) Done() bool {
	return p.done
}

// Err returns the fatal error that stopped the run, if any.
func (p *Pipeline) Err() error {
	return p.err
}

// Stats returns pipeline statistics.
func (p *Pipeline) Stats() Statistics {
	return p.stats
}

// Recorder returns the trace and status recorder.
func (p *Pipeline) Recorder() *Recorder {
	return p.recorder
}

// LatencyTable returns the latency table in use.
func (p *Pipeline) LatencyTable() *latency.Table {
	return p.latencyTable
}

// Units returns a copy of every functional unit.
func (p *Pipeline) Units() []FunctionalUnit {
	return p.pool.Snapshot()
}

// Unit returns a copy of the unit with the given name.
func (p *Pipeline) Unit(name string) (FunctionalUnit, bool) {
	ref, ok := p.pool.Find(name)
	if !ok {
		return FunctionalUnit{}, false
	}
	return *p.pool.Unit(ref), true
}

// UnitName returns the name of ref, or "-" for NoUnit.
func (p *Pipeline) UnitName(ref UnitRef) string {
	return p.pool.Name(ref)
}

// RegisterStatus returns a copy of the register result status table.
func (p *Pipeline) RegisterStatus() RegisterStatus {
	return *p.status
}

// QueueLen returns the number of fetched instructions not yet issued.
func (p *Pipeline) QueueLen() int {
	return p.queue.Len()
}

// UseDCache returns true if loads and stores go through a data cache.
func (p *Pipeline) UseDCache() bool {
	return p.dcache != nil
}

// DCacheStats returns data cache statistics, zero without a cache.
func (p *Pipeline) DCacheStats() cache.Statistics {
	if p.dcache == nil {
		return cache.Statistics{}
	}
	return p.dcache.Stats()
}

// Run ticks until the program drains or a fatal error occurs.
func (p *Pipeline) Run() error {
	for !p.done {
		if err := p.Tick(); err != nil {
			return err
		}
	}
	return p.err
}

// RunCycles ticks at most cycles times. It returns true if the pipeline is
// still running.
func (p *Pipeline) RunCycles(cycles uint64) (bool, error) {
	for i := uint64(0); i < cycles && !p.done; i++ {
		if err := p.Tick(); err != nil {
			return false, err
		}
	}
	return !p.done, nil
}

// Tick simulates one cycle: fetch, issue, read-operands, execute,
// write-result and trace, then the exit check. The cycle counter advances
// only if the pipeline keeps running.
func (p *Pipeline) Tick() error {
	if p.done {
		return p.err
	}

	if err := p.tick(); err != nil {
		p.err = err
		p.done = true
		p.log.Error(err, "simulation failed", "cycle", p.cycle)
		return err
	}

	return nil
}

func (p *Pipeline) tick() error {
	p.stats.Cycles = p.cycle

	if err := p.fetch(); err != nil {
		return err
	}
	if err := p.issue(); err != nil {
		return err
	}

	// Only issue makes units busy.
	busy := p.pool.Busy()
	p.readOperands(busy)
	p.execute(busy)
	p.writeResult(busy)
	p.trace()

	if p.drained() {
		p.done = true
		if p.dcache != nil {
			p.dcache.Flush()
		}
		p.log.V(1).Info("drained", "cycle", p.cycle, "retired", p.stats.Instructions)
		return nil
	}

	p.cycle++
	return nil
}

// drained reports whether HALT waits at the queue head and every unit is
// idle.
func (p *Pipeline) drained() bool {
	if !p.halted {
		return false
	}

	head, err := p.queue.Peek()
	if err != nil || head.Inst.Op != insts.OpHALT {
		return false
	}

	return !p.pool.AnyBusy()
}
