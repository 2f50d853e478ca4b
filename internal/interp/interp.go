package interp

import (
	"context"
	"encoding/binary"

	"github.com/emustack/armjit/engine"
	"github.com/emustack/armjit/errors"
)

// Jit is the reference translation core. It implements engine.Engine
// with the same observable behavior as a block-caching JIT: instructions
// are translated into cached blocks, coprocessor compile queries run
// once per translation, and execution drives the caller's callbacks for
// every access the page table cannot resolve.
type Jit struct {
	cfg engine.Config

	regs    [16]uint32
	extRegs [64]uint32
	cpsr    uint32
	fpscr   uint32

	halted bool
	closed bool

	// Translated blocks keyed by start address. writablePages maps a
	// guest page to the start addresses of cached blocks whose code was
	// not reported read-only; stores into such a page invalidate them.
	blocks        map[uint32]*block
	writablePages map[uint32][]uint32
}

// New constructs a reference engine. It satisfies engine.Factory.
func New(cfg engine.Config) (engine.Engine, error) {
	if cfg.Callbacks == nil {
		return nil, errors.InvalidInput(errors.PhaseCreate, "engine config requires callbacks")
	}
	return &Jit{
		cfg:           cfg,
		blocks:        make(map[uint32]*block),
		writablePages: make(map[uint32][]uint32),
	}, nil
}

// Run executes translated blocks until the engine is halted, the cycle
// budget is exhausted, or ctx is cancelled. Every callback runs nested
// on the calling goroutine.
func (j *Jit) Run(ctx context.Context) error {
	if j.closed {
		return errors.NotInitialized(errors.PhaseRun, "engine")
	}
	cb := j.cfg.Callbacks
	j.halted = false

	for !j.halted {
		if err := ctx.Err(); err != nil {
			return err
		}
		if cb.GetTicksRemaining() == 0 {
			return nil
		}

		b := j.blocks[j.regs[15]]
		if b == nil {
			var err error
			b, err = j.translate(j.regs[15])
			if err != nil {
				return err
			}
		}

		for _, o := range b.ops {
			o(j)
			if j.halted {
				break
			}
		}
		cb.AddTicks(uint64(len(b.ops)))
	}
	return nil
}

// Halt requests a stop at the next safe point. Cooperative only.
func (j *Jit) Halt() {
	j.halted = true
}

func (j *Jit) Regs() *[16]uint32 {
	return &j.regs
}

func (j *Jit) ExtRegs() *[64]uint32 {
	return &j.extRegs
}

func (j *Jit) Cpsr() uint32      { return j.cpsr }
func (j *Jit) SetCpsr(v uint32)  { j.cpsr = v }
func (j *Jit) Fpscr() uint32     { return j.fpscr }
func (j *Jit) SetFpscr(v uint32) { j.fpscr = v }

// ClearCache drops every translated block. The next Run retranslates
// and re-issues coprocessor compile queries.
func (j *Jit) ClearCache() {
	j.blocks = make(map[uint32]*block)
	j.writablePages = make(map[uint32][]uint32)
}

func (j *Jit) Close() error {
	if j.closed {
		return errors.NotInitialized(errors.PhaseTeardown, "engine")
	}
	j.closed = true
	j.blocks = nil
	j.writablePages = nil
	return nil
}

// page returns the direct-mapped backing for addr, or nil.
func (j *Jit) page(addr uint32) []byte {
	if j.cfg.PageTable == nil {
		return nil
	}
	return j.cfg.PageTable[addr>>engine.PageBits]
}

// Memory helpers. Direct-path accesses are forced to natural alignment;
// callback-path accesses forward the address unmodified.

func (j *Jit) read8(addr uint32) uint8 {
	if p := j.page(addr); p != nil {
		return p[addr&(engine.PageSize-1)]
	}
	return j.cfg.Callbacks.MemoryRead8(addr)
}

func (j *Jit) read16(addr uint32) uint16 {
	if p := j.page(addr); p != nil {
		off := addr & (engine.PageSize - 1) &^ 1
		return binary.LittleEndian.Uint16(p[off:])
	}
	return j.cfg.Callbacks.MemoryRead16(addr)
}

func (j *Jit) read32(addr uint32) uint32 {
	if p := j.page(addr); p != nil {
		off := addr & (engine.PageSize - 1) &^ 3
		return binary.LittleEndian.Uint32(p[off:])
	}
	return j.cfg.Callbacks.MemoryRead32(addr)
}

func (j *Jit) read64(addr uint32) uint64 {
	if p := j.page(addr); p != nil {
		off := addr & (engine.PageSize - 1) &^ 7
		return binary.LittleEndian.Uint64(p[off:])
	}
	return j.cfg.Callbacks.MemoryRead64(addr)
}

func (j *Jit) write8(addr uint32, v uint8) {
	if p := j.page(addr); p != nil {
		p[addr&(engine.PageSize-1)] = v
	} else {
		j.cfg.Callbacks.MemoryWrite8(addr, v)
	}
	j.invalidateIfCode(addr)
}

func (j *Jit) write16(addr uint32, v uint16) {
	if p := j.page(addr); p != nil {
		off := addr & (engine.PageSize - 1) &^ 1
		binary.LittleEndian.PutUint16(p[off:], v)
	} else {
		j.cfg.Callbacks.MemoryWrite16(addr, v)
	}
	j.invalidateIfCode(addr)
}

func (j *Jit) write32(addr uint32, v uint32) {
	if p := j.page(addr); p != nil {
		off := addr & (engine.PageSize - 1) &^ 3
		binary.LittleEndian.PutUint32(p[off:], v)
	} else {
		j.cfg.Callbacks.MemoryWrite32(addr, v)
	}
	j.invalidateIfCode(addr)
}

func (j *Jit) write64(addr uint32, v uint64) {
	if p := j.page(addr); p != nil {
		off := addr & (engine.PageSize - 1) &^ 7
		binary.LittleEndian.PutUint64(p[off:], v)
	} else {
		j.cfg.Callbacks.MemoryWrite64(addr, v)
	}
	j.invalidateIfCode(addr)
}

// invalidateIfCode drops cached blocks whose writable code page was just
// stored to. Blocks translated from read-only memory are exempt; that is
// the write optimization IsReadOnlyMemory gates.
func (j *Jit) invalidateIfCode(addr uint32) {
	page := addr >> engine.PageBits
	starts, ok := j.writablePages[page]
	if !ok {
		return
	}
	for _, start := range starts {
		delete(j.blocks, start)
	}
	delete(j.writablePages, page)
}
