package exec

import (
	"context"
	"fmt"
	"math"

	"github.com/emustack/armjit/bridge"
	"github.com/emustack/armjit/engine"
	"github.com/emustack/armjit/errors"
	"github.com/emustack/armjit/memory"
)

// SVCHandler receives system-call traps raised by guest code.
type SVCHandler interface {
	HandleSVC(core *Core, swi uint32)
}

// Config configures an Executor.
type Config struct {
	// SVC handles system calls. When nil, the first SVC stops the run
	// with an error.
	SVC SVCHandler

	// Ticks is the initial cycle budget. Zero means effectively
	// unbounded.
	Ticks uint64

	// DirectMap exposes writable RAM spans to the engine through the
	// page table, bypassing callback dispatch for them. Spans must be
	// mapped before the first Run to be visible.
	DirectMap bool

	// Engine overrides the translation core. Optional.
	Engine engine.Factory
}

// Executor is the convenience layer over the bridge: it owns a guest
// address space, wires the callback table over it, and funnels traps to
// an optional SVC handler.
type Executor struct {
	handle *bridge.Handle
	mem    *memory.Memory
	svc    SVCHandler
	pages  *engine.PageTable
	ticks  uint64

	// First fatal condition observed while running.
	trapErr error
}

// New builds an executor with an empty address space.
func New(cfg Config) (*Executor, error) {
	e := &Executor{
		mem:   memory.New(),
		svc:   cfg.SVC,
		ticks: cfg.Ticks,
	}
	if e.ticks == 0 {
		e.ticks = math.MaxUint64
	}
	if cfg.DirectMap {
		e.pages = &engine.PageTable{}
	}

	var opts []bridge.Option
	if cfg.Engine != nil {
		opts = append(opts, bridge.WithEngine(cfg.Engine))
	}

	h, err := bridge.New(e, callbackTable(), e.pages, nil, opts...)
	if err != nil {
		return nil, err
	}
	e.handle = h
	return e, nil
}

// Close releases the underlying handle.
func (e *Executor) Close() error {
	return e.handle.Close()
}

// Core returns the accessor for register, status and memory state.
func (e *Executor) Core() *Core {
	return &Core{e: e}
}

// Run drives the engine until the guest halts, traps fatally, or the
// tick budget drains.
func (e *Executor) Run(ctx context.Context) error {
	e.trapErr = nil
	if err := e.handle.Run(ctx); err != nil {
		return err
	}
	return e.trapErr
}

// SetTicks replenishes the cycle budget for the next Run.
func (e *Executor) SetTicks(n uint64) {
	e.ticks = n
}

// Ticks returns the remaining cycle budget.
func (e *Executor) Ticks() uint64 {
	return e.ticks
}

// fail records the first fatal condition and halts the engine.
func (e *Executor) fail(err error) {
	if e.trapErr == nil {
		e.trapErr = err
	}
	e.handle.Halt()
}

// Core exposes the live guest state during and between runs: the
// register file, status registers, the halt flag, and the executor's
// address space.
type Core struct {
	e *Executor
}

func (c *Core) Regs() *[16]uint32    { return c.e.handle.Regs() }
func (c *Core) ExtRegs() *[64]uint32 { return c.e.handle.ExtRegs() }
func (c *Core) Cpsr() uint32         { return c.e.handle.Cpsr() }
func (c *Core) SetCpsr(v uint32)     { c.e.handle.SetCpsr(v) }
func (c *Core) Fpscr() uint32        { return c.e.handle.Fpscr() }
func (c *Core) SetFpscr(v uint32)    { c.e.handle.SetFpscr(v) }

// Halt requests a cooperative stop at the next safe point.
func (c *Core) Halt() { c.e.handle.Halt() }

// Map backs a region with zeroed RAM; MapIO routes one to a handler.
// With DirectMap enabled, writable RAM mapped before the first Run is
// served to the engine directly.
func (c *Core) Map(addr uint32, pages uint32, readOnly bool) error {
	if err := c.e.mem.Map(addr, pages, readOnly); err != nil {
		return err
	}
	if c.e.pages != nil {
		c.e.mem.FillPageTable(c.e.pages)
	}
	return nil
}

func (c *Core) MapIO(addr uint32, pages uint32, handler memory.IOPage) error {
	return c.e.mem.MapIO(addr, pages, handler)
}

func (c *Core) Read8(addr uint32) (uint8, error)   { return c.e.mem.Read8(addr) }
func (c *Core) Read16(addr uint32) (uint16, error) { return c.e.mem.Read16(addr) }
func (c *Core) Read32(addr uint32) (uint32, error) { return c.e.mem.Read32(addr) }
func (c *Core) Read64(addr uint32) (uint64, error) { return c.e.mem.Read64(addr) }

func (c *Core) Write8(addr uint32, v uint8) error   { return c.e.mem.Write8(addr, v) }
func (c *Core) Write16(addr uint32, v uint16) error { return c.e.mem.Write16(addr, v) }
func (c *Core) Write32(addr uint32, v uint32) error { return c.e.mem.Write32(addr, v) }
func (c *Core) Write64(addr uint32, v uint64) error { return c.e.mem.Write64(addr, v) }

// callbackTable wires the bridge's flat table over the executor's
// address space. Unmapped accesses and unhandled traps stop the run
// with an error instead of guessing.
func callbackTable() *bridge.CallbackTable {
	ex := func(h *bridge.Handle) *Executor { return h.UserData().(*Executor) }

	check := func(h *bridge.Handle, err error) {
		if err != nil {
			ex(h).fail(err)
		}
	}

	return &bridge.CallbackTable{
		Read8: func(h *bridge.Handle, addr uint32) uint8 {
			v, err := ex(h).mem.Read8(addr)
			check(h, err)
			return v
		},
		Read16: func(h *bridge.Handle, addr uint32) uint16 {
			v, err := ex(h).mem.Read16(addr)
			check(h, err)
			return v
		},
		Read32: func(h *bridge.Handle, addr uint32) uint32 {
			v, err := ex(h).mem.Read32(addr)
			check(h, err)
			return v
		},
		Read64: func(h *bridge.Handle, addr uint32) uint64 {
			v, err := ex(h).mem.Read64(addr)
			check(h, err)
			return v
		},
		Write8: func(h *bridge.Handle, addr uint32, v uint8) {
			check(h, ex(h).mem.Write8(addr, v))
		},
		Write16: func(h *bridge.Handle, addr uint32, v uint16) {
			check(h, ex(h).mem.Write16(addr, v))
		},
		Write32: func(h *bridge.Handle, addr uint32, v uint32) {
			check(h, ex(h).mem.Write32(addr, v))
		},
		Write64: func(h *bridge.Handle, addr uint32, v uint64) {
			check(h, ex(h).mem.Write64(addr, v))
		},
		IsReadOnlyMemory: func(h *bridge.Handle, addr uint32) bool {
			return ex(h).mem.IsReadOnly(addr)
		},
		CallSVC: func(h *bridge.Handle, swi uint32) {
			e := ex(h)
			if e.svc == nil {
				e.fail(errors.Unsupported(errors.PhaseRun,
					fmt.Sprintf("svc %#x with no handler installed", swi)))
				return
			}
			e.svc.HandleSVC(e.Core(), swi)
		},
		ExceptionRaised: func(h *bridge.Handle, pc uint32, exc engine.Exception) {
			ex(h).fail(errors.Halted(fmt.Sprintf("%v at %#x", exc, pc)))
		},
		AddTicks: func(h *bridge.Handle, t uint64) {
			e := ex(h)
			if t > e.ticks {
				e.ticks = 0
				return
			}
			e.ticks -= t
		},
		GetTicksRemaining: func(h *bridge.Handle) uint64 {
			return ex(h).ticks
		},
	}
}
