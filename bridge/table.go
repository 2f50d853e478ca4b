package bridge

import "github.com/emustack/armjit/engine"

// CallbackTable is the flat set of 13 callbacks a caller supplies at
// handle creation. Each receives the owning Handle as its first
// argument. The table is copied into the handle; the caller's value may
// be discarded afterward.
//
// Every slot except IsReadOnlyMemory is required; New rejects a table
// with a nil required slot.
type CallbackTable struct {
	Read8  func(h *Handle, addr uint32) uint8
	Read16 func(h *Handle, addr uint32) uint16
	Read32 func(h *Handle, addr uint32) uint32
	Read64 func(h *Handle, addr uint32) uint64

	Write8  func(h *Handle, addr uint32, value uint8)
	Write16 func(h *Handle, addr uint32, value uint16)
	Write32 func(h *Handle, addr uint32, value uint32)
	Write64 func(h *Handle, addr uint32, value uint64)

	// IsReadOnlyMemory is the sole optional slot. When nil, every
	// address reports as not read-only.
	IsReadOnlyMemory func(h *Handle, addr uint32) bool

	CallSVC         func(h *Handle, swi uint32)
	ExceptionRaised func(h *Handle, pc uint32, exception engine.Exception)

	AddTicks          func(h *Handle, ticks uint64)
	GetTicksRemaining func(h *Handle) uint64
}

// missingSlot returns the name of the first nil required slot, or "".
func (t *CallbackTable) missingSlot() string {
	switch {
	case t.Read8 == nil:
		return "Read8"
	case t.Read16 == nil:
		return "Read16"
	case t.Read32 == nil:
		return "Read32"
	case t.Read64 == nil:
		return "Read64"
	case t.Write8 == nil:
		return "Write8"
	case t.Write16 == nil:
		return "Write16"
	case t.Write32 == nil:
		return "Write32"
	case t.Write64 == nil:
		return "Write64"
	case t.CallSVC == nil:
		return "CallSVC"
	case t.ExceptionRaised == nil:
		return "ExceptionRaised"
	case t.AddTicks == nil:
		return "AddTicks"
	case t.GetTicksRemaining == nil:
		return "GetTicksRemaining"
	default:
		return ""
	}
}

// dispatcher implements engine.Callbacks by routing every engine-issued
// operation to the matching table slot with the owning handle.
type dispatcher struct {
	h     *Handle
	table CallbackTable
}

func (d *dispatcher) MemoryRead8(addr uint32) uint8   { return d.table.Read8(d.h, addr) }
func (d *dispatcher) MemoryRead16(addr uint32) uint16 { return d.table.Read16(d.h, addr) }
func (d *dispatcher) MemoryRead32(addr uint32) uint32 { return d.table.Read32(d.h, addr) }
func (d *dispatcher) MemoryRead64(addr uint32) uint64 { return d.table.Read64(d.h, addr) }

func (d *dispatcher) MemoryWrite8(addr uint32, v uint8)   { d.table.Write8(d.h, addr, v) }
func (d *dispatcher) MemoryWrite16(addr uint32, v uint16) { d.table.Write16(d.h, addr, v) }
func (d *dispatcher) MemoryWrite32(addr uint32, v uint32) { d.table.Write32(d.h, addr, v) }
func (d *dispatcher) MemoryWrite64(addr uint32, v uint64) { d.table.Write64(d.h, addr, v) }

// IsReadOnlyMemory reports false unconditionally when the optional slot
// is absent; it never invokes a nil function.
func (d *dispatcher) IsReadOnlyMemory(addr uint32) bool {
	if d.table.IsReadOnlyMemory == nil {
		return false
	}
	return d.table.IsReadOnlyMemory(d.h, addr)
}

// InterpreterFallback has no table slot: this bridge wires no fallback
// interpreter, so the operation is unsupported. The error is recorded
// on the handle, surfaced from Run, and the engine is halted.
func (d *dispatcher) InterpreterFallback(pc uint32, numInstructions int) {
	d.h.failRun(pc, numInstructions)
}

func (d *dispatcher) CallSVC(swi uint32) { d.table.CallSVC(d.h, swi) }

func (d *dispatcher) ExceptionRaised(pc uint32, exception engine.Exception) {
	d.table.ExceptionRaised(d.h, pc, exception)
}

func (d *dispatcher) AddTicks(ticks uint64) { d.table.AddTicks(d.h, ticks) }

func (d *dispatcher) GetTicksRemaining() uint64 { return d.table.GetTicksRemaining(d.h) }
