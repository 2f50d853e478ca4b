package engine

import "context"

// Page-table protocol constants. These are part of the binary contract
// with the translation core: the table covers the full 32-bit address
// space at page granularity.
const (
	PageBits            = 12
	PageSize            = 1 << PageBits
	NumPageTableEntries = 1 << (32 - PageBits)
)

// PageTable maps each 4 KiB page of the guest address space to a direct
// memory block. A nil entry means the page is not directly mapped and
// accesses to it go through the Callbacks interface. Non-nil entries
// must be exactly PageSize bytes long.
//
// The table is borrowed by the engine and must outlive it.
type PageTable [NumPageTableEntries][]byte

// Config carries everything an engine needs at construction time.
type Config struct {
	// Callbacks receives every memory access and trap the engine cannot
	// resolve on its own. Required.
	Callbacks Callbacks

	// PageTable enables the direct memory path. Optional.
	PageTable *PageTable

	// Coprocessors holds one implementation per coprocessor number.
	// A nil slot is an unimplemented coprocessor: the engine raises
	// an undefined-instruction trap when it is addressed.
	Coprocessors [16]Coprocessor
}

// Factory constructs an engine from a config. The bridge uses this to
// stay agnostic of the concrete translation core.
type Factory func(Config) (Engine, error)

// Engine is the contract the translation core exposes to the bridge.
//
// Engines are single-threaded: Run drives a synchronous loop that calls
// back into Config.Callbacks on the same goroutine, and no method may be
// called concurrently with another on the same instance.
type Engine interface {
	// Run executes until the engine is halted, the cycle budget reported
	// by the callbacks is exhausted, or ctx is cancelled. Cancellation is
	// observed cooperatively at internal safe points.
	Run(ctx context.Context) error

	// Halt requests a stop at the next safe point. It is meaningful only
	// from within a callback during an active Run.
	Halt()

	// Regs returns the live general register file. The reference is
	// invalidated by the next Run call.
	Regs() *[16]uint32

	// ExtRegs returns the live extended (VFP) register file. The
	// reference is invalidated by the next Run call.
	ExtRegs() *[64]uint32

	Cpsr() uint32
	SetCpsr(uint32)
	Fpscr() uint32
	SetFpscr(uint32)

	// ClearCache drops every translated block, forcing retranslation
	// (and hence fresh coprocessor compile queries) on the next Run.
	ClearCache()

	// Close releases the engine. No other method may be called after.
	Close() error
}

// Exception identifies a trap the engine raises during execution.
type Exception int

const (
	ExceptionUndefinedInstruction Exception = iota
	ExceptionUnpredictableInstruction
	ExceptionBreakpoint
)

func (e Exception) String() string {
	switch e {
	case ExceptionUndefinedInstruction:
		return "undefined instruction"
	case ExceptionUnpredictableInstruction:
		return "unpredictable instruction"
	case ExceptionBreakpoint:
		return "breakpoint"
	default:
		return "unknown exception"
	}
}
