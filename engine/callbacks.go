package engine

// Callbacks is the memory and trap contract the engine consumes. The
// bridge implements it by forwarding each operation to a slot in the
// caller's flat callback table.
//
// All methods are invoked as nested calls on the goroutine driving Run.
type Callbacks interface {
	// Memory accesses the engine could not resolve through the page
	// table. The address is passed through unmodified.
	MemoryRead8(addr uint32) uint8
	MemoryRead16(addr uint32) uint16
	MemoryRead32(addr uint32) uint32
	MemoryRead64(addr uint32) uint64

	MemoryWrite8(addr uint32, value uint8)
	MemoryWrite16(addr uint32, value uint16)
	MemoryWrite32(addr uint32, value uint32)
	MemoryWrite64(addr uint32, value uint64)

	// IsReadOnlyMemory is consulted before write-optimizing
	// transformations. Reporting false is always safe.
	IsReadOnlyMemory(addr uint32) bool

	// InterpreterFallback fires when the engine cannot translate the
	// instruction at pc and wants numInstructions interpreted instead.
	InterpreterFallback(pc uint32, numInstructions int)

	// CallSVC and ExceptionRaised are protocol messages, not errors.
	// Execution resumes after they return unless the handler halts.
	CallSVC(swi uint32)
	ExceptionRaised(pc uint32, exception Exception)

	// Cycle accounting. The engine adds ticks as it retires blocks and
	// stops once the remaining budget reaches zero.
	AddTicks(ticks uint64)
	GetTicksRemaining() uint64
}
