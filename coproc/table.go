package coproc

import "github.com/emustack/armjit/engine"

// Table is the flat per-slot callback set a caller supplies for one
// coprocessor number. Every compile hook receives Data as its first
// argument, mirroring the opaque self pointer of a C table.
//
// A nil compile hook means the corresponding instruction category is
// unimplemented: the adapter answers every query for it with the empty
// result and the engine raises its usual translation-time trap.
type Table struct {
	// Data is the caller-owned opaque value threaded through every hook
	// and handed back to Destroy at teardown.
	Data any

	CompileInternalOperation func(data any, two bool, opc1 uint32, crd, crn, crm engine.Reg, opc2 uint32) engine.Option[engine.Callback]
	CompileSendOneWord       func(data any, two bool, opc1 uint32, crn, crm engine.Reg, opc2 uint32) engine.OneWordResult
	CompileSendTwoWords      func(data any, two bool, opc uint32, crm engine.Reg) engine.TwoWordsResult
	CompileGetOneWord        func(data any, two bool, opc1 uint32, crn, crm engine.Reg, opc2 uint32) engine.OneWordResult
	CompileGetTwoWords       func(data any, two bool, opc uint32, crm engine.Reg) engine.TwoWordsResult
	CompileLoadWords         func(data any, two bool, longTransfer bool, crd engine.Reg, option engine.Option[uint8]) engine.Option[engine.Callback]
	CompileStoreWords        func(data any, two bool, longTransfer bool, crd engine.Reg, option engine.Option[uint8]) engine.Option[engine.Callback]

	// Destroy fires exactly once, at handle teardown, with Data.
	// Optional.
	Destroy func(data any)
}
