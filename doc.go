// Package armjit provides a Go boundary layer for an ARM32
// dynamic-translation CPU core.
//
// The library marshals guest memory, system-call and coprocessor
// traffic between an execution engine and host-side handlers through a
// flat callback table, and manages the lifecycle of the engine objects
// that carry it.
//
// # Architecture Overview
//
// The library is organized into several packages with distinct
// responsibilities:
//
//	armjit/              Root package (documentation only)
//	├── exec/            High-level executor: address space, SVC handler, tick budget
//	├── bridge/          Callback table, handle lifecycle, coprocessor installation
//	├── coproc/          Function-table coprocessors adapted onto the engine interface
//	├── engine/          Engine contract: callbacks, page table, tagged results
//	├── memory/          Span-based guest address space with MMIO routing
//	├── errors/          Structured error types for debugging
//	└── internal/
//	    └── interp/      Reference block-translating interpreter core
//
// # Quick Start
//
// Run a bare-metal image with the batteries-included layer:
//
//	e, err := exec.New(exec.Config{Ticks: 1000})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer e.Close()
//
//	core := e.Core()
//	core.Map(0, 1, false)
//	core.Write32(0, 0xE1B00101) // movs r0, r1, lsl #2
//	core.Regs()[1] = 2
//
//	err = e.Run(ctx)
//	fmt.Println(core.Regs()[0]) // 8
//
// Programs that bring their own memory system or need coprocessor
// hooks build a bridge.CallbackTable and call bridge.New directly; the
// exec package is a thin convenience over that path.
//
// # Engine Plugging
//
// The translation core behind a handle satisfies engine.Engine and is
// produced by an engine.Factory. The in-tree interpreter is the
// default; an alternative core (a real recompiler, an instrumented
// build) is swapped in with bridge.WithEngine without touching the
// callback wiring.
package armjit
