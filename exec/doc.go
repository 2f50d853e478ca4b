// Package exec provides a batteries-included layer over the bridge: an
// Executor that owns a guest address space, routes memory callbacks to
// it, meters a cycle budget, and hands system-call traps to a pluggable
// handler.
//
// It is the shortest path from "bytes of ARM code" to "registers after
// running it":
//
//	e, _ := exec.New(exec.Config{Ticks: 100})
//	core := e.Core()
//	core.Map(0, 1, false)
//	core.Write32(0, 0xE1B00101) // movs r0, r1, lsl #2
//	core.Regs()[1] = 2
//	e.Run(ctx)
//
// Programs that need the full callback table, page-table control, or
// coprocessor wiring should use package bridge directly.
package exec
