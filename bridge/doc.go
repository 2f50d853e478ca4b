// Package bridge exposes a dynamic-translation CPU core through a flat,
// table-based surface: a caller builds a CallbackTable, optionally a
// page table and up to 16 coprocessor tables, and creates a Handle.
// Run drives the core, which calls synchronously back into the tables
// for every memory access, trap, and cycle-accounting event; when it
// halts the caller inspects register and status state through the
// handle's accessors.
//
//	h, err := bridge.New(myCtx, &bridge.CallbackTable{ ... }, nil, nil)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer h.Close()
//
//	h.Regs()[15] = entryPoint
//	if err := h.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
//
// Handles are not safe for concurrent use; see Handle.
package bridge
