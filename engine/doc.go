// Package engine defines the contract between the bridge and a dynamic
// translation core: the Engine interface itself, the Callbacks interface
// the core drives for memory and traps, the Coprocessor compile-query
// contract, and the tagged result primitives (Option, Callback,
// CallbackOrAccess) that cross the boundary without relying on panics or
// nil conventions.
//
// The core behind the Engine interface is treated as an opaque,
// correct oracle for instruction semantics. This module ships one
// reference implementation (internal/interp), selected by default when
// constructing a bridge.Handle; any other core can be plugged in
// through a Factory.
package engine
