// Package coproc adapts flat per-slot coprocessor callback tables to
// the engine's Coprocessor contract.
//
// Up to 16 coprocessor numbers can be installed on a bridge handle,
// each backed by one Table. The engine issues six categories of
// compile-time queries while translating coprocessor instructions; each
// query answers with one of three mutually exclusive shapes:
// unimplemented, a deferred execution-time callback, or a direct word
// access target. Results are baked into generated code, so hooks must
// be deterministic per operand tuple and any Access target must remain
// valid for the slot's installed lifetime.
package coproc
