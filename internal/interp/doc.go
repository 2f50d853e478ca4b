// Package interp is the reference translation core behind the default
// bridge handle. It reproduces the observable contract of a
// block-caching dynamic translator over a small A32 subset:
// data-processing MOV/ADD/SUB, immediate-offset LDR/STR/LDRB/STRB, B/BL,
// SVC, and the full coprocessor instruction space (CDP, MCR/MRC,
// MCRR/MRRC, LDC/STC, plus their two-variants). Everything else raises
// the undefined-instruction trap through the callbacks; Thumb state
// routes to the interpreter fallback.
//
// Instruction semantics outside this subset are explicitly not a goal.
// The package exists so the boundary layer above it can be exercised
// end to end: block caching makes compile-time coprocessor queries
// observable as translate-once events, and the page table, tick
// accounting, and halt semantics all behave as the engine contract
// specifies.
package interp
