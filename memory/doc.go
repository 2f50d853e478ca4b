// Package memory implements a span-based guest address space: sparse
// page-aligned RAM and memory-mapped IO regions over the 32-bit range.
// It backs the exec package's callback tables and can expose its RAM
// spans to the engine's direct page-table path.
package memory
