package engine

// Reg names a coprocessor register C0..C15.
type Reg uint8

const (
	C0 Reg = iota
	C1
	C2
	C3
	C4
	C5
	C6
	C7
	C8
	C9
	C10
	C11
	C12
	C13
	C14
	C15
)

// CallbackFunc is an execution-time coprocessor handler. It receives the
// engine, the opaque data captured at compile time, and two packed
// operand words whose meaning depends on the instruction category.
type CallbackFunc func(e Engine, data any, arg0, arg1 uint32) uint64

// Callback pairs a handler with the opaque data it is invoked with.
type Callback struct {
	Fn   CallbackFunc
	Data any
}

// Option is an explicit nullable value crossing the boundary.
// The zero value is None.
type Option[T any] struct {
	value   T
	present bool
}

// Some returns an Option holding v.
func Some[T any](v T) Option[T] {
	return Option[T]{value: v, present: true}
}

// None returns the empty Option.
func None[T any]() Option[T] {
	return Option[T]{}
}

// Get returns the value and whether it is present.
func (o Option[T]) Get() (T, bool) {
	return o.value, o.present
}

// IsSome reports whether a value is present.
func (o Option[T]) IsSome() bool {
	return o.present
}

// Tag discriminates the three shapes a compile query result can take.
//
// The zero value is deliberately not a defined tag: a result built any
// way other than through NoResult, CallbackResult or AccessResult is a
// boundary-contract violation, and the bridge refuses to interpret it.
type Tag uint8

const (
	TagNone Tag = iota + 1
	TagCallback
	TagAccess
)

// CallbackOrAccess is the three-way result of a coprocessor compile
// query: unimplemented (None), a deferred execution-time handler
// (Callback), or a direct memory access target (Access).
type CallbackOrAccess[T any] struct {
	access T
	cb     Callback
	tag    Tag
}

// NoResult marks the queried operation unimplemented; the engine raises
// its standard translation-time trap.
func NoResult[T any]() CallbackOrAccess[T] {
	return CallbackOrAccess[T]{tag: TagNone}
}

// CallbackResult defers the operation to an execution-time handler.
func CallbackResult[T any](cb Callback) CallbackOrAccess[T] {
	return CallbackOrAccess[T]{tag: TagCallback, cb: cb}
}

// AccessResult lets the engine read or write through target directly
// instead of invoking code. The target must remain valid for as long as
// the engine may re-execute code referencing it: in practice, for the
// coprocessor slot's entire installed lifetime.
func AccessResult[T any](target T) CallbackOrAccess[T] {
	return CallbackOrAccess[T]{tag: TagAccess, access: target}
}

// Tag returns the active tag. Valid reports whether it is one of the
// three defined tags.
func (r CallbackOrAccess[T]) Tag() Tag { return r.tag }

func (r CallbackOrAccess[T]) Valid() bool {
	return r.tag == TagNone || r.tag == TagCallback || r.tag == TagAccess
}

// Callback returns the handler when the tag is TagCallback.
func (r CallbackOrAccess[T]) Callback() (Callback, bool) {
	return r.cb, r.tag == TagCallback
}

// Access returns the access target when the tag is TagAccess.
func (r CallbackOrAccess[T]) Access() (T, bool) {
	return r.access, r.tag == TagAccess
}

// Result payloads: a single word target, or a pair written as one unit.
type (
	OneWordResult  = CallbackOrAccess[*uint32]
	TwoWordsResult = CallbackOrAccess[[2]*uint32]
)

// Coprocessor is the contract an installed coprocessor implements.
//
// Every method is a compile-time query: it runs while the engine
// translates a coprocessor instruction, and its result is baked into the
// generated code. Implementations must therefore be deterministic per
// operand tuple; the engine will not re-query until its translation
// cache is invalidated.
type Coprocessor interface {
	// CompileInternalOperation handles CDP/CDP2.
	CompileInternalOperation(two bool, opc1 uint32, crd, crn, crm Reg, opc2 uint32) Option[Callback]

	// CompileSendOneWord handles MCR/MCR2: one word moves from the core
	// to the coprocessor. An Access target receives the word directly.
	CompileSendOneWord(two bool, opc1 uint32, crn, crm Reg, opc2 uint32) OneWordResult

	// CompileSendTwoWords handles MCRR/MCRR2.
	CompileSendTwoWords(two bool, opc uint32, crm Reg) TwoWordsResult

	// CompileGetOneWord handles MRC/MRC2: one word moves from the
	// coprocessor to the core.
	CompileGetOneWord(two bool, opc1 uint32, crn, crm Reg, opc2 uint32) OneWordResult

	// CompileGetTwoWords handles MRRC/MRRC2.
	CompileGetTwoWords(two bool, opc uint32, crm Reg) TwoWordsResult

	// CompileLoadWords and CompileStoreWords handle LDC/STC block
	// transfers. option carries the immediate of the unindexed
	// addressing form when present.
	CompileLoadWords(two bool, longTransfer bool, crd Reg, option Option[uint8]) Option[Callback]
	CompileStoreWords(two bool, longTransfer bool, crd Reg, option Option[uint8]) Option[Callback]
}
