package coproc

import (
	"fmt"

	"github.com/emustack/armjit/engine"
)

// Adapter wraps one Table as an engine.Coprocessor. It owns the table's
// teardown: Destroy fires the table's destroy hook exactly once.
type Adapter struct {
	table     Table
	destroyed bool
}

// New builds an adapter around table. The table is copied; the caller's
// value may be discarded afterward. Data and any targets returned from
// Access results are borrowed and must stay valid until Destroy.
func New(table *Table) *Adapter {
	return &Adapter{table: *table}
}

// Destroy fires the table's destroy hook with the original opaque data.
// Safe to call more than once; the hook runs only the first time.
func (a *Adapter) Destroy() {
	if a.destroyed {
		return
	}
	a.destroyed = true
	if a.table.Destroy != nil {
		a.table.Destroy(a.table.Data)
	}
}

// checkTag enforces the boundary contract: every CallbackOrAccess value
// must carry exactly one of the three defined tags. The results reach
// the engine's code generator, so an undefined tag cannot be mapped to
// any behavior; it is a caller bug and the bridge refuses to guess.
func checkTag[T any](op string, r engine.CallbackOrAccess[T]) engine.CallbackOrAccess[T] {
	if !r.Valid() {
		panic(fmt.Sprintf("coproc: %s returned a result with an invalid tag; construct results with NoResult, CallbackResult or AccessResult", op))
	}
	return r
}

func (a *Adapter) CompileInternalOperation(two bool, opc1 uint32, crd, crn, crm engine.Reg, opc2 uint32) engine.Option[engine.Callback] {
	if a.table.CompileInternalOperation == nil {
		return engine.None[engine.Callback]()
	}
	return a.table.CompileInternalOperation(a.table.Data, two, opc1, crd, crn, crm, opc2)
}

func (a *Adapter) CompileSendOneWord(two bool, opc1 uint32, crn, crm engine.Reg, opc2 uint32) engine.OneWordResult {
	if a.table.CompileSendOneWord == nil {
		return engine.NoResult[*uint32]()
	}
	return checkTag("CompileSendOneWord", a.table.CompileSendOneWord(a.table.Data, two, opc1, crn, crm, opc2))
}

func (a *Adapter) CompileSendTwoWords(two bool, opc uint32, crm engine.Reg) engine.TwoWordsResult {
	if a.table.CompileSendTwoWords == nil {
		return engine.NoResult[[2]*uint32]()
	}
	return checkTag("CompileSendTwoWords", a.table.CompileSendTwoWords(a.table.Data, two, opc, crm))
}

func (a *Adapter) CompileGetOneWord(two bool, opc1 uint32, crn, crm engine.Reg, opc2 uint32) engine.OneWordResult {
	if a.table.CompileGetOneWord == nil {
		return engine.NoResult[*uint32]()
	}
	return checkTag("CompileGetOneWord", a.table.CompileGetOneWord(a.table.Data, two, opc1, crn, crm, opc2))
}

func (a *Adapter) CompileGetTwoWords(two bool, opc uint32, crm engine.Reg) engine.TwoWordsResult {
	if a.table.CompileGetTwoWords == nil {
		return engine.NoResult[[2]*uint32]()
	}
	return checkTag("CompileGetTwoWords", a.table.CompileGetTwoWords(a.table.Data, two, opc, crm))
}

func (a *Adapter) CompileLoadWords(two bool, longTransfer bool, crd engine.Reg, option engine.Option[uint8]) engine.Option[engine.Callback] {
	if a.table.CompileLoadWords == nil {
		return engine.None[engine.Callback]()
	}
	return a.table.CompileLoadWords(a.table.Data, two, longTransfer, crd, option)
}

func (a *Adapter) CompileStoreWords(two bool, longTransfer bool, crd engine.Reg, option engine.Option[uint8]) engine.Option[engine.Callback] {
	if a.table.CompileStoreWords == nil {
		return engine.None[engine.Callback]()
	}
	return a.table.CompileStoreWords(a.table.Data, two, longTransfer, crd, option)
}
