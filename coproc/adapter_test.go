package coproc

import (
	"testing"

	"github.com/emustack/armjit/engine"
)

func TestNilHooksAnswerUnimplemented(t *testing.T) {
	a := New(&Table{})

	if a.CompileInternalOperation(false, 0, engine.C0, engine.C0, engine.C0, 0).IsSome() {
		t.Error("nil CompileInternalOperation hook should answer None")
	}
	if a.CompileSendOneWord(false, 0, engine.C0, engine.C0, 0).Tag() != engine.TagNone {
		t.Error("nil CompileSendOneWord hook should answer TagNone")
	}
	if a.CompileSendTwoWords(false, 0, engine.C0).Tag() != engine.TagNone {
		t.Error("nil CompileSendTwoWords hook should answer TagNone")
	}
	if a.CompileGetOneWord(false, 0, engine.C0, engine.C0, 0).Tag() != engine.TagNone {
		t.Error("nil CompileGetOneWord hook should answer TagNone")
	}
	if a.CompileGetTwoWords(false, 0, engine.C0).Tag() != engine.TagNone {
		t.Error("nil CompileGetTwoWords hook should answer TagNone")
	}
	if a.CompileLoadWords(false, false, engine.C0, engine.None[uint8]()).IsSome() {
		t.Error("nil CompileLoadWords hook should answer None")
	}
	if a.CompileStoreWords(false, false, engine.C0, engine.None[uint8]()).IsSome() {
		t.Error("nil CompileStoreWords hook should answer None")
	}
}

func TestHooksReceiveOpaqueData(t *testing.T) {
	type ctx struct{ name string }
	data := &ctx{name: "slot15"}

	var seen any
	a := New(&Table{
		Data: data,
		CompileGetOneWord: func(d any, two bool, opc1 uint32, crn, crm engine.Reg, opc2 uint32) engine.OneWordResult {
			seen = d
			return engine.NoResult[*uint32]()
		},
	})

	a.CompileGetOneWord(true, 1, engine.C2, engine.C3, 4)
	if seen != data {
		t.Errorf("hook received %v, want the table's Data pointer", seen)
	}
}

func TestDestroyFiresExactlyOnceWithOriginalData(t *testing.T) {
	data := new(int)
	var calls int
	var got any

	a := New(&Table{
		Data: data,
		Destroy: func(d any) {
			calls++
			got = d
		},
	})

	a.Destroy()
	a.Destroy()
	a.Destroy()

	if calls != 1 {
		t.Errorf("destroy hook fired %d times, want 1", calls)
	}
	if got != data {
		t.Error("destroy hook received wrong opaque data")
	}
}

func TestDestroyWithoutHookIsNoop(t *testing.T) {
	a := New(&Table{})
	a.Destroy()
	a.Destroy()
}

func TestInvalidTagPanics(t *testing.T) {
	a := New(&Table{
		CompileSendOneWord: func(d any, two bool, opc1 uint32, crn, crm engine.Reg, opc2 uint32) engine.OneWordResult {
			var zero engine.OneWordResult
			return zero
		},
	})

	defer func() {
		if recover() == nil {
			t.Error("expected panic on a zero-value result tag")
		}
	}()
	a.CompileSendOneWord(false, 0, engine.C0, engine.C0, 0)
}

func TestResultsForwardedUnchanged(t *testing.T) {
	var lo, hi uint32
	cb := engine.Callback{Fn: func(e engine.Engine, data any, a0, a1 uint32) uint64 { return 0 }, Data: "d"}

	a := New(&Table{
		CompileInternalOperation: func(d any, two bool, opc1 uint32, crd, crn, crm engine.Reg, opc2 uint32) engine.Option[engine.Callback] {
			return engine.Some(cb)
		},
		CompileGetTwoWords: func(d any, two bool, opc uint32, crm engine.Reg) engine.TwoWordsResult {
			return engine.AccessResult([2]*uint32{&lo, &hi})
		},
	})

	got, ok := a.CompileInternalOperation(false, 0, engine.C0, engine.C0, engine.C0, 0).Get()
	if !ok || got.Data != "d" {
		t.Error("callback result not forwarded intact")
	}

	pair, ok := a.CompileGetTwoWords(false, 0, engine.C0).Access()
	if !ok || pair[0] != &lo || pair[1] != &hi {
		t.Error("access result not forwarded intact")
	}
}
