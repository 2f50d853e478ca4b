package bridge

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/emustack/armjit/coproc"
	"github.com/emustack/armjit/engine"
	"github.com/emustack/armjit/errors"
)

// guest is the user-data context the test tables close over.
type guest struct {
	mem   [4096]byte
	ticks uint64

	reads8  []uint32
	writes8 []struct{ addr, value uint32 }
	svcs    []uint32
	excs    []engine.Exception
}

func (g *guest) poke32(addr, v uint32) {
	binary.LittleEndian.PutUint32(g.mem[addr:], v)
}

// table builds a full callback table backed by the handle's user data.
func table() *CallbackTable {
	ctx := func(h *Handle) *guest { return h.UserData().(*guest) }
	return &CallbackTable{
		Read8: func(h *Handle, addr uint32) uint8 {
			g := ctx(h)
			g.reads8 = append(g.reads8, addr)
			return g.mem[addr]
		},
		Read16: func(h *Handle, addr uint32) uint16 {
			return binary.LittleEndian.Uint16(ctx(h).mem[addr:])
		},
		Read32: func(h *Handle, addr uint32) uint32 {
			return binary.LittleEndian.Uint32(ctx(h).mem[addr:])
		},
		Read64: func(h *Handle, addr uint32) uint64 {
			return binary.LittleEndian.Uint64(ctx(h).mem[addr:])
		},
		Write8: func(h *Handle, addr uint32, v uint8) {
			g := ctx(h)
			g.writes8 = append(g.writes8, struct{ addr, value uint32 }{addr, uint32(v)})
			g.mem[addr] = v
		},
		Write16: func(h *Handle, addr uint32, v uint16) {
			binary.LittleEndian.PutUint16(ctx(h).mem[addr:], v)
		},
		Write32: func(h *Handle, addr uint32, v uint32) {
			binary.LittleEndian.PutUint32(ctx(h).mem[addr:], v)
		},
		Write64: func(h *Handle, addr uint32, v uint64) {
			binary.LittleEndian.PutUint64(ctx(h).mem[addr:], v)
		},
		CallSVC: func(h *Handle, swi uint32) {
			ctx(h).svcs = append(ctx(h).svcs, swi)
		},
		ExceptionRaised: func(h *Handle, pc uint32, exc engine.Exception) {
			ctx(h).excs = append(ctx(h).excs, exc)
		},
		AddTicks: func(h *Handle, t uint64) {
			g := ctx(h)
			if t > g.ticks {
				g.ticks = 0
				return
			}
			g.ticks -= t
		},
		GetTicksRemaining: func(h *Handle) uint64 {
			return ctx(h).ticks
		},
	}
}

func TestNewRejectsNilTable(t *testing.T) {
	_, err := New(nil, nil, nil, nil)
	if err == nil {
		t.Fatal("expected an error for a nil callback table")
	}
}

func TestNewRejectsMissingRequiredSlot(t *testing.T) {
	tests := []struct {
		slot  string
		strip func(*CallbackTable)
	}{
		{"Read8", func(t *CallbackTable) { t.Read8 = nil }},
		{"Write64", func(t *CallbackTable) { t.Write64 = nil }},
		{"CallSVC", func(t *CallbackTable) { t.CallSVC = nil }},
		{"GetTicksRemaining", func(t *CallbackTable) { t.GetTicksRemaining = nil }},
	}

	for _, tt := range tests {
		t.Run(tt.slot, func(t *testing.T) {
			tbl := table()
			tt.strip(tbl)
			_, err := New(&guest{}, tbl, nil, nil)
			if err == nil {
				t.Fatal("expected an error for the missing slot")
			}
			want := &errors.Error{Phase: errors.PhaseCreate, Kind: errors.KindMissingCallback}
			if !want.Is(err.(*errors.Error)) {
				t.Errorf("got %v, want a missing_callback create error", err)
			}
		})
	}
}

func TestNewAllowsAbsentIsReadOnlyMemory(t *testing.T) {
	h, err := New(&guest{}, table(), nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer h.Close()
}

func TestNewRejectsShortPageTableEntry(t *testing.T) {
	pt := &engine.PageTable{}
	pt[3] = make([]byte, 100)

	_, err := New(&guest{}, table(), pt, nil)
	if err == nil {
		t.Fatal("expected an error for a short page backing")
	}
	want := &errors.Error{Phase: errors.PhaseCreate, Kind: errors.KindPageTable}
	if !want.Is(err.(*errors.Error)) {
		t.Errorf("got %v, want a page_table create error", err)
	}
}

func TestUserDataRoundTrip(t *testing.T) {
	g := &guest{}
	h, err := New(g, table(), nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer h.Close()

	if h.UserData() != g {
		t.Error("UserData() did not return the pointer supplied at creation")
	}
}

func TestRunStoresByteAndAdvancesPC(t *testing.T) {
	g := &guest{ticks: 1}
	g.poke32(0x0, 0xE5C10100) // strb r0, [r1, #0x100]
	g.poke32(0x4, 0xEAFFFFFE) // b .

	h, err := New(g, table(), nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer h.Close()

	regs := h.Regs()
	regs[0] = 0x42
	regs[1] = 0
	regs[15] = 0

	if err := h.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if len(g.writes8) != 1 {
		t.Fatalf("Write8 dispatched %d times, want exactly 1", len(g.writes8))
	}
	if w := g.writes8[0]; w.addr != 0x100 || w.value != 0x42 {
		t.Errorf("Write8(%#x, %#x), want Write8(0x100, 0x42)", w.addr, w.value)
	}
	if pc := h.Regs()[15]; pc != 0x4 {
		t.Errorf("post-run PC = %#x, want 0x4", pc)
	}
}

func TestUncoveredReadDispatchesOnceUnmodified(t *testing.T) {
	g := &guest{ticks: 1}
	g.poke32(0x0, 0xE5D12050) // ldrb r2, [r1, #0x50]
	g.poke32(0x4, 0xEAFFFFFE) // b .
	g.mem[0x50] = 0x7E

	h, err := New(g, table(), nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer h.Close()

	if err := h.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(g.reads8) != 1 || g.reads8[0] != 0x50 {
		t.Fatalf("Read8 calls = %v, want exactly [0x50]", g.reads8)
	}
	if r2 := h.Regs()[2]; r2 != 0x7E {
		t.Errorf("r2 = %#x, want the callback result 0x7E", r2)
	}
}

func TestInterpreterFallbackIsFatal(t *testing.T) {
	g := &guest{ticks: 10}
	h, err := New(g, table(), nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer h.Close()

	h.SetCpsr(1 << 5) // Thumb state: the reference core cannot translate it

	err = h.Run(context.Background())
	if err == nil {
		t.Fatal("expected Run to surface the interpreter fallback as an error")
	}
	want := &errors.Error{Phase: errors.PhaseRun, Kind: errors.KindUnsupported}
	if !want.Is(err.(*errors.Error)) {
		t.Errorf("got %v, want an unsupported run error", err)
	}
}

func TestIsReadOnlyMemoryAbsentReportsFalse(t *testing.T) {
	d := &dispatcher{h: &Handle{}, table: *table()}
	for _, addr := range []uint32{0, 0x1000, 0xFFFFFFFF} {
		if d.IsReadOnlyMemory(addr) {
			t.Errorf("IsReadOnlyMemory(%#x) = true with the slot absent, want false", addr)
		}
	}
}

func TestIsReadOnlyMemoryPresentIsForwarded(t *testing.T) {
	tbl := table()
	var seen []uint32
	tbl.IsReadOnlyMemory = func(h *Handle, addr uint32) bool {
		seen = append(seen, addr)
		return addr >= 0x2000
	}
	d := &dispatcher{h: &Handle{}, table: *tbl}

	if d.IsReadOnlyMemory(0x1000) {
		t.Error("IsReadOnlyMemory(0x1000) = true, want the slot's answer false")
	}
	if !d.IsReadOnlyMemory(0x2000) {
		t.Error("IsReadOnlyMemory(0x2000) = false, want the slot's answer true")
	}
	if len(seen) != 2 {
		t.Errorf("slot invoked %d times, want 2", len(seen))
	}
}

func TestCloseFiresDestroyHooksExactlyOnce(t *testing.T) {
	type slotData struct{ id int }
	data3 := &slotData{id: 3}
	data15 := &slotData{id: 15}

	destroys := map[int][]any{}
	mk := func(id int, data *slotData) *coproc.Table {
		return &coproc.Table{
			Data: data,
			Destroy: func(d any) {
				destroys[id] = append(destroys[id], d)
			},
		}
	}

	var coprocs [16]*coproc.Table
	coprocs[3] = mk(3, data3)
	coprocs[15] = mk(15, data15)

	h, err := New(&guest{}, table(), nil, &coprocs)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := h.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := h.Close(); err == nil {
		t.Error("second Close should report the handle uninitialized")
	}

	if len(destroys[3]) != 1 || destroys[3][0] != data3 {
		t.Errorf("slot 3 destroy calls = %v, want exactly one with its own data", destroys[3])
	}
	if len(destroys[15]) != 1 || destroys[15][0] != data15 {
		t.Errorf("slot 15 destroy calls = %v, want exactly one with its own data", destroys[15])
	}
}

func TestRunAfterCloseFails(t *testing.T) {
	h, err := New(&guest{}, table(), nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := h.Run(context.Background()); err == nil {
		t.Error("Run on a closed handle should fail")
	}
}

func TestHaltFromCallbackStopsRun(t *testing.T) {
	g := &guest{ticks: 1000}
	g.poke32(0x0, 0xEF00002A) // svc #42
	g.poke32(0x4, 0xEAFFFFFE) // b .

	tbl := table()
	base := tbl.CallSVC
	tbl.CallSVC = func(h *Handle, swi uint32) {
		base(h, swi)
		h.Halt()
	}

	h, err := New(g, tbl, nil, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer h.Close()

	if err := h.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(g.svcs) != 1 || g.svcs[0] != 42 {
		t.Errorf("svcs = %v, want exactly [42]", g.svcs)
	}
	if g.ticks == 0 {
		t.Error("halt should have stopped the run before the budget drained")
	}
}

func TestCoprocessorLoadWordsViaBridge(t *testing.T) {
	g := &guest{ticks: 8}
	g.poke32(0x0, 0xED905F00) // ldc p15, c5, [r0]
	g.poke32(0x4, 0xEAFFFFFD) // b 0x0

	type cpCtx struct{ fired int }
	cpData := &cpCtx{}
	var compiles int

	var coprocs [16]*coproc.Table
	coprocs[15] = &coproc.Table{
		Data: cpData,
		CompileLoadWords: func(data any, two bool, long bool, crd engine.Reg, option engine.Option[uint8]) engine.Option[engine.Callback] {
			compiles++
			if long {
				t.Error("long_transfer = true, want false")
			}
			if crd != engine.C5 {
				t.Errorf("CRd = %v, want C5", crd)
			}
			return engine.Some(engine.Callback{
				Fn: func(e engine.Engine, d any, a0, a1 uint32) uint64 {
					d.(*cpCtx).fired++
					return 0
				},
				Data: data,
			})
		},
	}

	h, err := New(g, table(), nil, &coprocs)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer h.Close()

	if err := h.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if compiles != 1 {
		t.Errorf("CompileLoadWords ran %d times across repeated block execution, want 1", compiles)
	}
	if cpData.fired < 2 {
		t.Errorf("execution callback fired %d times, want once per block pass", cpData.fired)
	}

	h.ClearCache()
	g.ticks = 2
	h.Regs()[15] = 0
	if err := h.Run(context.Background()); err != nil {
		t.Fatalf("Run after ClearCache: %v", err)
	}
	if compiles != 2 {
		t.Errorf("CompileLoadWords ran %d times after ClearCache, want 2", compiles)
	}
}
