package bridge

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/emustack/armjit/coproc"
	"github.com/emustack/armjit/engine"
	"github.com/emustack/armjit/errors"
	"github.com/emustack/armjit/internal/interp"
)

// Handle owns one engine instance plus the caller's opaque user data.
// Everything else it touches (the page table, the callback table's
// closures, coprocessor table data) is borrowed from the caller and
// must outlive the handle.
//
// A handle is single-threaded: Run drives a synchronous, re-entrant
// call stack into the table's callbacks, and concurrent calls from
// multiple goroutines must be serialized externally.
type Handle struct {
	engine   engine.Engine
	userData any
	adapters [16]*coproc.Adapter
	closed   bool

	// Set by the dispatcher when the interpreter fallback fires.
	runErr error
}

// Option configures handle construction.
type Option func(*options)

type options struct {
	factory engine.Factory
}

// WithEngine swaps the translation core behind the handle. The default
// is the module's reference core.
func WithEngine(f engine.Factory) Option {
	return func(o *options) { o.factory = f }
}

// New builds a handle: the callback table is copied into an internal
// dispatcher, the page table is installed by reference, and one adapter
// is constructed per non-nil coprocessor table. A nil coprocessor slot
// means "unimplemented"; the engine raises the corresponding trap when
// that coprocessor is addressed.
//
// All statically checkable table preconditions are validated here
// rather than at first use.
func New(userData any, table *CallbackTable, pages *engine.PageTable, coprocs *[16]*coproc.Table, opts ...Option) (*Handle, error) {
	if table == nil {
		return nil, errors.InvalidInput(errors.PhaseCreate, "callback table is required")
	}
	if slot := table.missingSlot(); slot != "" {
		return nil, errors.MissingCallback(errors.PhaseCreate, slot)
	}
	if pages != nil {
		for page, backing := range pages {
			if backing != nil && len(backing) != engine.PageSize {
				return nil, errors.PageTable(errors.PhaseCreate, uint32(page), len(backing))
			}
		}
	}

	o := options{factory: interp.New}
	for _, opt := range opts {
		opt(&o)
	}

	h := &Handle{userData: userData}

	cfg := engine.Config{
		Callbacks: &dispatcher{h: h, table: *table},
		PageTable: pages,
	}
	if coprocs != nil {
		for i, t := range coprocs {
			if t == nil {
				continue
			}
			h.adapters[i] = coproc.New(t)
			cfg.Coprocessors[i] = h.adapters[i]
		}
	}

	eng, err := o.factory(cfg)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseCreate, errors.KindInvalidInput, err, "construct engine")
	}
	h.engine = eng

	engine.Logger().Debug("handle created",
		zap.Bool("page_table", pages != nil),
		zap.Int("coprocessors", countInstalled(coprocs)))
	return h, nil
}

func countInstalled(coprocs *[16]*coproc.Table) int {
	if coprocs == nil {
		return 0
	}
	n := 0
	for _, t := range coprocs {
		if t != nil {
			n++
		}
	}
	return n
}

// UserData returns the opaque pointer supplied at creation.
func (h *Handle) UserData() any {
	return h.userData
}

// Run drives the engine's translate-and-execute loop until it halts:
// explicitly via Halt, through an unrecoverable trap, or because the
// cycle budget reported by the tick callbacks is exhausted. Every
// callback runs nested on the calling goroutine.
func (h *Handle) Run(ctx context.Context) error {
	if h.closed {
		return errors.NotInitialized(errors.PhaseRun, "handle")
	}
	h.runErr = nil
	if err := h.engine.Run(ctx); err != nil {
		return err
	}
	return h.runErr
}

// Halt requests a stop at the next safe point. Meaningful only from
// within a callback during an active Run; cooperative, not preemptive.
func (h *Handle) Halt() {
	h.engine.Halt()
}

// failRun records the interpreter-fallback error and halts.
func (h *Handle) failRun(pc uint32, numInstructions int) {
	engine.Logger().Debug("interpreter fallback",
		zap.Uint32("pc", pc), zap.Int("instructions", numInstructions))
	h.runErr = errors.Unsupported(errors.PhaseRun,
		fmt.Sprintf("interpreter fallback at %#x (%d instructions); no handler is wired", pc, numInstructions))
	h.engine.Halt()
}

// Regs returns the engine's live general register file. Treat the
// reference as invalidated after every subsequent Run call.
func (h *Handle) Regs() *[16]uint32 {
	return h.engine.Regs()
}

// ExtRegs returns the engine's live extended register file, with the
// same lifetime caveat as Regs.
func (h *Handle) ExtRegs() *[64]uint32 {
	return h.engine.ExtRegs()
}

func (h *Handle) Cpsr() uint32      { return h.engine.Cpsr() }
func (h *Handle) SetCpsr(v uint32)  { h.engine.SetCpsr(v) }
func (h *Handle) Fpscr() uint32     { return h.engine.Fpscr() }
func (h *Handle) SetFpscr(v uint32) { h.engine.SetFpscr(v) }

// ClearCache invalidates every translated block, forcing fresh
// coprocessor compile queries on the next Run.
func (h *Handle) ClearCache() {
	h.engine.ClearCache()
}

// Close releases the engine and transitively drops every installed
// coprocessor adapter, invoking each destroy hook exactly once with its
// original opaque data. Closing twice is an error, but never re-fires
// the hooks.
func (h *Handle) Close() error {
	if h.closed {
		return errors.NotInitialized(errors.PhaseTeardown, "handle")
	}
	h.closed = true
	for _, a := range h.adapters {
		if a != nil {
			a.Destroy()
		}
	}
	err := h.engine.Close()
	engine.Logger().Debug("handle closed", zap.Error(err))
	return err
}
