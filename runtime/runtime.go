// Package runtime provides the high-level harness API: initialize once with
// a package and a handler specifier, then invoke the bound entry point any
// number of times.
package runtime

import (
	"context"
	"os"

	"go.uber.org/zap"

	"github.com/faasline/harness"
	"github.com/faasline/harness/engine/js"
	"github.com/faasline/harness/engine/wasm"
	"github.com/faasline/harness/entrypoint"
	"github.com/faasline/harness/errors"
	"github.com/faasline/harness/protocol"
	"github.com/faasline/harness/stage"
)

// State is the harness lifecycle state.
type State int

const (
	// StateUninitialized is the initial state; no callable is bound.
	StateUninitialized State = iota
	// StateBound is terminal for the process lifetime; Run may be called
	// any number of times from here.
	StateBound
	// StateFailed marks a failed initialization; the instance is unusable
	// and the embedder is expected to discard it.
	StateFailed
)

// Harness holds exactly one bound callable for its entire lifetime.
//
// Harness performs no internal queueing or mutual exclusion: the embedder
// serializes Run calls, one result envelope produced before the next call
// begins. Overlapping calls are out of contract.
type Harness struct {
	log      *zap.Logger
	stager   *stage.Stager
	js       *js.Engine
	wasm     *wasm.Engine
	callable harness.Callable
	state    State
}

// Option configures a Harness.
type Option func(*Harness)

// WithLogger sets the harness logger. The default is a no-op logger.
func WithLogger(log *zap.Logger) Option {
	return func(h *Harness) { h.log = log }
}

// WithStager overrides the archive stager.
func WithStager(s *stage.Stager) Option {
	return func(h *Harness) { h.stager = s }
}

// New creates an uninitialized Harness.
func New(opts ...Option) *Harness {
	h := &Harness{log: zap.NewNop()}
	for _, opt := range opts {
		opt(h)
	}
	if h.stager == nil {
		h.stager = stage.New(stage.WithLogger(h.log))
	}
	return h
}

// State returns the lifecycle state.
func (h *Harness) State() State {
	return h.state
}

// Init consumes the package exactly once and binds the entry point. A failed
// initialization is terminal: the instance accepts no invocations and no
// further Init attempts.
func (h *Harness) Init(ctx context.Context, msg protocol.InitMessage) error {
	if h.state != StateUninitialized {
		return errors.AlreadyInitialized()
	}

	callable, err := h.bind(ctx, msg)
	if err != nil {
		h.state = StateFailed
		h.log.Error("initialization failed", zap.String("handler", msg.Main), zap.Error(err))
		return err
	}

	h.callable = callable
	h.state = StateBound
	h.log.Info("entry point bound",
		zap.String("handler", msg.Main),
		zap.Bool("binary", msg.Binary))
	return nil
}

func (h *Harness) bind(ctx context.Context, msg protocol.InitMessage) (harness.Callable, error) {
	if !msg.Binary {
		// Inline path: the specifier as a whole names the symbol; no
		// module locator applies.
		h.js = js.NewEngine(js.WithLogger(h.log))
		return h.js.BindSource(msg.Code, msg.Main, msg.Main)
	}

	dir, err := h.stager.Stage(ctx, msg.Code)
	if err != nil {
		return nil, err
	}
	ep, err := entrypoint.Parse(msg.Main)
	if err != nil {
		return nil, err
	}
	ref, err := ep.ResolveModule(dir)
	if err != nil {
		return nil, err
	}

	if path, ok := wasmModule(ref, ep); ok {
		h.wasm = wasm.NewEngine(ctx, wasm.WithLogger(h.log))
		return h.wasm.Bind(ctx, path, ep.Symbol, msg.Main)
	}
	h.js = js.NewEngine(js.WithLogger(h.log))
	return h.js.BindModule(ref, ep.Symbol, msg.Main)
}

// wasmModule reports whether the module locator names a compiled module.
func wasmModule(ref string, ep entrypoint.EntryPoint) (string, bool) {
	if !ep.HasModule() {
		return "", false
	}
	path := ref + ".wasm"
	if _, err := os.Stat(path); err != nil {
		return "", false
	}
	return path, true
}

// Run invokes the bound callable with input as its sole argument and returns
// the normalized result envelope. The returned error is non-nil only for
// protocol misuse (no callable bound); faults raised by the callable are
// always folded into the envelope, never propagated.
func (h *Harness) Run(ctx context.Context, input any) (any, error) {
	if h.state != StateBound {
		return nil, errors.NotInitialized()
	}

	outcome := h.callable.Invoke(ctx, input)
	envelope := Normalize(outcome)
	if outcome.Faulted {
		h.log.Debug("invocation faulted", zap.Any("fault", outcome.Fault))
	}
	return envelope, nil
}

// Close releases engine resources. It does not reclaim staged directories.
func (h *Harness) Close(ctx context.Context) error {
	if h.js != nil {
		_ = h.js.Close()
	}
	if h.wasm != nil {
		return h.wasm.Close(ctx)
	}
	return nil
}
