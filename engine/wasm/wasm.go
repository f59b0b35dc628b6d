// Package wasm implements the WebAssembly callable engine.
//
// A wasm callable exchanges JSON through guest memory: the input value is
// marshaled, written at an address obtained from the guest's exported
// allocate function and passed as (ptr, len); the call returns a packed
// ptr/len pointing at the JSON result. Traps and convention violations are
// captured as faults, never surfaced as Go errors. Pending values do not
// exist in this engine; every outcome is immediate.
package wasm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
	"go.uber.org/zap"

	"github.com/faasline/harness"
	"github.com/faasline/harness/errors"
)

const allocateExport = "allocate"

// Engine instantiates compiled modules and binds exported functions.
type Engine struct {
	runtime wazero.Runtime
	log     *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// NewEngine creates an engine with WASI preview1 host support instantiated,
// so guests compiled against WASI link cleanly.
func NewEngine(ctx context.Context, opts ...Option) *Engine {
	e := &Engine{runtime: wazero.NewRuntime(ctx), log: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	wasi_snapshot_preview1.MustInstantiate(ctx, e.runtime)
	return e
}

// Close releases the wazero runtime and every module instantiated from it.
func (e *Engine) Close(ctx context.Context) error {
	return e.runtime.Close(ctx)
}

// Bind instantiates the module at path and binds the exported function named
// by symbol. specifier is the original handler specifier, used in errors.
func (e *Engine) Bind(ctx context.Context, path, symbol, specifier string) (harness.Callable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.ModuleLoad(fmt.Sprintf("read module %s", path), err)
	}

	mod, err := e.runtime.Instantiate(ctx, raw)
	if err != nil {
		return nil, errors.ModuleLoad(fmt.Sprintf("instantiate module %s", path), err)
	}

	if init := mod.ExportedFunction("_initialize"); init != nil {
		if _, err := init.Call(ctx); err != nil {
			return nil, errors.ModuleLoad("call _initialize", err)
		}
	}

	fn := mod.ExportedFunction(symbol)
	if fn == nil {
		return nil, errors.NotCallable(specifier)
	}

	e.log.Debug("bound wasm entry point",
		zap.String("module", path),
		zap.String("symbol", symbol))
	return &callable{mod: mod, fn: fn}, nil
}

type callable struct {
	mod api.Module
	fn  api.Function
}

func (c *callable) Invoke(ctx context.Context, input any) harness.Outcome {
	payload, err := json.Marshal(input)
	if err != nil {
		return harness.FaultOutcome(harness.Fault{"message": fmt.Sprintf("marshal input: %v", err)})
	}

	packed, fault := c.callRaw(ctx, payload)
	if fault != nil {
		return harness.FaultOutcome(fault)
	}
	ptr, length := uint32(packed>>32), uint32(packed)
	if ptr == 0 || length == 0 {
		return harness.AbsentOutcome()
	}

	data, ok := c.mod.Memory().Read(ptr, length)
	if !ok {
		return harness.FaultOutcome(harness.Fault{"message": "result pointer outside guest memory"})
	}
	var value any
	if err := json.Unmarshal(data, &value); err != nil {
		return harness.FaultOutcome(harness.Fault{"message": fmt.Sprintf("decode result: %v", err)})
	}
	return harness.ValueOutcome(value)
}

// callRaw writes the payload into guest memory and calls the bound function
// with (ptr, len), returning the packed result.
func (c *callable) callRaw(ctx context.Context, payload []byte) (uint64, harness.Fault) {
	allocate := c.mod.ExportedFunction(allocateExport)
	if allocate == nil {
		return 0, harness.Fault{"message": "guest does not export allocate"}
	}
	allocated, err := allocate.Call(ctx, uint64(len(payload)))
	if err != nil || len(allocated) == 0 {
		return 0, harness.Fault{"message": fmt.Sprintf("allocate in guest: %v", err)}
	}
	ptr := uint32(allocated[0])
	if !c.mod.Memory().Write(ptr, payload) {
		return 0, harness.Fault{"message": "input does not fit guest memory"}
	}

	results, err := c.fn.Call(ctx, uint64(ptr), uint64(len(payload)))
	if err != nil {
		// A trap inside the guest is the wasm shape of a thrown fault.
		return 0, harness.Fault{"name": "RuntimeError", "message": err.Error()}
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0], nil
}
