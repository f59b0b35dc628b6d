// Package js implements the ECMAScript callable engine.
//
// Each engine owns one goja runtime driven by a goja_nodejs event loop, which
// is what lets a bound callable use pending values (Promises) and timers: the
// in-flight invocation suspends on a channel until the value settles while
// the loop keeps processing jobs. All access to the runtime happens on the
// loop goroutine.
package js

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/eventloop"
	"github.com/dop251/goja_nodejs/require"
	"go.uber.org/zap"

	"github.com/faasline/harness"
	"github.com/faasline/harness/errors"
)

// Engine evaluates one package in a fresh, isolated namespace and binds one
// entry point out of it.
type Engine struct {
	loop     *eventloop.EventLoop
	registry *require.Registry
	log      *zap.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// NewEngine creates an engine with a running event loop. Close must be
// called to stop the loop.
func NewEngine(opts ...Option) *Engine {
	registry := require.NewRegistry()
	e := &Engine{
		loop:     eventloop.NewEventLoop(eventloop.WithRegistry(registry), eventloop.EnableConsole(true)),
		registry: registry,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.loop.Start()
	return e
}

// Close stops the event loop. In-flight invocations are abandoned.
func (e *Engine) Close() error {
	e.loop.Stop()
	return nil
}

// run executes fn on the loop goroutine and waits for it to return.
func (e *Engine) run(fn func(vm *goja.Runtime)) {
	done := make(chan struct{})
	e.loop.RunOnLoop(func(vm *goja.Runtime) {
		defer close(done)
		fn(vm)
	})
	<-done
}

// BindSource evaluates inline source text in the engine's namespace and
// binds the symbol path as a name in that namespace. specifier is the
// original handler specifier, used in errors.
func (e *Engine) BindSource(source, symbolPath, specifier string) (harness.Callable, error) {
	var (
		bound   goja.Callable
		bindErr error
	)
	e.run(func(vm *goja.Runtime) {
		if _, err := vm.RunString(source); err != nil {
			bindErr = errors.ModuleLoad("evaluate inline source", err)
			return
		}
		bound, bindErr = lookupCallable(vm, vm.GlobalObject(), symbolPath, specifier)
	})
	if bindErr != nil {
		return nil, bindErr
	}
	e.log.Debug("bound inline entry point", zap.String("handler", specifier))
	return &callable{eng: e, fn: bound}, nil
}

// BindModule loads the module at ref through the CommonJS loader and binds
// the symbol path against its exported surface. Directory references resolve
// through the package manifest's main field or the default entry file.
func (e *Engine) BindModule(ref, symbolPath, specifier string) (harness.Callable, error) {
	var (
		bound   goja.Callable
		bindErr error
	)
	e.run(func(vm *goja.Runtime) {
		exports, err := e.registry.Enable(vm).Require(ref)
		if err != nil {
			bindErr = errors.ModuleLoad(fmt.Sprintf("load module %s", ref), err)
			return
		}
		bound, bindErr = lookupCallable(vm, exports, symbolPath, specifier)
	})
	if bindErr != nil {
		return nil, bindErr
	}
	e.log.Debug("bound module entry point",
		zap.String("module", ref),
		zap.String("handler", specifier))
	return &callable{eng: e, fn: bound}, nil
}

// lookupCallable walks symbolPath as a property access over base and asserts
// the result is invocable. Runs on the loop goroutine.
func lookupCallable(vm *goja.Runtime, base goja.Value, symbolPath, specifier string) (goja.Callable, error) {
	cur := base
	for _, part := range strings.Split(symbolPath, ".") {
		if cur == nil || goja.IsUndefined(cur) || goja.IsNull(cur) {
			return nil, errors.NotCallable(specifier)
		}
		cur = cur.ToObject(vm).Get(part)
	}
	fn, ok := goja.AssertFunction(cur)
	if !ok {
		return nil, errors.NotCallable(specifier)
	}
	return fn, nil
}

type callable struct {
	eng *Engine
	fn  goja.Callable
}

// Invoke calls the bound function with input as its sole argument. A pending
// value suspends the call until settlement; a value that never settles
// suspends it until external supervision kills the process.
func (c *callable) Invoke(ctx context.Context, input any) harness.Outcome {
	settled := make(chan harness.Outcome, 1)
	c.eng.loop.RunOnLoop(func(vm *goja.Runtime) {
		defer func() {
			if r := recover(); r != nil {
				settled <- harness.FaultOutcome(harness.Fault{"message": fmt.Sprintf("%v", r)})
			}
		}()

		res, err := c.fn(goja.Undefined(), vm.ToValue(input))
		if err != nil {
			settled <- harness.FaultOutcome(faultFromError(vm, err))
			return
		}
		if res != nil {
			if _, ok := res.Export().(*goja.Promise); ok {
				awaitPromise(vm, res, settled)
				return
			}
		}
		settled <- valueOutcome(res)
	})
	return <-settled
}

// awaitPromise chains settlement handlers onto a pending value. The handlers
// fire later on the loop goroutine; exactly one of them delivers the outcome.
func awaitPromise(vm *goja.Runtime, v goja.Value, settled chan<- harness.Outcome) {
	obj := v.ToObject(vm)
	then, ok := goja.AssertFunction(obj.Get("then"))
	if !ok {
		settled <- harness.FaultOutcome(harness.Fault{"message": "pending value does not expose then"})
		return
	}

	onFulfilled := vm.ToValue(func(call goja.FunctionCall) goja.Value {
		settled <- valueOutcome(call.Argument(0))
		return goja.Undefined()
	})
	onRejected := vm.ToValue(func(call goja.FunctionCall) goja.Value {
		settled <- harness.FaultOutcome(flattenFault(vm, call.Argument(0)))
		return goja.Undefined()
	})
	if _, err := then(obj, onFulfilled, onRejected); err != nil {
		settled <- harness.FaultOutcome(faultFromError(vm, err))
	}
}

func valueOutcome(v goja.Value) harness.Outcome {
	if v == nil || goja.IsUndefined(v) {
		return harness.AbsentOutcome()
	}
	return harness.ValueOutcome(v.Export())
}

func faultFromError(vm *goja.Runtime, err error) harness.Fault {
	var ex *goja.Exception
	if stderrors.As(err, &ex) {
		return flattenFault(vm, ex.Value())
	}
	return harness.Fault{"message": err.Error()}
}

// flattenFault turns a thrown value or rejection reason into serializable
// data. A falsy reason yields an empty fault; error-like objects contribute
// name, message and stack; plain objects pass through their own fields.
func flattenFault(vm *goja.Runtime, v goja.Value) harness.Fault {
	if v == nil || !v.ToBoolean() {
		return harness.Fault{}
	}
	obj, ok := v.(*goja.Object)
	if !ok {
		return harness.Fault{"message": v.String()}
	}

	f := harness.Fault{}
	for _, key := range []string{"name", "message", "stack"} {
		if pv := obj.Get(key); pv != nil && !goja.IsUndefined(pv) {
			f[key] = pv.String()
		}
	}
	if len(f) > 0 {
		return f
	}
	if m, ok := obj.Export().(map[string]any); ok {
		return harness.Fault(m)
	}
	return harness.Fault{"message": v.String()}
}
