// Package harness provides the runtime core of a "run arbitrary callable,
// safely shaped result" execution model: it accepts a packaged unit of
// user-supplied code plus the name of an entry point, binds that entry point
// once, and invokes it with caller-supplied input, normalizing every outcome
// into a uniform result envelope.
//
// # Architecture Overview
//
// The module is organized into several packages with distinct responsibilities:
//
//	harness/         Root package with the Callable, Outcome and Fault types
//	├── runtime/     High-level API: the Harness lifecycle (Init once, Run many)
//	├── stage/       Archive staging: decode, persist and extract packages
//	├── entrypoint/  Handler specifier grammar and module-root resolution
//	├── engine/js/   ECMAScript callable engine (goja, CommonJS modules)
//	├── engine/wasm/ WebAssembly callable engine (wazero, JSON convention)
//	├── protocol/    Host-facing init/run wire messages and codecs
//	├── errors/      Structured error types with the initialization taxonomy
//	├── config/      Daemon configuration loading
//	└── observability/ Logger construction
//
// # Quick Start
//
// Bind an inline source package and invoke it:
//
//	h := runtime.New()
//	defer h.Close(ctx)
//
//	err := h.Init(ctx, protocol.InitMessage{
//	    Code: `function main(args) { return {greeting: "hello " + args.name} }`,
//	    Main: "main",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	out, err := h.Run(ctx, map[string]any{"name": "world"})
//	fmt.Println(out) // map[greeting:hello world]
//
// # Lifecycle
//
// A Harness instance commits to exactly one callable for its entire lifetime.
// Initialization happens once; a failed initialization leaves the instance
// unusable and the embedder is expected to discard it. Run never propagates a
// fault raised by the callable: failure comes back as data, a map carrying an
// "error" key.
//
// # Thread Safety
//
// Harness is NOT safe for overlapping Run calls; the embedder serializes
// invocations, one result envelope produced before the next call begins. The
// harness implements no timeouts: a pending value that never settles suspends
// that Run call until external supervision intervenes.
package harness
