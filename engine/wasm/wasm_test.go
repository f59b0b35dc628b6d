package wasm

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/faasline/harness/errors"
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	ctx := context.Background()
	e := NewEngine(ctx)
	t.Cleanup(func() { _ = e.Close(ctx) })
	return e
}

func TestBind_MissingFile(t *testing.T) {
	e := newTestEngine(t)

	_, err := e.Bind(context.Background(), filepath.Join(t.TempDir(), "missing.wasm"), "run", "missing.run")
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseBind, Kind: errors.KindModuleLoad}) {
		t.Errorf("error = %v, want module_load", err)
	}
}

func TestBind_InvalidBinary(t *testing.T) {
	e := newTestEngine(t)

	path := filepath.Join(t.TempDir(), "garbage.wasm")
	if err := os.WriteFile(path, []byte("not a wasm module"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := e.Bind(context.Background(), path, "run", "garbage.run")
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseBind, Kind: errors.KindModuleLoad}) {
		t.Errorf("error = %v, want module_load", err)
	}
}

func TestBind_MissingExport(t *testing.T) {
	e := newTestEngine(t)

	// Smallest valid module: just the magic number and version, no exports.
	empty := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	path := filepath.Join(t.TempDir(), "empty.wasm")
	if err := os.WriteFile(path, empty, 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := e.Bind(context.Background(), path, "run", "empty.run")
	if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseBind, Kind: errors.KindNotCallable}) {
		t.Errorf("error = %v, want not_callable", err)
	}
}
