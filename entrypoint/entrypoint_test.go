package entrypoint

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/faasline/harness/errors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		specifier string
		module    string
		symbol    string
	}{
		{"main", "", "main"},
		{"index", "", "index"},
		{"mod.sym", "mod", "sym"},
		{"mod.sym.extra", "mod", "sym.extra"},
		{"index.handlers.run", "index", "handlers.run"},
	}

	for _, tt := range tests {
		t.Run(tt.specifier, func(t *testing.T) {
			ep, err := Parse(tt.specifier)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.specifier, err)
			}
			if ep.Module != tt.module || ep.Symbol != tt.symbol {
				t.Errorf("Parse(%q) = (%q, %q), want (%q, %q)",
					tt.specifier, ep.Module, ep.Symbol, tt.module, tt.symbol)
			}
			if got, want := ep.HasModule(), tt.module != ""; got != want {
				t.Errorf("HasModule() = %v, want %v", got, want)
			}
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	for _, specifier := range []string{"", ".", ".sym", "mod."} {
		t.Run("invalid_"+specifier, func(t *testing.T) {
			_, err := Parse(specifier)
			if err == nil {
				t.Fatalf("Parse(%q) should fail", specifier)
			}
			if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseResolve, Kind: errors.KindInvalidHandler}) {
				t.Errorf("Parse(%q) error = %v, want invalid_handler", specifier, err)
			}
		})
	}
}

func TestResolveModule_WithLocator(t *testing.T) {
	ep := EntryPoint{Module: "index", Symbol: "main"}

	ref, err := ep.ResolveModule("/staged/pkg")
	if err != nil {
		t.Fatalf("ResolveModule: %v", err)
	}
	if want := filepath.Join("/staged/pkg", "index"); ref != want {
		t.Errorf("ref = %q, want %q", ref, want)
	}
}

func TestResolveModule_ModuleRoot(t *testing.T) {
	tests := []struct {
		name    string
		files   []string
		wantErr bool
	}{
		{"manifest present", []string{ManifestFile}, false},
		{"default entry present", []string{DefaultEntryFile}, false},
		{"both present", []string{ManifestFile, DefaultEntryFile}, false},
		{"neither present", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			for _, name := range tt.files {
				if err := os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644); err != nil {
					t.Fatal(err)
				}
			}

			ep := EntryPoint{Symbol: "main"}
			ref, err := ep.ResolveModule(dir)
			if tt.wantErr {
				if !stderrors.Is(err, &errors.Error{Phase: errors.PhaseResolve, Kind: errors.KindMissingModuleRoot}) {
					t.Fatalf("error = %v, want missing_module_root", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ResolveModule: %v", err)
			}
			if ref != dir {
				t.Errorf("ref = %q, want the staged dir %q", ref, dir)
			}
		})
	}
}
