// Package entrypoint implements the handler specifier grammar and the
// resolution of a specifier against a staged package directory.
package entrypoint

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/faasline/harness/errors"
)

const (
	// ManifestFile is the package manifest recognized as a module root.
	ManifestFile = "package.json"
	// DefaultEntryFile is the fallback entry file recognized as a module root.
	DefaultEntryFile = "index.js"
)

// EntryPoint is a parsed handler specifier: an optional module locator and a
// required symbol path. A bare specifier like "main" has no locator; a dotted
// specifier like "index.handlers.run" locates module "index" and symbol path
// "handlers.run".
type EntryPoint struct {
	Module string // "" when absent
	Symbol string
}

// HasModule reports whether the specifier carried a module locator.
func (ep EntryPoint) HasModule() bool {
	return ep.Module != ""
}

// Parse parses a handler specifier. The grammar accepts either a bare
// non-empty identifier, or an identifier, a single '.' separator, and a
// non-empty remainder. Everything else fails with an invalid_handler error.
func Parse(specifier string) (EntryPoint, error) {
	if specifier == "" {
		return EntryPoint{}, errors.InvalidHandler(specifier)
	}

	i := strings.Index(specifier, ".")
	if i < 0 {
		return EntryPoint{Symbol: specifier}, nil
	}

	module, symbol := specifier[:i], specifier[i+1:]
	if module == "" || symbol == "" {
		return EntryPoint{}, errors.InvalidHandler(specifier)
	}
	return EntryPoint{Module: module, Symbol: symbol}, nil
}

// ResolveModule computes the module reference to load from a staged package
// directory. With a locator the reference is <dir>/<locator>; without one the
// directory itself must resolve as a module root, which requires a package
// manifest or a default entry file to be present.
func (ep EntryPoint) ResolveModule(stagedDir string) (string, error) {
	if ep.HasModule() {
		return filepath.Join(stagedDir, ep.Module), nil
	}

	for _, name := range []string{ManifestFile, DefaultEntryFile} {
		if _, err := os.Stat(filepath.Join(stagedDir, name)); err == nil {
			return stagedDir, nil
		}
	}
	return "", errors.MissingModuleRoot(stagedDir)
}
