package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in the harness lifecycle the error occurred
type Phase string

const (
	PhaseStage   Phase = "stage"   // archive decoding and extraction
	PhaseResolve Phase = "resolve" // handler specifier parsing and module lookup
	PhaseBind    Phase = "bind"    // module loading and symbol binding
	PhaseInvoke  Phase = "invoke"  // invocation protocol misuse
)

// Kind categorizes the error
type Kind string

const (
	KindArchiveWrite       Kind = "archive_write"       // could not persist decoded archive bytes
	KindArchiveExtract     Kind = "archive_extract"     // decompression utility failed
	KindInvalidHandler     Kind = "invalid_handler"     // specifier does not match the grammar
	KindMissingModuleRoot  Kind = "missing_module_root" // staged dir has neither manifest nor default entry
	KindNotCallable        Kind = "not_callable"        // resolved symbol is not invocable
	KindModuleLoad         Kind = "module_load"         // module or source load failed
	KindNotInitialized     Kind = "not_initialized"     // run before a successful init
	KindAlreadyInitialized Kind = "already_initialized" // second init on the same instance
)

// Error is the structured error type used throughout the harness. All
// initialization failures surface as *Error; invocation faults never do,
// they are normalized into result envelopes instead.
type Error struct {
	Cause   error
	Phase   Phase
	Kind    Kind
	Handler string
	Detail  string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteByte('[')
	b.WriteString(string(e.Phase))
	b.WriteString("] ")
	b.WriteString(string(e.Kind))

	if e.Handler != "" {
		b.WriteString(" for handler ")
		b.WriteString(fmt.Sprintf("%q", e.Handler))
	}

	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Phase == t.Phase && e.Kind == t.Kind
	}
	return false
}

// Convenience constructors for the initialization taxonomy

// ArchiveWrite creates an error for a package that could not be decoded or
// persisted to durable storage.
func ArchiveWrite(detail string, cause error) *Error {
	return &Error{Phase: PhaseStage, Kind: KindArchiveWrite, Detail: detail, Cause: cause}
}

// ArchiveExtract creates an error for a decompression failure. stderr holds
// the diagnostic output of the extraction utility, if any.
func ArchiveExtract(stderr string, cause error) *Error {
	return &Error{Phase: PhaseStage, Kind: KindArchiveExtract, Detail: stderr, Cause: cause}
}

// InvalidHandler creates an error for a specifier that does not match the
// handler grammar.
func InvalidHandler(handler string) *Error {
	return &Error{Phase: PhaseResolve, Kind: KindInvalidHandler, Handler: handler}
}

// MissingModuleRoot creates an error for a staged directory that holds
// neither a package manifest nor a default entry file.
func MissingModuleRoot(dir string) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindMissingModuleRoot,
		Detail: fmt.Sprintf("directory %s has no package manifest or default entry file", dir),
	}
}

// NotCallable creates an error for a resolved symbol that exists but is not
// invocable. It names the original handler specifier.
func NotCallable(handler string) *Error {
	return &Error{Phase: PhaseBind, Kind: KindNotCallable, Handler: handler, Detail: "resolved symbol is not invocable"}
}

// ModuleLoad creates an error for a module or source that failed to load.
func ModuleLoad(detail string, cause error) *Error {
	return &Error{Phase: PhaseBind, Kind: KindModuleLoad, Detail: detail, Cause: cause}
}

// NotInitialized creates an error for an invocation against an unbound
// harness instance.
func NotInitialized() *Error {
	return &Error{Phase: PhaseInvoke, Kind: KindNotInitialized, Detail: "harness has no bound callable"}
}

// AlreadyInitialized creates an error for a repeated initialization attempt.
func AlreadyInitialized() *Error {
	return &Error{Phase: PhaseInvoke, Kind: KindAlreadyInitialized, Detail: "harness is already bound to a callable"}
}
