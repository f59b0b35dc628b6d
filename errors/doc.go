// Package errors provides structured error types for the harness.
//
// Every initialization failure is an *Error carrying a Phase (where in the
// lifecycle it happened) and a Kind (what went wrong), so embedders can match
// with errors.Is against a prototype instead of string comparison:
//
//	if errors.Is(err, &harnesserrors.Error{Phase: PhaseStage, Kind: KindArchiveExtract}) {
//	    // corrupt archive
//	}
//
// Faults raised by the bound callable during an invocation are deliberately
// NOT part of this taxonomy; they are captured and normalized into the result
// envelope, never surfaced as Go errors.
package errors
