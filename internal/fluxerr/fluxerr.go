// Package fluxerr implements spec.md §7's error-kind taxonomy: a closed
// set of failure kinds the CLI dispatches on to pick an exit code,
// wrapped with errors.Is-compatible sentinels following the `%w`
// wrapping convention used throughout pthm-soup's config and telemetry
// packages.
package fluxerr

import (
	"errors"
	"fmt"
)

// Kind is the closed set of failure kinds from spec.md §7.
type Kind int

const (
	// InputFormatError: a mesh/point-cloud reader could not parse its
	// input.
	InputFormatError Kind = iota
	// SceneBuildError: the geometry/boundary/scene build step failed
	// (e.g. a degenerate bounding box, or a disc too close to the
	// boundary in sampling-mode exposed-area).
	SceneBuildError
	// OutOfMemory: an allocation failed.
	OutOfMemory
	// InvariantViolation: an assertion failure in the kernel.
	InvariantViolation
	// StatsServiceUnavailable: the mixture fit failed; the tracer falls
	// back to a single Gaussian and continues.
	StatsServiceUnavailable
)

func (k Kind) String() string {
	switch k {
	case InputFormatError:
		return "InputFormatError"
	case SceneBuildError:
		return "SceneBuildError"
	case OutOfMemory:
		return "OutOfMemory"
	case InvariantViolation:
		return "InvariantViolation"
	case StatsServiceUnavailable:
		return "StatsServiceUnavailable"
	default:
		return fmt.Sprintf("fluxerr.Kind(%d)", int(k))
	}
}

// kindError pairs a Kind with its wrapped cause, supporting
// errors.Is(err, fluxerr.SceneBuildError) style checks via Unwrap.
type kindError struct {
	kind  Kind
	cause error
}

func (e *kindError) Error() string {
	if e.cause == nil {
		return e.kind.String()
	}
	return fmt.Sprintf("%s: %s", e.kind, e.cause)
}

func (e *kindError) Unwrap() error { return e.cause }

// Of wraps cause with kind, so callers can both log a human message and
// errors.Is/As against the kind.
func Of(kind Kind, cause error) error {
	return &kindError{kind: kind, cause: cause}
}

// Ofm is Of with a formatted message instead of a wrapped error.
func Ofm(kind Kind, format string, args ...any) error {
	return &kindError{kind: kind, cause: fmt.Errorf(format, args...)}
}

// Is reports whether err (or anything it wraps) carries the given Kind.
func Is(err error, kind Kind) bool {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.kind == kind
	}
	return false
}

// KindOf extracts the Kind from err, if any, and whether one was found.
func KindOf(err error) (Kind, bool) {
	var ke *kindError
	if errors.As(err, &ke) {
		return ke.kind, true
	}
	return 0, false
}
