package iso9660

import (
	"fmt"

	"github.com/pkg/errors"
)

// Kind classifies an Error so callers can branch on failure category without string
// matching.
type Kind int

const (
	// KindInvalidInput covers unrepresentable names, oversize payloads under Strict, and
	// duplicate sibling names surviving mangling.
	KindInvalidInput Kind = iota
	// KindPlanOverflow covers an image whose volume space size would exceed the PVD's
	// u32 sector-count field.
	KindPlanOverflow
	// KindIoError wraps a failure from a payload source or the backing sink.
	KindIoError
	// KindBootCatalogError covers a validation-entry checksum that cannot be constructed,
	// or a boot image exceeding its media type's sector-count limit.
	KindBootCatalogError
	// KindNotConformant is surfaced only while reading: a rule violation the reader could
	// not recover from.
	KindNotConformant
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "InvalidInput"
	case KindPlanOverflow:
		return "PlanOverflow"
	case KindIoError:
		return "IoError"
	case KindBootCatalogError:
		return "BootCatalogError"
	case KindNotConformant:
		return "NotConformant"
	default:
		return "Unknown"
	}
}

// Error is the single exported error type the core surfaces. Path carries best-effort
// context (a file path, a region name) for callers that want to report it.
type Error struct {
	Kind Kind
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

func newError(kind Kind, path string, cause error) *Error {
	return &Error{Kind: kind, Path: path, Err: cause}
}

func wrapf(kind Kind, path string, cause error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Path: path, Err: errors.Wrapf(cause, format, args...)}
}

func errorf(kind Kind, path string, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Path: path, Err: errors.Errorf(format, args...)}
}
