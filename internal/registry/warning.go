package registry

import (
	"fmt"

	"github.com/zjrosen/uuidtrans/internal/element"
)

// WarningKind classifies an integrity warning.
type WarningKind int

const (
	// DuplicateID means two parsed elements share an ID.
	DuplicateID WarningKind = iota
	// ParseFailure means a whole file could not be parsed and was skipped.
	ParseFailure
	// SkippedEntry means one entry inside a file was malformed and was skipped.
	SkippedEntry
)

// String returns a human-readable representation of the WarningKind.
func (k WarningKind) String() string {
	switch k {
	case DuplicateID:
		return "duplicate-id"
	case ParseFailure:
		return "parse-failure"
	case SkippedEntry:
		return "skipped-entry"
	default:
		return "unknown"
	}
}

// IntegrityWarning is a non-fatal problem found during a rebuild.
type IntegrityWarning struct {
	Kind WarningKind
	ID   string // DuplicateID: the losing element's ID
	Path string // file the problem was found in
	// Winner is the element that kept the ID (DuplicateID only).
	Winner element.Element
	Err    error // ParseFailure and SkippedEntry: the underlying error
}

// Error implements the error interface.
func (w IntegrityWarning) Error() string {
	switch w.Kind {
	case DuplicateID:
		return fmt.Sprintf("duplicate id %s in %s (kept %q from %s)", w.ID, w.Path, w.Winner.Name(), w.Winner.Source())
	case ParseFailure:
		return fmt.Sprintf("parse %s: %v", w.Path, w.Err)
	case SkippedEntry:
		return fmt.Sprintf("skipped entry in %s: %v", w.Path, w.Err)
	default:
		return fmt.Sprintf("integrity warning in %s", w.Path)
	}
}

// Unwrap returns the underlying error for errors.Is/As.
func (w IntegrityWarning) Unwrap() error {
	return w.Err
}
