// Package element defines the immutable record indexed by the registry and the
// textual shape of element IDs.
package element

import (
	"regexp"
	"strings"
)

const idPattern = `[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}`

var (
	// IDPattern matches an element ID anywhere in a text.
	IDPattern = regexp.MustCompile(idPattern)

	exactID = regexp.MustCompile(`^` + idPattern + `$`)
)

// IsID reports whether s is exactly one element ID in canonical textual form
// (32 hex digits grouped 8-4-4-4-12, any case). Surrounding whitespace is not
// accepted; callers trim first.
func IsID(s string) bool {
	return exactID.MatchString(s)
}

// NormalizeID returns the index key for an ID. IDs compare case-insensitively.
func NormalizeID(id string) string {
	return strings.ToLower(id)
}

// Element is one addressable entry of the workspace.
type Element struct {
	id     string // as written in the source file
	name   string // human-facing label, not unique
	typ    string // provenance/category tag, display only
	source string // workspace file the element was parsed from
}

// New creates an element. The id is kept as written; use Key for lookups.
func New(id, name, typ, source string) Element {
	return Element{
		id:     id,
		name:   name,
		typ:    typ,
		source: source,
	}
}

// ID returns the element ID as written in the source file.
func (e Element) ID() string {
	return e.id
}

// Key returns the normalized ID used by the by-ID index.
func (e Element) Key() string {
	return NormalizeID(e.id)
}

// Name returns the human-readable name.
func (e Element) Name() string {
	return e.name
}

// Type returns the element's type tag.
func (e Element) Type() string {
	return e.typ
}

// Source returns the workspace file the element came from.
func (e Element) Source() string {
	return e.source
}

// IsZero reports whether e is the zero Element.
func (e Element) IsZero() bool {
	return e == Element{}
}
