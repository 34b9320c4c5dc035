package search

import (
	"fmt"

	"github.com/zjrosen/uuidtrans/internal/element"
)

// Result is the outcome of a single lookup. It is one of Invalid, Empty,
// Multiple or One.
type Result interface {
	isResult()
}

// Invalid means the input was not a lookup candidate: empty after trimming,
// or not shaped like an ID for an ID lookup. Callers stay silent.
type Invalid struct{}

// Empty means a well-formed input matched nothing.
type Empty struct {
	Message string
	// Suggestions are close names for a failed name lookup, best first.
	Suggestions []string
}

// Multiple means a name matched more than one element.
type Multiple struct {
	Message    string
	Candidates []element.Element
}

// One carries the single matching element.
type One struct {
	Element element.Element
}

func (Invalid) isResult()  {}
func (Empty) isResult()    {}
func (Multiple) isResult() {}
func (One) isResult()      {}

// Kind returns a short lower-case label for r, used in logs, spans and DTOs.
func Kind(r Result) string {
	switch r.(type) {
	case Invalid:
		return "invalid"
	case Empty:
		return "empty"
	case Multiple:
		return "multiple"
	case One:
		return "one"
	default:
		panic(fmt.Sprintf("search: unknown result %T", r))
	}
}

// Field selects which element field Format displays.
type Field int

const (
	// FieldName shows the element name (the answer to an ID lookup).
	FieldName Field = iota
	// FieldID shows the element ID (the answer to a name lookup).
	FieldID
)

// Format renders a lookup result for display. One yields the chosen field,
// prefixed with "<type>/" when showType is set. Empty and Multiple yield their
// message and Invalid yields "".
func Format(r Result, field Field, showType bool) string {
	switch v := r.(type) {
	case One:
		value := v.Element.Name()
		if field == FieldID {
			value = v.Element.ID()
		}
		if showType {
			return v.Element.Type() + "/" + value
		}
		return value
	case Empty, Multiple, Invalid:
		return Message(r)
	default:
		panic(fmt.Sprintf("search: unknown result %T", r))
	}
}

// Message returns the user-facing text for Empty and Multiple, "" otherwise.
func Message(r Result) string {
	switch v := r.(type) {
	case Empty:
		return v.Message
	case Multiple:
		return v.Message
	default:
		return ""
	}
}
