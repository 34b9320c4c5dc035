package presentation

import (
	"time"

	"github.com/zjrosen/uuidtrans/internal/element"
	"github.com/zjrosen/uuidtrans/internal/registry"
	"github.com/zjrosen/uuidtrans/internal/search"
)

// ElementDTO represents an indexed element for presentation
type ElementDTO struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Type   string `json:"type"`
	Source string `json:"source"`
}

// ResultDTO represents a lookup result. Element is set for "one",
// Candidates for "multiple".
type ResultDTO struct {
	Kind        string       `json:"kind"`
	Text        string       `json:"text,omitempty"` // formatted One, set by callers that know the field
	Message     string       `json:"message,omitempty"`
	Element     *ElementDTO  `json:"element,omitempty"`
	Candidates  []ElementDTO `json:"candidates,omitempty"`
	Suggestions []string     `json:"suggestions,omitempty"`
}

// WarningDTO represents an integrity warning from a rebuild
type WarningDTO struct {
	Kind    string `json:"kind"`
	ID      string `json:"id,omitempty"`
	Path    string `json:"path"`
	Message string `json:"message"`
}

// SnapshotDTO summarizes the published index
type SnapshotDTO struct {
	Version  uint64    `json:"version"`
	Elements int       `json:"elements"`
	Names    int       `json:"names"`
	Files    []string  `json:"files"`
	BuiltAt  time.Time `json:"built_at"`
}

// FromElement converts an element to a DTO.
func FromElement(e element.Element) ElementDTO {
	return ElementDTO{
		ID:     e.ID(),
		Name:   e.Name(),
		Type:   e.Type(),
		Source: e.Source(),
	}
}

// FromElements converts a slice of elements to DTOs. The result is never nil
// so it encodes as [] rather than null.
func FromElements(elements []element.Element) []ElementDTO {
	dtos := make([]ElementDTO, len(elements))
	for i, e := range elements {
		dtos[i] = FromElement(e)
	}
	return dtos
}

// FromResult converts a lookup result to a DTO.
func FromResult(r search.Result) ResultDTO {
	dto := ResultDTO{Kind: search.Kind(r), Message: search.Message(r)}
	switch v := r.(type) {
	case search.One:
		e := FromElement(v.Element)
		dto.Element = &e
	case search.Multiple:
		dto.Candidates = FromElements(v.Candidates)
	case search.Empty:
		dto.Suggestions = v.Suggestions
	}
	return dto
}

// FromWarnings converts rebuild warnings to DTOs.
func FromWarnings(warnings []registry.IntegrityWarning) []WarningDTO {
	dtos := make([]WarningDTO, len(warnings))
	for i, w := range warnings {
		dtos[i] = WarningDTO{
			Kind:    w.Kind.String(),
			ID:      w.ID,
			Path:    w.Path,
			Message: w.Error(),
		}
	}
	return dtos
}

// FromSnapshot summarizes a snapshot.
func FromSnapshot(s *registry.Snapshot) SnapshotDTO {
	return SnapshotDTO{
		Version:  s.Version(),
		Elements: s.Len(),
		Names:    len(s.Names()),
		Files:    s.Files(),
		BuiltAt:  s.BuiltAt(),
	}
}
