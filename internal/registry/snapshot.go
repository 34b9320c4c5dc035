package registry

import (
	"slices"
	"time"

	"github.com/zjrosen/uuidtrans/internal/element"
)

// Snapshot is an immutable pair of indexes over one rebuild's elements.
// It is never modified after Build returns; a rebuild replaces it wholesale.
type Snapshot struct {
	byID     map[string]element.Element   // normalized id -> winning element
	byName   map[string][]element.Element // exact name -> elements in processing order
	elements []element.Element            // winners in processing order
	names    []string                     // distinct names, sorted
	files    []string
	version  uint64
	builtAt  time.Time
}

// emptySnapshot is what Current returns before the first rebuild.
var emptySnapshot = &Snapshot{
	byID:   map[string]element.Element{},
	byName: map[string][]element.Element{},
}

// Build indexes elements in the given order. Duplicate IDs (compared
// case-insensitively) produce one DuplicateID warning per losing element; the
// last occurrence wins and is the only one indexed, by ID and by name.
func Build(elements []element.Element, files []string, version uint64) (*Snapshot, []IntegrityWarning) {
	last := make(map[string]int, len(elements))
	for i, e := range elements {
		last[e.Key()] = i
	}

	var warnings []IntegrityWarning
	s := &Snapshot{
		byID:     make(map[string]element.Element, len(last)),
		byName:   make(map[string][]element.Element, len(last)),
		elements: make([]element.Element, 0, len(last)),
		files:    slices.Clone(files),
		version:  version,
		builtAt:  time.Now(),
	}

	for i, e := range elements {
		key := e.Key()
		if winner := last[key]; winner != i {
			warnings = append(warnings, IntegrityWarning{
				Kind:   DuplicateID,
				ID:     e.ID(),
				Path:   e.Source(),
				Winner: elements[winner],
			})
			continue
		}
		s.byID[key] = e
		s.byName[e.Name()] = append(s.byName[e.Name()], e)
		s.elements = append(s.elements, e)
	}

	s.names = make([]string, 0, len(s.byName))
	for name := range s.byName {
		s.names = append(s.names, name)
	}
	slices.Sort(s.names)

	return s, warnings
}

// LookupID returns the element indexed under id. The id is normalized first.
func (s *Snapshot) LookupID(id string) (element.Element, bool) {
	e, ok := s.byID[element.NormalizeID(id)]
	return e, ok
}

// LookupName returns all elements with exactly this name, in processing order.
// The returned slice is a copy.
func (s *Snapshot) LookupName(name string) []element.Element {
	return slices.Clone(s.byName[name])
}

// Elements returns all indexed elements in processing order.
func (s *Snapshot) Elements() []element.Element {
	return slices.Clone(s.elements)
}

// Names returns the distinct element names, sorted.
func (s *Snapshot) Names() []string {
	return slices.Clone(s.names)
}

// Len returns the number of indexed elements.
func (s *Snapshot) Len() int {
	return len(s.elements)
}

// Files returns the files this snapshot was built from.
func (s *Snapshot) Files() []string {
	return slices.Clone(s.files)
}

// Version is the rebuild counter; 0 means no rebuild has completed yet.
func (s *Snapshot) Version() uint64 {
	return s.version
}

// BuiltAt returns when the snapshot was built. Zero for the initial snapshot.
func (s *Snapshot) BuiltAt() time.Time {
	return s.builtAt
}
