package testutil

// elementData is one entry to be written to a workspace file.
type elementData struct {
	ID   string `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
	Type string `yaml:"type,omitempty" json:"type,omitempty"`
}

// ElementOption configures an element.
type ElementOption func(*elementData)

// Type sets the element's type tag.
func Type(t string) ElementOption {
	return func(e *elementData) {
		e.Type = t
	}
}

// fileData is one workspace file.
type fileData struct {
	Type     string        `yaml:"type,omitempty" json:"type,omitempty"`
	Elements []elementData `yaml:"elements" json:"elements"`
	raw      *string
}
