// Package testutil builds throwaway workspaces for tests.
package testutil

import (
	"encoding/json"
	"encoding/xml"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

// Builder accumulates element files and writes them under a temp directory.
// The output format follows each file's extension (.yaml/.yml, .json, .xml).
type Builder struct {
	t     *testing.T
	root  string
	files map[string]*fileData
	order []string
}

// NewBuilder creates a builder rooted at a fresh t.TempDir().
func NewBuilder(t *testing.T) *Builder {
	t.Helper()
	return &Builder{t: t, root: t.TempDir(), files: make(map[string]*fileData)}
}

// Root returns the workspace directory.
func (b *Builder) Root() string {
	return b.root
}

// Path returns the absolute path of a workspace-relative file.
func (b *Builder) Path(rel string) string {
	return filepath.Join(b.root, filepath.FromSlash(rel))
}

func (b *Builder) file(rel string) *fileData {
	f, ok := b.files[rel]
	if !ok {
		f = &fileData{}
		b.files[rel] = f
		b.order = append(b.order, rel)
	}
	return f
}

// WithElement adds an element to file rel.
func (b *Builder) WithElement(rel, id, name string, opts ...ElementOption) *Builder {
	e := elementData{ID: id, Name: name}
	for _, opt := range opts {
		opt(&e)
	}
	f := b.file(rel)
	f.Elements = append(f.Elements, e)
	return b
}

// WithFileType sets the default type of every element in file rel.
func (b *Builder) WithFileType(rel, typ string) *Builder {
	b.file(rel).Type = typ
	return b
}

// WithRawFile writes content to rel verbatim, for malformed-input tests.
func (b *Builder) WithRawFile(rel, content string) *Builder {
	b.file(rel).raw = &content
	return b
}

// Build writes all files and returns their absolute paths in lexical order,
// matching the order workspace discovery yields.
func (b *Builder) Build() []string {
	b.t.Helper()
	paths := make([]string, 0, len(b.order))
	for _, rel := range b.order {
		path := b.Path(rel)
		require.NoError(b.t, os.MkdirAll(filepath.Dir(path), 0o750))
		require.NoError(b.t, os.WriteFile(path, b.encode(rel, b.files[rel]), 0o600))
		paths = append(paths, path)
	}
	slices.Sort(paths)
	return paths
}

func (b *Builder) encode(rel string, f *fileData) []byte {
	b.t.Helper()
	if f.raw != nil {
		return []byte(*f.raw)
	}

	switch strings.ToLower(filepath.Ext(rel)) {
	case ".json":
		data, err := json.MarshalIndent(f, "", "  ")
		require.NoError(b.t, err)
		return data
	case ".xml":
		var sb strings.Builder
		sb.WriteString("<elements")
		if f.Type != "" {
			sb.WriteString(` type="` + xmlEscape(b.t, f.Type) + `"`)
		}
		sb.WriteString(">\n")
		for _, e := range f.Elements {
			sb.WriteString(`  <element id="` + xmlEscape(b.t, e.ID) + `" name="` + xmlEscape(b.t, e.Name) + `"`)
			if e.Type != "" {
				sb.WriteString(` type="` + xmlEscape(b.t, e.Type) + `"`)
			}
			sb.WriteString("/>\n")
		}
		sb.WriteString("</elements>\n")
		return []byte(sb.String())
	default:
		data, err := yaml.Marshal(f)
		require.NoError(b.t, err)
		return data
	}
}

func xmlEscape(t *testing.T, s string) string {
	t.Helper()
	var sb strings.Builder
	require.NoError(t, xml.EscapeText(&sb, []byte(s)))
	return sb.String()
}
