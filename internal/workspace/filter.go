package workspace

import (
	"fmt"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
)

// DefaultInclude matches every supported element file.
var DefaultInclude = []string{"**/*.yaml", "**/*.yml", "**/*.json", "**/*.xml"}

// DefaultExclude skips VCS metadata and dependency trees.
var DefaultExclude = []string{"**/.git/**", "**/node_modules/**", "**/.uuidtrans/**"}

// Filter decides which workspace-relative paths are element files.
// Patterns use doublestar syntax and match slash-separated relative paths.
type Filter struct {
	include []string
	exclude []string
}

// NewFilter validates the patterns. An empty include list falls back to
// DefaultInclude.
func NewFilter(include, exclude []string) (*Filter, error) {
	if len(include) == 0 {
		include = DefaultInclude
	}
	for _, p := range include {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid include pattern %q", p)
		}
	}
	for _, p := range exclude {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid exclude pattern %q", p)
		}
	}
	return &Filter{include: include, exclude: exclude}, nil
}

// Match reports whether rel (relative to the workspace root) is included
// and not excluded.
func (f *Filter) Match(rel string) bool {
	rel = filepath.ToSlash(rel)
	if matchAny(f.exclude, rel) {
		return false
	}
	return matchAny(f.include, rel)
}

// ExcludesDir reports whether a directory can be skipped entirely.
func (f *Filter) ExcludesDir(rel string) bool {
	rel = filepath.ToSlash(rel)
	// "dir/**" patterns match the directory's children; probe with a child
	return matchAny(f.exclude, rel) || matchAny(f.exclude, rel+"/x")
}

func matchAny(patterns []string, path string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, path); err == nil && ok {
			return true
		}
	}
	return false
}
