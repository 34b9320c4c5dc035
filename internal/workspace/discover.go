// Package workspace finds element files under a workspace root and parses
// them into elements.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/zjrosen/uuidtrans/internal/log"
)

// ErrNotDirectory is returned when a workspace root is not a directory.
var ErrNotDirectory = errors.New("workspace is not a directory")

// ValidateRoot checks that root exists and is a directory and returns its
// absolute form.
func ValidateRoot(root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve workspace %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("stat workspace: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%s: %w", abs, ErrNotDirectory)
	}
	return abs, nil
}

// Discover walks root and returns the absolute paths of files accepted by
// filter, in lexical order. The order is the registry's processing order.
func Discover(ctx context.Context, root string, filter *Filter) ([]string, error) {
	root, err := ValidateRoot(root)
	if err != nil {
		return nil, err
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			// unreadable subtrees are skipped, not fatal
			log.Warn(log.CatWorkspace, "Skipping unreadable path", "path", path, "error", walkErr)
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if d.IsDir() {
			if rel != "." && filter.ExcludesDir(rel) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && filter.Match(rel) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan workspace: %w", err)
	}

	log.Debug(log.CatWorkspace, "Discovered element files", "root", root, "files", len(files))
	return files, nil
}
