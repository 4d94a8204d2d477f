// Package filelist produces the shallow working directory listing shown in reports.
package filelist

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/runoshun/agent-dispatch/internal/domain"
)

// Lister implements domain.FileLister.
// Fields are ordered to minimize memory padding.
type Lister struct {
	exclude  map[string]struct{}
	maxDepth int
	maxFiles int
}

// Ensure Lister implements domain.FileLister interface.
var _ domain.FileLister = (*Lister)(nil)

// New creates a lister that descends maxDepth levels (1 = top level only),
// skips directories named in exclude, and returns at most maxFiles paths.
func New(maxDepth, maxFiles int, exclude []string) *Lister {
	ex := make(map[string]struct{}, len(exclude))
	for _, name := range exclude {
		ex[name] = struct{}{}
	}
	return &Lister{exclude: ex, maxDepth: maxDepth, maxFiles: maxFiles}
}

// List returns sorted slash-separated paths of regular files relative to dir.
func (l *Lister) List(dir string) ([]string, error) {
	if dir == "" || l.maxFiles <= 0 || l.maxDepth <= 0 {
		return nil, nil
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			// Unreadable entries are left out of the listing
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if path == dir {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return nil
		}
		depth := strings.Count(rel, string(filepath.Separator)) + 1

		if d.IsDir() {
			if _, skip := l.exclude[d.Name()]; skip || depth >= l.maxDepth {
				return fs.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() {
			files = append(files, filepath.ToSlash(rel))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}

	slices.Sort(files)
	if len(files) > l.maxFiles {
		files = files[:l.maxFiles]
	}
	return files, nil
}
