// Package gitchanges lists changed files of a git work tree using go-git.
package gitchanges

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/go-git/go-git/v5"

	"github.com/runoshun/agent-dispatch/internal/domain"
)

// Lister implements domain.ChangeLister.
type Lister struct {
	limit int
}

// Ensure Lister implements domain.ChangeLister interface.
var _ domain.ChangeLister = (*Lister)(nil)

// New creates a lister returning at most limit entries.
func New(limit int) *Lister {
	return &Lister{limit: limit}
}

// Changed returns short-status entries ("XY path") for files that differ from
// HEAD, limited to dir when dir is a subdirectory of the work tree.
// Paths are relative to dir.
func (l *Lister) Changed(dir string) ([]string, error) {
	if dir == "" || l.limit <= 0 {
		return nil, nil
	}

	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, nil
		}
		return nil, fmt.Errorf("open repository: %w", err)
	}

	wt, err := repo.Worktree()
	if err != nil {
		// Bare repositories have no work tree
		if errors.Is(err, git.ErrIsBareRepository) {
			return nil, nil
		}
		return nil, fmt.Errorf("get worktree: %w", err)
	}

	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("get status: %w", err)
	}

	prefix, err := subdirPrefix(wt.Filesystem.Root(), dir)
	if err != nil {
		return nil, err
	}

	entries := make([]string, 0, len(status))
	for path, st := range status {
		if st.Staging == git.Unmodified && st.Worktree == git.Unmodified {
			continue
		}
		rel, ok := strings.CutPrefix(path, prefix)
		if !ok {
			continue
		}
		entries = append(entries, fmt.Sprintf("%c%c %s", st.Staging, st.Worktree, rel))
	}

	// Sort by path, not by status code
	slices.SortFunc(entries, func(a, b string) int {
		return strings.Compare(a[3:], b[3:])
	})
	if len(entries) > l.limit {
		entries = entries[:l.limit]
	}
	return entries, nil
}

// subdirPrefix returns dir relative to root as a slash-terminated prefix,
// or "" when dir is the root itself.
func subdirPrefix(root, dir string) (string, error) {
	absRoot, err := filepath.EvalSymlinks(root)
	if err != nil {
		return "", fmt.Errorf("resolve worktree root: %w", err)
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve directory: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(absDir); err == nil {
		absDir = resolved
	}
	rel, err := filepath.Rel(absRoot, absDir)
	if err != nil {
		return "", fmt.Errorf("relative directory: %w", err)
	}
	if rel == "." {
		return "", nil
	}
	return filepath.ToSlash(rel) + "/", nil
}
