// Package vcs resolves the repository state builds run against so reports
// and the status page can carry a revision stamp.
package vcs

import (
	"errors"
	"fmt"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// ErrNoRepository marks a path that is not inside a git repository, or a
// repository with no commits yet. Builds proceed unstamped in that case.
var ErrNoRepository = errors.New("no git repository")

// Stamp identifies the repository state a build ran against.
type Stamp struct {
	Revision string `json:"revision"`
	Branch   string `json:"branch,omitempty"`
	Dirty    bool   `json:"dirty,omitempty"`
}

// String renders the short form used in reports, e.g. "3f2c1aa8" or
// "3f2c1aa8+dirty". A zero stamp renders empty.
func (s Stamp) String() string {
	if s.Revision == "" {
		return ""
	}
	short := s.Revision
	if len(short) > 8 {
		short = short[:8]
	}
	if s.Dirty {
		return short + "+dirty"
	}
	return short
}

// Describe inspects the repository containing path, walking up parent
// directories to find the .git directory. The worktree status is consulted
// so locally modified trees are flagged dirty.
func Describe(path string) (Stamp, error) {
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return Stamp{}, fmt.Errorf("%w at %s", ErrNoRepository, path)
		}
		return Stamp{}, fmt.Errorf("open repository at %s: %w", path, err)
	}

	head, err := repo.Head()
	if err != nil {
		// A freshly initialized repository has no HEAD commit.
		if errors.Is(err, plumbing.ErrReferenceNotFound) {
			return Stamp{}, fmt.Errorf("%w at %s: no commits", ErrNoRepository, path)
		}
		return Stamp{}, fmt.Errorf("resolve HEAD: %w", err)
	}

	stamp := Stamp{Revision: head.Hash().String()}
	if head.Name().IsBranch() {
		stamp.Branch = head.Name().Short()
	}

	// Dirty detection is best effort: bare repositories have no worktree and
	// a status failure should not block the build from being stamped.
	if wt, err := repo.Worktree(); err == nil {
		if status, err := wt.Status(); err == nil {
			stamp.Dirty = !status.IsClean()
		}
	}

	return stamp, nil
}
