package domain

import "io/fs"

// StagedChange is a single index entry captured before the worktree is
// cleaned. Staged state is the sole content source for a release.
type StagedChange struct {
	Path    string
	Content []byte
	Mode    fs.FileMode
	Deleted bool
}

// StagedChangeSet preserves index order.
type StagedChangeSet []StagedChange

// Empty reports whether there is nothing to release.
func (s StagedChangeSet) Empty() bool {
	return len(s) == 0
}

// Paths returns the touched paths in index order.
func (s StagedChangeSet) Paths() []string {
	paths := make([]string, 0, len(s))
	for _, change := range s {
		paths = append(paths, change.Path)
	}
	return paths
}
