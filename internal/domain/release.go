package domain

import "fmt"

// Identity is the author/committer identity stamped on the merge commit.
type Identity struct {
	Name  string
	Email string
}

// ReleaseRequest carries the caller-supplied inputs for one update run.
//
// Version is opaque: it is used verbatim as the tag name and never parsed.
type ReleaseRequest struct {
	ReleaseBranch string
	Version       string
	UpdateTo      string
	CommitMessage string
	RemoteName    string
	Committer     Identity
	DryRun        bool
}

// Message returns the merge commit message, defaulting to "release <version>".
func (r ReleaseRequest) Message() string {
	if r.CommitMessage != "" {
		return r.CommitMessage
	}
	return fmt.Sprintf("release %s", r.Version)
}

// Release is the outcome of a completed update run.
type Release struct {
	Version      string
	BranchName   string
	TagName      string
	CommitSHA    string
	FirstRelease bool
}
