package repository

import (
	"context"
	"time"

	"github.com/compozy/releasebranch/internal/domain"
)

// GitRepository defines the git operations the release pipeline needs.

type GitRepository interface {
	// Inspection
	CurrentBranch(ctx context.Context) (string, error)
	StagedChanges(ctx context.Context) (domain.StagedChangeSet, error)
	UnstagedPaths(ctx context.Context) ([]string, error)
	TagExists(ctx context.Context, tag string) (bool, error)
	ResolveRevision(ctx context.Context, rev string) (string, error)
	CommitTime(ctx context.Context, sha string) (time.Time, error)
	// Worktree and ref mutation
	CleanWorktree(ctx context.Context) error
	SetBranch(ctx context.Context, name, sha string) error
	CheckoutBranch(ctx context.Context, name string, force bool) error
	ApplyStagedChanges(ctx context.Context, changes domain.StagedChangeSet) error
	CommitWithParents(
		ctx context.Context,
		message string,
		identity domain.Identity,
		authorDate time.Time,
		parents []string,
	) (string, error)
	CreateTag(ctx context.Context, tag, targetSHA, msg string, identity domain.Identity) error
	// Remote operations
	FetchRemote(ctx context.Context, remote string) error
	RemoteBranchTip(ctx context.Context, remote, branch string) (string, bool, error)
	PushBranch(ctx context.Context, remote, name string) error
	PushTag(ctx context.Context, remote, tag string) error
	ConfigureRemote(ctx context.Context, name, url string) (created bool, err error)
}
