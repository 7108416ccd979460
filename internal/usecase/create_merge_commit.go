package usecase

import (
	"context"

	"github.com/compozy/releasebranch/internal/domain"
	"github.com/compozy/releasebranch/internal/repository"
)

// CreateMergeCommitUseCase builds the release commit from the current
// index: tree = release tip tree + staged diff, parents = [prior release
// tip, update-to commit]. This is an explicit two-parent commit, not a
// content merge; only ancestry from the update-to commit is recorded.
// A first release degenerates to a single parent in the same path.

type CreateMergeCommitUseCase struct {
	GitRepo repository.GitRepository
}

// Execute runs the use case.
func (uc *CreateMergeCommitUseCase) Execute(
	ctx context.Context,
	req domain.ReleaseRequest,
	position ReleaseBranchPosition,
) (string, error) {
	// The author timestamp mirrors the update-to commit so the release
	// history lines up with the commit that triggered it.
	authorDate, err := uc.GitRepo.CommitTime(ctx, req.UpdateTo)
	if err != nil {
		return "", domain.GitOperationError("merge_commit", err)
	}
	parents := []string{position.TipSHA, req.UpdateTo}
	if position.FirstRelease || position.TipSHA == req.UpdateTo {
		parents = []string{req.UpdateTo}
	}
	sha, err := uc.GitRepo.CommitWithParents(ctx, req.Message(), req.Committer, authorDate, parents)
	if err != nil {
		return "", domain.GitOperationError("merge_commit", err)
	}
	return sha, nil
}
