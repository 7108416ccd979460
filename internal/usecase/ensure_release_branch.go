package usecase

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/compozy/releasebranch/internal/domain"
	"github.com/compozy/releasebranch/internal/repository"
)

const (
	fetchRetryCount = 3
	fetchRetryDelay = 1 * time.Second
)

// ReleaseBranchPosition describes where the release branch sits after
// positioning.
type ReleaseBranchPosition struct {
	TipSHA       string
	FirstRelease bool
}

// EnsureReleaseBranchUseCase positions the local release branch at its
// remote tip, or seeds it from the update-to commit when the branch does
// not yet exist on the remote (first release). The fetch is the only
// retried operation in the pipeline: it is read-only, so a transient
// network blip must not fail the run before any mutation happened.

type EnsureReleaseBranchUseCase struct {
	GitRepo repository.GitRepository
}

// Execute runs the use case.
func (uc *EnsureReleaseBranchUseCase) Execute(
	ctx context.Context,
	remote, branch, updateTo string,
) (ReleaseBranchPosition, error) {
	err := retry.Do(
		ctx,
		retry.WithMaxRetries(fetchRetryCount, retry.NewExponential(fetchRetryDelay)),
		func(ctx context.Context) error {
			if fetchErr := uc.GitRepo.FetchRemote(ctx, remote); fetchErr != nil {
				if domain.IsKind(fetchErr, domain.KindNetwork) {
					return retry.RetryableError(fetchErr)
				}
				return fetchErr
			}
			return nil
		},
	)
	if err != nil {
		return ReleaseBranchPosition{}, err
	}
	tip, exists, err := uc.GitRepo.RemoteBranchTip(ctx, remote, branch)
	if err != nil {
		return ReleaseBranchPosition{}, domain.GitOperationError("position_branch", err)
	}
	position := ReleaseBranchPosition{TipSHA: tip, FirstRelease: !exists}
	if position.FirstRelease {
		// First release: the branch starts at the update-to commit so the
		// initial commit keeps the same history shape as later ones.
		position.TipSHA = updateTo
	}
	if err := uc.GitRepo.SetBranch(ctx, branch, position.TipSHA); err != nil {
		return ReleaseBranchPosition{}, domain.GitOperationError("position_branch", err)
	}
	if err := uc.GitRepo.CheckoutBranch(ctx, branch, true); err != nil {
		return ReleaseBranchPosition{}, domain.GitOperationError("position_branch", err)
	}
	return position, nil
}
