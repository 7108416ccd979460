package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/compozy/releasebranch/internal/domain"
	"github.com/compozy/releasebranch/internal/repository"
)

// CaptureStagedChangesUseCase records the staged change set before any
// worktree mutation begins. Staged state is the sole content source for
// a release, so an empty index or any unstaged tracked modification is
// a hard error.

type CaptureStagedChangesUseCase struct {
	GitRepo repository.GitRepository
}

// Execute runs the use case.
func (uc *CaptureStagedChangesUseCase) Execute(ctx context.Context) (domain.StagedChangeSet, error) {
	if _, err := uc.GitRepo.CurrentBranch(ctx); err != nil {
		return nil, domain.PreconditionError("capture_staged", err)
	}
	unstaged, err := uc.GitRepo.UnstagedPaths(ctx)
	if err != nil {
		return nil, domain.GitOperationError("capture_staged", err)
	}
	if len(unstaged) > 0 {
		return nil, domain.PreconditionError("capture_staged", fmt.Errorf(
			"uncommitted changes present in %s: only staged changes can be merged into the release branch",
			strings.Join(unstaged, ", ")))
	}
	changes, err := uc.GitRepo.StagedChanges(ctx)
	if err != nil {
		return nil, domain.GitOperationError("capture_staged", err)
	}
	if changes.Empty() {
		return nil, domain.PreconditionError("capture_staged",
			errors.New("nothing to release: the index holds no staged changes"))
	}
	return changes, nil
}
