package usecase

import (
	"context"
	"fmt"

	"github.com/compozy/releasebranch/internal/domain"
	"github.com/compozy/releasebranch/internal/repository"
)

// TagReleaseUseCase binds the version string, verbatim, to the produced
// commit. Re-releasing an existing version is always an error; the tag
// namespace is the append-only audit trail this tool exists to keep.

type TagReleaseUseCase struct {
	GitRepo repository.GitRepository
}

// Execute runs the use case.
func (uc *TagReleaseUseCase) Execute(ctx context.Context, version, targetSHA string, identity domain.Identity) error {
	exists, err := uc.GitRepo.TagExists(ctx, version)
	if err != nil {
		return domain.GitOperationError("create_tag", err)
	}
	if exists {
		return domain.RefConflictError("create_tag",
			fmt.Errorf("invalid version %q: this tag already exists", version))
	}
	msg := fmt.Sprintf("release %s", version)
	if err := uc.GitRepo.CreateTag(ctx, version, targetSHA, msg, identity); err != nil {
		return domain.GitOperationError("create_tag", err)
	}
	return nil
}
