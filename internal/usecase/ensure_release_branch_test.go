package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compozy/releasebranch/internal/domain"
)

func TestEnsureReleaseBranchUseCase(t *testing.T) {
	ctx := context.Background()
	t.Run("Should position the branch at the remote tip", func(t *testing.T) {
		gitRepo := new(mockGitRepository)
		gitRepo.On("FetchRemote", ctx, "origin").Return(nil)
		gitRepo.On("RemoteBranchTip", ctx, "origin", "release").Return("remotetip", true, nil)
		gitRepo.On("SetBranch", ctx, "release", "remotetip").Return(nil)
		gitRepo.On("CheckoutBranch", ctx, "release", true).Return(nil)
		uc := &EnsureReleaseBranchUseCase{GitRepo: gitRepo}
		position, err := uc.Execute(ctx, "origin", "release", "updateto")
		require.NoError(t, err)
		assert.Equal(t, "remotetip", position.TipSHA)
		assert.False(t, position.FirstRelease)
		gitRepo.AssertExpectations(t)
	})
	t.Run("Should seed a missing branch from the update-to commit", func(t *testing.T) {
		gitRepo := new(mockGitRepository)
		gitRepo.On("FetchRemote", ctx, "origin").Return(nil)
		gitRepo.On("RemoteBranchTip", ctx, "origin", "release").Return("", false, nil)
		gitRepo.On("SetBranch", ctx, "release", "updateto").Return(nil)
		gitRepo.On("CheckoutBranch", ctx, "release", true).Return(nil)
		uc := &EnsureReleaseBranchUseCase{GitRepo: gitRepo}
		position, err := uc.Execute(ctx, "origin", "release", "updateto")
		require.NoError(t, err)
		assert.True(t, position.FirstRelease)
		assert.Equal(t, "updateto", position.TipSHA)
	})
	t.Run("Should retry the fetch on network failures", func(t *testing.T) {
		gitRepo := new(mockGitRepository)
		gitRepo.On("FetchRemote", ctx, "origin").
			Return(domain.NetworkError("fetch", errors.New("connection reset"))).Once()
		gitRepo.On("FetchRemote", ctx, "origin").Return(nil).Once()
		gitRepo.On("RemoteBranchTip", ctx, "origin", "release").Return("remotetip", true, nil)
		gitRepo.On("SetBranch", ctx, "release", "remotetip").Return(nil)
		gitRepo.On("CheckoutBranch", ctx, "release", true).Return(nil)
		uc := &EnsureReleaseBranchUseCase{GitRepo: gitRepo}
		_, err := uc.Execute(ctx, "origin", "release", "updateto")
		require.NoError(t, err)
		gitRepo.AssertNumberOfCalls(t, "FetchRemote", 2)
	})
	t.Run("Should not retry authentication failures", func(t *testing.T) {
		gitRepo := new(mockGitRepository)
		gitRepo.On("FetchRemote", ctx, "origin").
			Return(domain.AuthenticationError("fetch", errors.New("401")))
		uc := &EnsureReleaseBranchUseCase{GitRepo: gitRepo}
		_, err := uc.Execute(ctx, "origin", "release", "updateto")
		require.Error(t, err)
		assert.True(t, domain.IsKind(err, domain.KindAuthentication))
		gitRepo.AssertNumberOfCalls(t, "FetchRemote", 1)
	})
	t.Run("Should fail when the checkout cannot complete", func(t *testing.T) {
		gitRepo := new(mockGitRepository)
		gitRepo.On("FetchRemote", ctx, "origin").Return(nil)
		gitRepo.On("RemoteBranchTip", ctx, "origin", "release").Return("remotetip", true, nil)
		gitRepo.On("SetBranch", ctx, "release", "remotetip").Return(nil)
		gitRepo.On("CheckoutBranch", ctx, "release", true).Return(errors.New("worktree busy"))
		uc := &EnsureReleaseBranchUseCase{GitRepo: gitRepo}
		_, err := uc.Execute(ctx, "origin", "release", "updateto")
		require.Error(t, err)
		assert.True(t, domain.IsKind(err, domain.KindGitOperation))
	})
}
