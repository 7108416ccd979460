package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/compozy/releasebranch/internal/domain"
	"github.com/compozy/releasebranch/internal/repository"
	"github.com/compozy/releasebranch/internal/usecase"
)

// UpdateConfig contains configuration for the update pipeline.
type UpdateConfig struct {
	RepositoryPath string
	StateDir       string
	AllowLocal     bool
}

// pipelineCheckpoints is the strict order of the update pipeline. Each
// checkpoint must complete or fail before the next runs; any failure
// aborts the remaining steps.
var pipelineCheckpoints = []domain.CheckpointType{
	domain.CheckpointCaptureStaged,
	domain.CheckpointCleanWorktree,
	domain.CheckpointPositionBranch,
	domain.CheckpointApplyStaged,
	domain.CheckpointMergeCommit,
	domain.CheckpointCreateTag,
	domain.CheckpointPushBranch,
	domain.CheckpointPushTag,
}

// UpdateOrchestrator drives the release-branch update as a linear
// pipeline of journaled checkpoints. There is no automatic retry and no
// rollback: every failure is fatal and recovery is operator-driven,
// guided by the journal.
type UpdateOrchestrator struct {
	gitRepo   repository.GitRepository
	stateRepo repository.StateRepository
	log       *zap.Logger
	cfg       UpdateConfig
}

// NewUpdateOrchestrator creates a new update orchestrator.
func NewUpdateOrchestrator(
	gitRepo repository.GitRepository,
	stateRepo repository.StateRepository,
	log *zap.Logger,
	cfg UpdateConfig,
) *UpdateOrchestrator {
	return &UpdateOrchestrator{
		gitRepo:   gitRepo,
		stateRepo: stateRepo,
		log:       log,
		cfg:       cfg,
	}
}

// Execute runs the complete update workflow.
func (o *UpdateOrchestrator) Execute(ctx context.Context, req domain.ReleaseRequest) (*domain.Release, error) {
	if err := EnsureCIEnvironment(o.cfg.AllowLocal); err != nil {
		return nil, err
	}
	if err := o.validateRequest(&req); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, DefaultUpdateTimeout)
	defer cancel()
	// Resolve the update-to commit before anything mutates.
	sha, err := o.gitRepo.ResolveRevision(ctx, req.UpdateTo)
	if err != nil {
		return nil, domain.PreconditionError("resolve_update_to", err)
	}
	req.UpdateTo = sha
	// Refuse reused versions before the worktree is touched.
	exists, err := o.gitRepo.TagExists(ctx, req.Version)
	if err != nil {
		return nil, domain.GitOperationError("validate", err)
	}
	if exists {
		return nil, domain.RefConflictError("validate",
			fmt.Errorf("invalid version %q: this tag already exists", req.Version))
	}
	unlock, err := o.acquireWorkspaceLock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	return o.runPipeline(ctx, req)
}

// validateRequest normalizes defaults and checks the request shape.
func (o *UpdateOrchestrator) validateRequest(req *domain.ReleaseRequest) error {
	if req.RemoteName == "" {
		req.RemoteName = "origin"
	}
	if req.UpdateTo == "" {
		req.UpdateTo = "HEAD"
	}
	if err := ValidateBranchName(req.ReleaseBranch); err != nil {
		return domain.PreconditionError("validate", err)
	}
	if err := ValidateTagName(req.Version); err != nil {
		return domain.PreconditionError("validate", err)
	}
	if err := ValidateIdentity(req.Committer); err != nil {
		return domain.PreconditionError("validate", err)
	}
	return nil
}

func (o *UpdateOrchestrator) runPipeline(ctx context.Context, req domain.ReleaseRequest) (*domain.Release, error) {
	state := domain.NewPipelineState(uuid.New().String(), req)
	for _, cp := range pipelineCheckpoints {
		state.AddCheckpoint(cp)
	}
	state.Status = domain.PipelineStatusRunning
	o.log.Info("Starting release branch update",
		zap.String("session", state.SessionID),
		zap.String("version", req.Version),
		zap.String("release_branch", req.ReleaseBranch),
		zap.String("update_to", req.UpdateTo))

	release := &domain.Release{
		Version:    req.Version,
		BranchName: req.ReleaseBranch,
		TagName:    req.Version,
	}
	var changes domain.StagedChangeSet
	var position usecase.ReleaseBranchPosition

	err := o.runCheckpoint(ctx, state, domain.CheckpointCaptureStaged, func(ctx context.Context) (map[string]any, error) {
		uc := &usecase.CaptureStagedChangesUseCase{GitRepo: o.gitRepo}
		var err error
		changes, err = uc.Execute(ctx)
		if err != nil {
			return nil, err
		}
		o.log.Info("Captured staged changes", zap.Strings("paths", changes.Paths()))
		return map[string]any{"paths": changes.Paths()}, nil
	})
	if err != nil {
		return nil, err
	}

	err = o.runCheckpoint(ctx, state, domain.CheckpointCleanWorktree, func(ctx context.Context) (map[string]any, error) {
		if err := o.gitRepo.CleanWorktree(ctx); err != nil {
			return nil, domain.GitOperationError("clean_worktree", err)
		}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	err = o.runCheckpoint(ctx, state, domain.CheckpointPositionBranch, func(ctx context.Context) (map[string]any, error) {
		uc := &usecase.EnsureReleaseBranchUseCase{GitRepo: o.gitRepo}
		var err error
		position, err = uc.Execute(ctx, req.RemoteName, req.ReleaseBranch, req.UpdateTo)
		if err != nil {
			return nil, err
		}
		if position.FirstRelease {
			o.log.Warn("Release branch is absent on the git remote (this is normal when performing the first release)",
				zap.String("release_branch", req.ReleaseBranch))
		}
		release.FirstRelease = position.FirstRelease
		return map[string]any{"tip": position.TipSHA, "first_release": position.FirstRelease}, nil
	})
	if err != nil {
		return nil, err
	}

	err = o.runCheckpoint(ctx, state, domain.CheckpointApplyStaged, func(ctx context.Context) (map[string]any, error) {
		o.log.Info("Applying staged changes to the release branch")
		if err := o.gitRepo.ApplyStagedChanges(ctx, changes); err != nil {
			return nil, domain.GitOperationError("apply_staged", err)
		}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	err = o.runCheckpoint(ctx, state, domain.CheckpointMergeCommit, func(ctx context.Context) (map[string]any, error) {
		o.log.Info("Merging changes into the release branch")
		uc := &usecase.CreateMergeCommitUseCase{GitRepo: o.gitRepo}
		sha, err := uc.Execute(ctx, req, position)
		if err != nil {
			return nil, err
		}
		release.CommitSHA = sha
		return map[string]any{"commit": sha}, nil
	})
	if err != nil {
		return nil, err
	}

	err = o.runCheckpoint(ctx, state, domain.CheckpointCreateTag, func(ctx context.Context) (map[string]any, error) {
		o.log.Info("Tagging release", zap.String("tag", req.Version))
		uc := &usecase.TagReleaseUseCase{GitRepo: o.gitRepo}
		if err := uc.Execute(ctx, req.Version, release.CommitSHA, req.Committer); err != nil {
			return nil, err
		}
		return map[string]any{"tag": req.Version, "commit": release.CommitSHA}, nil
	})
	if err != nil {
		return nil, err
	}

	// Branch push strictly precedes the tag push: a tag must never point
	// at a commit the remote does not have yet.
	err = o.runCheckpoint(ctx, state, domain.CheckpointPushBranch, func(ctx context.Context) (map[string]any, error) {
		if req.DryRun {
			o.log.Info("Running in dry-run mode, git push is skipped")
			return map[string]any{"skip": true}, nil
		}
		o.log.Info("Pushing release branch to remote", zap.String("release_branch", req.ReleaseBranch))
		if err := o.gitRepo.PushBranch(ctx, req.RemoteName, req.ReleaseBranch); err != nil {
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	err = o.runCheckpoint(ctx, state, domain.CheckpointPushTag, func(ctx context.Context) (map[string]any, error) {
		if req.DryRun {
			return map[string]any{"skip": true}, nil
		}
		o.log.Info("Pushing release tag to remote", zap.String("tag", req.Version))
		if err := o.gitRepo.PushTag(ctx, req.RemoteName, req.Version); err != nil {
			return nil, err
		}
		return nil, nil
	})
	if err != nil {
		return nil, err
	}

	state.Status = domain.PipelineStatusCompleted
	o.saveState(ctx, state)
	o.log.Info("Release branch updated",
		zap.String("version", release.Version),
		zap.String("commit", release.CommitSHA))
	return release, nil
}

// runCheckpoint executes one checkpoint and records its outcome in the
// journal. No retries: a failed checkpoint fails the run.
func (o *UpdateOrchestrator) runCheckpoint(
	ctx context.Context,
	state *domain.PipelineState,
	cpType domain.CheckpointType,
	fn func(ctx context.Context) (map[string]any, error),
) error {
	state.MarkCheckpointStarted(cpType)
	o.saveState(ctx, state)
	detail, err := fn(ctx)
	if err != nil {
		state.MarkCheckpointFailed(cpType, err)
		o.saveState(ctx, state)
		return err
	}
	state.MarkCheckpointCompleted(cpType, detail)
	o.saveState(ctx, state)
	return nil
}

// saveState persists the journal; journal failures never fail the run.
func (o *UpdateOrchestrator) saveState(ctx context.Context, state *domain.PipelineState) {
	if err := o.stateRepo.Save(ctx, state); err != nil {
		o.log.Warn("Failed to save pipeline state", zap.Error(err))
	}
}

// acquireWorkspaceLock takes exclusive ownership of the working tree for
// the duration of one run. The lock is released on all exit paths.
func (o *UpdateOrchestrator) acquireWorkspaceLock() (func(), error) {
	dir := filepath.Join(o.cfg.RepositoryPath, o.cfg.StateDir)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, domain.GitOperationError("workspace_lock", err)
	}
	lock := flock.New(filepath.Join(dir, WorkspaceLockFile))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, domain.GitOperationError("workspace_lock", err)
	}
	if !locked {
		return nil, domain.PreconditionError("workspace_lock",
			errors.New("another update already holds the workspace lock"))
	}
	return func() {
		if unlockErr := lock.Unlock(); unlockErr != nil {
			o.log.Warn("Failed to release workspace lock", zap.Error(unlockErr))
		}
	}, nil
}
