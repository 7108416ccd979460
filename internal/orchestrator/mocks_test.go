package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/compozy/releasebranch/internal/domain"
)

type mockGitRepository struct {
	mock.Mock
}

func (m *mockGitRepository) CurrentBranch(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *mockGitRepository) StagedChanges(ctx context.Context) (domain.StagedChangeSet, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(domain.StagedChangeSet), args.Error(1)
}

func (m *mockGitRepository) UnstagedPaths(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *mockGitRepository) TagExists(ctx context.Context, tag string) (bool, error) {
	args := m.Called(ctx, tag)
	return args.Bool(0), args.Error(1)
}

func (m *mockGitRepository) ResolveRevision(ctx context.Context, rev string) (string, error) {
	args := m.Called(ctx, rev)
	return args.String(0), args.Error(1)
}

func (m *mockGitRepository) CommitTime(ctx context.Context, sha string) (time.Time, error) {
	args := m.Called(ctx, sha)
	return args.Get(0).(time.Time), args.Error(1)
}

func (m *mockGitRepository) CleanWorktree(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *mockGitRepository) SetBranch(ctx context.Context, name, sha string) error {
	args := m.Called(ctx, name, sha)
	return args.Error(0)
}

func (m *mockGitRepository) CheckoutBranch(ctx context.Context, name string, force bool) error {
	args := m.Called(ctx, name, force)
	return args.Error(0)
}

func (m *mockGitRepository) ApplyStagedChanges(ctx context.Context, changes domain.StagedChangeSet) error {
	args := m.Called(ctx, changes)
	return args.Error(0)
}

func (m *mockGitRepository) CommitWithParents(
	ctx context.Context,
	message string,
	identity domain.Identity,
	authorDate time.Time,
	parents []string,
) (string, error) {
	args := m.Called(ctx, message, identity, authorDate, parents)
	return args.String(0), args.Error(1)
}

func (m *mockGitRepository) CreateTag(ctx context.Context, tag, targetSHA, msg string, identity domain.Identity) error {
	args := m.Called(ctx, tag, targetSHA, msg, identity)
	return args.Error(0)
}

func (m *mockGitRepository) FetchRemote(ctx context.Context, remote string) error {
	args := m.Called(ctx, remote)
	return args.Error(0)
}

func (m *mockGitRepository) RemoteBranchTip(ctx context.Context, remote, branch string) (string, bool, error) {
	args := m.Called(ctx, remote, branch)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *mockGitRepository) PushBranch(ctx context.Context, remote, name string) error {
	args := m.Called(ctx, remote, name)
	return args.Error(0)
}

func (m *mockGitRepository) PushTag(ctx context.Context, remote, tag string) error {
	args := m.Called(ctx, remote, tag)
	return args.Error(0)
}

func (m *mockGitRepository) ConfigureRemote(ctx context.Context, name, url string) (bool, error) {
	args := m.Called(ctx, name, url)
	return args.Bool(0), args.Error(1)
}

// memoryStateRepository keeps journals in memory so tests can inspect
// what the pipeline recorded without touching disk.
type memoryStateRepository struct {
	mu     sync.Mutex
	states map[string]*domain.PipelineState
	latest string
}

func newMemoryStateRepository() *memoryStateRepository {
	return &memoryStateRepository{states: make(map[string]*domain.PipelineState)}
}

func (r *memoryStateRepository) Save(_ context.Context, state *domain.PipelineState) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states[state.SessionID] = state
	r.latest = state.SessionID
	return nil
}

func (r *memoryStateRepository) Load(_ context.Context, sessionID string) (*domain.PipelineState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	state, ok := r.states[sessionID]
	if !ok {
		return nil, fmt.Errorf("state not found for session %s", sessionID)
	}
	return state, nil
}

func (r *memoryStateRepository) LoadLatest(_ context.Context) (*domain.PipelineState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.latest == "" {
		return nil, fmt.Errorf("no latest state found")
	}
	return r.states[r.latest], nil
}

func (r *memoryStateRepository) Delete(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.states, sessionID)
	return nil
}

func (r *memoryStateRepository) Exists(_ context.Context, sessionID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.states[sessionID]
	return ok, nil
}
