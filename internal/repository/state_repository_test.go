package repository

import (
	"context"
	"os"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/compozy/releasebranch/internal/domain"
)

// flock needs real paths, so these tests run on the OS filesystem.
func setupStateRepo(t *testing.T) (StateRepository, string) {
	t.Helper()
	dir := t.TempDir()
	return NewJSONStateRepository(afero.NewOsFs(), dir), dir
}

func newJournal(sessionID string) *domain.PipelineState {
	req := domain.ReleaseRequest{
		ReleaseBranch: "release",
		Version:       "20250101000000.abcdef12",
		UpdateTo:      "deadbeef",
	}
	state := domain.NewPipelineState(sessionID, req)
	state.AddCheckpoint(domain.CheckpointCaptureStaged)
	state.MarkCheckpointStarted(domain.CheckpointCaptureStaged)
	state.MarkCheckpointCompleted(domain.CheckpointCaptureStaged, map[string]any{"paths": []string{"versions.txt"}})
	return state
}

func TestJSONStateRepository_SaveAndLoad(t *testing.T) {
	t.Run("Should roundtrip a journal", func(t *testing.T) {
		repo, _ := setupStateRepo(t)
		ctx := context.Background()
		state := newJournal("session-1")
		require.NoError(t, repo.Save(ctx, state))
		loaded, err := repo.Load(ctx, "session-1")
		require.NoError(t, err)
		assert.Equal(t, state.SessionID, loaded.SessionID)
		assert.Equal(t, state.Version, loaded.Version)
		require.Len(t, loaded.Checkpoints, 1)
		assert.Equal(t, domain.CheckpointStatusCompleted, loaded.Checkpoints[0].Status)
	})
	t.Run("Should fail to load a missing session", func(t *testing.T) {
		repo, _ := setupStateRepo(t)
		_, err := repo.Load(context.Background(), "no-such-session")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "state not found")
	})
	t.Run("Should detect tampered journal files", func(t *testing.T) {
		repo, dir := setupStateRepo(t)
		ctx := context.Background()
		require.NoError(t, repo.Save(ctx, newJournal("session-2")))
		path := dir + "/state-session-2.json"
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		tampered := strings.Replace(string(data), "20250101000000.abcdef12", "99990101000000.deadbeef", 1)
		require.NotEqual(t, string(data), tampered)
		require.NoError(t, os.WriteFile(path, []byte(tampered), 0600))
		_, err = repo.Load(ctx, "session-2")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "checksum mismatch")
	})
}

func TestJSONStateRepository_LoadLatest(t *testing.T) {
	t.Run("Should return the most recently saved journal", func(t *testing.T) {
		repo, _ := setupStateRepo(t)
		ctx := context.Background()
		require.NoError(t, repo.Save(ctx, newJournal("older")))
		require.NoError(t, repo.Save(ctx, newJournal("newer")))
		latest, err := repo.LoadLatest(ctx)
		require.NoError(t, err)
		assert.Equal(t, "newer", latest.SessionID)
	})
	t.Run("Should fail when nothing was ever saved", func(t *testing.T) {
		repo, _ := setupStateRepo(t)
		_, err := repo.LoadLatest(context.Background())
		require.Error(t, err)
	})
}

func TestJSONStateRepository_ExistsAndDelete(t *testing.T) {
	t.Run("Should report existence and remove journals", func(t *testing.T) {
		repo, _ := setupStateRepo(t)
		ctx := context.Background()
		exists, err := repo.Exists(ctx, "session-3")
		require.NoError(t, err)
		assert.False(t, exists)
		require.NoError(t, repo.Save(ctx, newJournal("session-3")))
		exists, err = repo.Exists(ctx, "session-3")
		require.NoError(t, err)
		assert.True(t, exists)
		require.NoError(t, repo.Delete(ctx, "session-3"))
		exists, err = repo.Exists(ctx, "session-3")
		require.NoError(t, err)
		assert.False(t, exists)
	})
	t.Run("Should tolerate deleting a missing journal", func(t *testing.T) {
		repo, _ := setupStateRepo(t)
		require.NoError(t, repo.Delete(context.Background(), "ghost"))
	})
}
