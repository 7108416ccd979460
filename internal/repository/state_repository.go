package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/afero"

	"github.com/compozy/releasebranch/internal/domain"
)

const (
	// StateSchemaVersion defines the current schema version for journal files
	StateSchemaVersion = "1.0.0"
	// StateFilePermissions defines the permissions for journal files
	StateFilePermissions = 0600
	// StateDirPermissions defines the permissions for the journal directory
	StateDirPermissions = 0700
	// LockTimeout defines the maximum time to wait for a lock
	LockTimeout = 30 * time.Second
	// LockRetryInterval defines the interval between lock retry attempts
	LockRetryInterval = 100 * time.Millisecond
)

// StateRepository persists the pipeline journal so an operator can see
// which checkpoint a failed run stopped at.
type StateRepository interface {
	Save(ctx context.Context, state *domain.PipelineState) error
	Load(ctx context.Context, sessionID string) (*domain.PipelineState, error)
	LoadLatest(ctx context.Context) (*domain.PipelineState, error)
	Delete(ctx context.Context, sessionID string) error
	Exists(ctx context.Context, sessionID string) (bool, error)
}

// StateMetadata contains metadata about the journal file
type StateMetadata struct {
	SchemaVersion string    `json:"schema_version"`
	Checksum      string    `json:"checksum"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// StateWrapper wraps the journal with metadata
type StateWrapper struct {
	Metadata StateMetadata         `json:"metadata"`
	State    *domain.PipelineState `json:"state"`
}

// JSONStateRepository implements StateRepository using JSON file storage
type JSONStateRepository struct {
	fs       afero.Fs
	stateDir string
	mu       sync.RWMutex
}

// NewJSONStateRepository creates a new JSON-based journal repository
func NewJSONStateRepository(fs afero.Fs, stateDir string) StateRepository {
	if stateDir == "" {
		stateDir = ".release-branch-state"
	}
	return &JSONStateRepository{
		fs:       fs,
		stateDir: stateDir,
	}
}

// Save persists the journal to a JSON file under an exclusive file lock.
// Writes are atomic: temp file plus rename.
func (r *JSONStateRepository) Save(ctx context.Context, state *domain.PipelineState) error {
	if err := r.fs.MkdirAll(r.stateDir, StateDirPermissions); err != nil {
		return fmt.Errorf("failed to ensure state directory: %w", err)
	}
	filename := r.stateFilename(state.SessionID)
	unlock, err := r.lockExclusive(ctx, state.SessionID)
	if err != nil {
		return err
	}
	defer unlock()
	wrapper := StateWrapper{
		Metadata: StateMetadata{
			SchemaVersion: StateSchemaVersion,
			CreatedAt:     state.StartedAt,
			UpdatedAt:     time.Now(),
		},
		State: state,
	}
	stateData, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state for checksum: %w", err)
	}
	wrapper.Metadata.Checksum = checksum(stateData)
	data, err := json.MarshalIndent(wrapper, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal state wrapper: %w", err)
	}
	tempFile := filename + ".tmp"
	if err := afero.WriteFile(r.fs, tempFile, data, StateFilePermissions); err != nil {
		return fmt.Errorf("failed to write temp state file: %w", err)
	}
	if err := r.fs.Rename(tempFile, filename); err != nil {
		if removeErr := r.fs.Remove(tempFile); removeErr != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to remove temp file: %v\n", removeErr)
		}
		return fmt.Errorf("failed to rename state file: %w", err)
	}
	return r.updateLatestLink(filename)
}

// Load retrieves a journal by session ID and validates its checksum.
func (r *JSONStateRepository) Load(ctx context.Context, sessionID string) (*domain.PipelineState, error) {
	unlock, err := r.lockShared(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	defer unlock()
	data, err := afero.ReadFile(r.fs, r.stateFilename(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("state not found for session %s", sessionID)
		}
		return nil, fmt.Errorf("failed to read state file: %w", err)
	}
	var wrapper StateWrapper
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state wrapper: %w", err)
	}
	if wrapper.Metadata.SchemaVersion != StateSchemaVersion {
		return nil, fmt.Errorf("incompatible schema version: expected %s, got %s",
			StateSchemaVersion, wrapper.Metadata.SchemaVersion)
	}
	stateData, err := json.Marshal(wrapper.State)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal state for checksum validation: %w", err)
	}
	if wrapper.Metadata.Checksum != checksum(stateData) {
		return nil, fmt.Errorf("state checksum mismatch: data may be corrupted")
	}
	return wrapper.State, nil
}

// LoadLatest retrieves the most recently saved journal.
func (r *JSONStateRepository) LoadLatest(ctx context.Context) (*domain.PipelineState, error) {
	r.mu.RLock()
	data, err := afero.ReadFile(r.fs, r.latestLink())
	r.mu.RUnlock()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("no latest state found")
		}
		return nil, fmt.Errorf("failed to read latest link: %w", err)
	}
	sessionID := r.extractSessionID(string(data))
	if sessionID == "" {
		return nil, fmt.Errorf("invalid latest link target: %s", string(data))
	}
	return r.Load(ctx, sessionID)
}

// Delete removes a journal and its lock file.
func (r *JSONStateRepository) Delete(ctx context.Context, sessionID string) error {
	unlock, err := r.lockExclusive(ctx, sessionID)
	if err != nil {
		return err
	}
	defer unlock()
	if err := r.fs.Remove(r.stateFilename(sessionID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete state file: %w", err)
	}
	if err := r.fs.Remove(r.lockFilename(sessionID)); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "warning: failed to remove lock file: %v\n", err)
	}
	return nil
}

// Exists checks if a journal exists for the session.
func (r *JSONStateRepository) Exists(_ context.Context, sessionID string) (bool, error) {
	_, err := r.fs.Stat(r.stateFilename(sessionID))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check state file: %w", err)
	}
	return true, nil
}

func (r *JSONStateRepository) lockExclusive(ctx context.Context, sessionID string) (func(), error) {
	return acquireLock(ctx, flock.New(r.lockFilename(sessionID)), (*flock.Flock).TryLock)
}

func (r *JSONStateRepository) lockShared(ctx context.Context, sessionID string) (func(), error) {
	return acquireLock(ctx, flock.New(r.lockFilename(sessionID)), (*flock.Flock).TryRLock)
}

// acquireLock polls the flock until acquired or the timeout expires.
// The returned func releases the lock.
func acquireLock(ctx context.Context, lock *flock.Flock, try func(*flock.Flock) (bool, error)) (func(), error) {
	lockCtx, cancel := context.WithTimeout(ctx, LockTimeout)
	defer cancel()
	ticker := time.NewTicker(LockRetryInterval)
	defer ticker.Stop()
	for {
		locked, err := try(lock)
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock: %w", err)
		}
		if locked {
			return func() {
				if unlockErr := lock.Unlock(); unlockErr != nil {
					fmt.Fprintf(os.Stderr, "warning: failed to unlock file: %v\n", unlockErr)
				}
			}, nil
		}
		select {
		case <-lockCtx.Done():
			return nil, fmt.Errorf("could not acquire lock within timeout: %w", lockCtx.Err())
		case <-ticker.C:
		}
	}
}

func checksum(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}

func (r *JSONStateRepository) stateFilename(sessionID string) string {
	return filepath.Join(r.stateDir, fmt.Sprintf("state-%s.json", sessionID))
}

func (r *JSONStateRepository) lockFilename(sessionID string) string {
	return filepath.Join(r.stateDir, fmt.Sprintf(".state-%s.lock", sessionID))
}

func (r *JSONStateRepository) latestLink() string {
	return filepath.Join(r.stateDir, "latest.txt")
}

func (r *JSONStateRepository) updateLatestLink(target string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	link := r.latestLink()
	tempLink := link + ".tmp"
	if err := afero.WriteFile(r.fs, tempLink, []byte(target), StateFilePermissions); err != nil {
		return fmt.Errorf("failed to write temp latest link: %w", err)
	}
	if err := r.fs.Rename(tempLink, link); err != nil {
		if removeErr := r.fs.Remove(tempLink); removeErr != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to remove temp link: %v\n", removeErr)
		}
		return fmt.Errorf("failed to update latest link: %w", err)
	}
	return nil
}

func (r *JSONStateRepository) extractSessionID(filename string) string {
	base := filepath.Base(filename)
	if len(base) > 11 && base[:6] == "state-" && base[len(base)-5:] == ".json" {
		return base[6 : len(base)-5]
	}
	return ""
}
