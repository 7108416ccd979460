package repository

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"
	"github.com/spf13/afero"

	"github.com/compozy/releasebranch/internal/domain"
)

// gitRepository is the go-git backed implementation of GitRepository.

type gitRepository struct {
	repo *git.Repository
	fs   afero.Fs
	path string
}

// NewGitRepository opens the repository at path. The afero filesystem is
// used for every worktree write so the content path stays testable.
func NewGitRepository(path string, fs FileSystemRepository) (GitRepository, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository at %s: %w", path, err)
	}
	return &gitRepository{repo: repo, fs: fs, path: path}, nil
}

// CurrentBranch returns the symbolic name of the checked-out branch.
func (r *gitRepository) CurrentBranch(_ context.Context) (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("failed to get HEAD: %w", err)
	}
	if !head.Name().IsBranch() {
		return "", fmt.Errorf("HEAD is detached at %s", head.Hash())
	}
	return head.Name().Short(), nil
}

// StagedChanges captures the staged change set from the index, reading
// blob contents from the object store rather than the worktree. Index
// order is preserved; staged deletions follow, sorted by path.
func (r *gitRepository) StagedChanges(_ context.Context) (domain.StagedChangeSet, error) {
	w, err := r.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}
	status, err := w.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}
	idx, err := r.repo.Storer.Index()
	if err != nil {
		return nil, fmt.Errorf("failed to read index: %w", err)
	}
	var changes domain.StagedChangeSet
	for _, entry := range idx.Entries {
		if !isStagedCode(status.File(entry.Name).Staging) {
			continue
		}
		change, err := r.stagedChangeFromEntry(entry)
		if err != nil {
			return nil, err
		}
		changes = append(changes, change)
	}
	changes = append(changes, stagedDeletions(status)...)
	return changes, nil
}

func (r *gitRepository) stagedChangeFromEntry(entry *index.Entry) (domain.StagedChange, error) {
	blob, err := r.repo.BlobObject(entry.Hash)
	if err != nil {
		return domain.StagedChange{}, fmt.Errorf("failed to read staged blob for %s: %w", entry.Name, err)
	}
	reader, err := blob.Reader()
	if err != nil {
		return domain.StagedChange{}, fmt.Errorf("failed to open staged blob for %s: %w", entry.Name, err)
	}
	defer reader.Close()
	content, err := io.ReadAll(reader)
	if err != nil {
		return domain.StagedChange{}, fmt.Errorf("failed to read staged content for %s: %w", entry.Name, err)
	}
	mode, err := entry.Mode.ToOSFileMode()
	if err != nil {
		return domain.StagedChange{}, fmt.Errorf("failed to convert file mode for %s: %w", entry.Name, err)
	}
	return domain.StagedChange{Path: entry.Name, Content: content, Mode: mode}, nil
}

func stagedDeletions(status git.Status) domain.StagedChangeSet {
	var deleted []string
	for path, st := range status {
		if st.Staging == git.Deleted {
			deleted = append(deleted, path)
		}
	}
	sort.Strings(deleted)
	var changes domain.StagedChangeSet
	for _, path := range deleted {
		changes = append(changes, domain.StagedChange{Path: path, Deleted: true})
	}
	return changes
}

func isStagedCode(code git.StatusCode) bool {
	switch code {
	case git.Added, git.Modified, git.Renamed, git.Copied:
		return true
	default:
		return false
	}
}

// UnstagedPaths returns tracked files with modifications not in the index.
func (r *gitRepository) UnstagedPaths(_ context.Context) ([]string, error) {
	w, err := r.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}
	status, err := w.Status()
	if err != nil {
		return nil, fmt.Errorf("failed to get status: %w", err)
	}
	var paths []string
	for path, st := range status {
		if st.Worktree == git.Modified || st.Worktree == git.Deleted {
			paths = append(paths, path)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// TagExists checks if a tag exists.
func (r *gitRepository) TagExists(_ context.Context, tag string) (bool, error) {
	_, err := r.repo.Tag(tag)
	if err == git.ErrTagNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check tag %s: %w", tag, err)
	}
	return true, nil
}

// ResolveRevision resolves a revision (branch, tag, sha, HEAD) to a commit sha.
func (r *gitRepository) ResolveRevision(_ context.Context, rev string) (string, error) {
	hash, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return "", fmt.Errorf("failed to resolve revision %s: %w", rev, err)
	}
	return hash.String(), nil
}

// CommitTime returns the committer timestamp of the given commit.
func (r *gitRepository) CommitTime(_ context.Context, sha string) (time.Time, error) {
	commit, err := r.repo.CommitObject(plumbing.NewHash(sha))
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to get commit %s: %w", sha, err)
	}
	return commit.Committer.When, nil
}

// CleanWorktree removes untracked files and directories from the worktree.
func (r *gitRepository) CleanWorktree(_ context.Context) error {
	w, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	if err := w.Clean(&git.CleanOptions{Dir: true}); err != nil {
		return fmt.Errorf("failed to clean worktree: %w", err)
	}
	return nil
}

// SetBranch creates or moves the local branch ref to the given commit.
func (r *gitRepository) SetBranch(_ context.Context, name, sha string) error {
	ref := plumbing.NewHashReference(plumbing.NewBranchReferenceName(name), plumbing.NewHash(sha))
	if err := r.repo.Storer.SetReference(ref); err != nil {
		return fmt.Errorf("failed to set branch %s to %s: %w", name, sha, err)
	}
	return nil
}

// CheckoutBranch switches to the specified branch.
func (r *gitRepository) CheckoutBranch(_ context.Context, name string, force bool) error {
	w, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	err = w.Checkout(&git.CheckoutOptions{
		Branch: plumbing.NewBranchReferenceName(name),
		Force:  force,
	})
	if err != nil {
		return fmt.Errorf("failed to checkout branch %s: %w", name, err)
	}
	return nil
}

// ApplyStagedChanges writes the captured change set onto the worktree and
// re-stages every touched path.
func (r *gitRepository) ApplyStagedChanges(_ context.Context, changes domain.StagedChangeSet) error {
	w, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}
	for _, change := range changes {
		if change.Deleted {
			if err := r.applyDeletion(w, change.Path); err != nil {
				return err
			}
			continue
		}
		if err := r.applyContent(w, change); err != nil {
			return err
		}
	}
	return nil
}

func (r *gitRepository) applyDeletion(w *git.Worktree, path string) error {
	exists, err := afero.Exists(r.fs, filepath.Join(r.path, path))
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", path, err)
	}
	if !exists {
		// Already absent on the release branch; nothing to delete.
		return nil
	}
	if _, err := w.Remove(path); err != nil {
		return fmt.Errorf("failed to stage deletion of %s: %w", path, err)
	}
	return nil
}

func (r *gitRepository) applyContent(w *git.Worktree, change domain.StagedChange) error {
	target := filepath.Join(r.path, change.Path)
	if err := r.fs.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return fmt.Errorf("failed to create directory for %s: %w", change.Path, err)
	}
	mode := change.Mode
	if mode == 0 {
		mode = 0644
	}
	if err := afero.WriteFile(r.fs, target, change.Content, mode); err != nil {
		return fmt.Errorf("failed to write %s: %w", change.Path, err)
	}
	if _, err := w.Add(change.Path); err != nil {
		return fmt.Errorf("failed to stage %s: %w", change.Path, err)
	}
	return nil
}

// CommitWithParents creates a commit from the current index with an
// explicit parent list. This is how the merge commit records ancestry
// from the update-to commit without merging its content.
func (r *gitRepository) CommitWithParents(
	_ context.Context,
	message string,
	identity domain.Identity,
	authorDate time.Time,
	parents []string,
) (string, error) {
	w, err := r.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("failed to get worktree: %w", err)
	}
	if authorDate.IsZero() {
		authorDate = time.Now()
	}
	parentHashes := make([]plumbing.Hash, 0, len(parents))
	for _, parent := range parents {
		parentHashes = append(parentHashes, plumbing.NewHash(parent))
	}
	hash, err := w.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  identity.Name,
			Email: identity.Email,
			When:  authorDate,
		},
		Committer: &object.Signature{
			Name:  identity.Name,
			Email: identity.Email,
			When:  time.Now(),
		},
		Parents: parentHashes,
	})
	if err != nil {
		return "", fmt.Errorf("failed to create commit: %w", err)
	}
	return hash.String(), nil
}

// CreateTag creates an annotated tag pointing at the target commit.
func (r *gitRepository) CreateTag(_ context.Context, tag, targetSHA, msg string, identity domain.Identity) error {
	_, err := r.repo.CreateTag(tag, plumbing.NewHash(targetSHA), &git.CreateTagOptions{
		Message: msg,
		Tagger: &object.Signature{
			Name:  identity.Name,
			Email: identity.Email,
			When:  time.Now(),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create tag %s: %w", tag, err)
	}
	return nil
}

// FetchRemote fetches branch and tag refs from the named remote.
func (r *gitRepository) FetchRemote(ctx context.Context, remoteName string) error {
	remote, err := r.repo.Remote(remoteName)
	if err != nil {
		return fmt.Errorf("failed to get remote %s: %w", remoteName, err)
	}
	err = remote.FetchContext(ctx, &git.FetchOptions{
		Tags: git.AllTags,
		Auth: r.getAuth(),
	})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		// An empty remote is a valid first-release target.
		if errors.Is(err, transport.ErrEmptyRemoteRepository) {
			return nil
		}
		return classifyRemoteError("fetch", err)
	}
	return nil
}

// RemoteBranchTip returns the commit the remote-tracking branch points at.
func (r *gitRepository) RemoteBranchTip(_ context.Context, remoteName, branch string) (string, bool, error) {
	ref, err := r.repo.Reference(plumbing.NewRemoteReferenceName(remoteName, branch), true)
	if err == plumbing.ErrReferenceNotFound {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to resolve remote branch %s/%s: %w", remoteName, branch, err)
	}
	return ref.Hash().String(), true, nil
}

// PushBranch pushes a branch ref to the remote.
func (r *gitRepository) PushBranch(ctx context.Context, remoteName, name string) error {
	err := r.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: remoteName,
		RefSpecs:   []gitconfig.RefSpec{gitconfig.RefSpec(fmt.Sprintf("refs/heads/%s:refs/heads/%s", name, name))},
		Auth:       r.getAuth(),
	})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return classifyRemoteError("push_branch", err)
	}
	return nil
}

// PushTag pushes a tag ref to the remote.
func (r *gitRepository) PushTag(ctx context.Context, remoteName, tag string) error {
	err := r.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: remoteName,
		RefSpecs:   []gitconfig.RefSpec{gitconfig.RefSpec(fmt.Sprintf("refs/tags/%s:refs/tags/%s", tag, tag))},
		Auth:       r.getAuth(),
	})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return classifyRemoteError("push_tag", err)
	}
	return nil
}

// ConfigureRemote creates the named remote or rewrites its URL in place.
func (r *gitRepository) ConfigureRemote(_ context.Context, name, url string) (bool, error) {
	cfg, err := r.repo.Config()
	if err != nil {
		return false, fmt.Errorf("failed to get config: %w", err)
	}
	if remote, ok := cfg.Remotes[name]; ok {
		remote.URLs = []string{url}
		if err := r.repo.Storer.SetConfig(cfg); err != nil {
			return false, fmt.Errorf("failed to update remote %s: %w", name, err)
		}
		return false, nil
	}
	_, err = r.repo.CreateRemote(&gitconfig.RemoteConfig{Name: name, URLs: []string{url}})
	if err != nil {
		return false, fmt.Errorf("failed to create remote %s: %w", name, err)
	}
	return true, nil
}

// getAuth returns credential fallback for CI environments where the
// remote URL does not already embed the token.
func (r *gitRepository) getAuth() *http.BasicAuth {
	token := os.Getenv("GIT_REMOTE_ACCESS_TOKEN")
	if token == "" {
		token = os.Getenv("RELEASEBRANCH_ACCESS_TOKEN")
	}
	if token == "" {
		return nil
	}
	user := os.Getenv("GIT_REMOTE_USER")
	if user == "" {
		user = "git"
	}
	return &http.BasicAuth{
		Username: user,
		Password: token,
	}
}

// classifyRemoteError maps transport failures onto the error taxonomy.
func classifyRemoteError(checkpoint string, err error) error {
	if errors.Is(err, transport.ErrAuthenticationRequired) || errors.Is(err, transport.ErrAuthorizationFailed) {
		return domain.AuthenticationError(checkpoint, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return domain.NetworkError(checkpoint, err)
	}
	return domain.GitOperationError(checkpoint, err)
}
