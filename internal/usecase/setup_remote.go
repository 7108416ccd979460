package usecase

import (
	"context"
	"fmt"
	"net/url"

	"github.com/compozy/releasebranch/internal/domain"
	"github.com/compozy/releasebranch/internal/repository"
)

// SetupRemoteUseCase rewrites the named remote's URL to embed the access
// token so later pushes authenticate non-interactively. Idempotent and
// offline: no network call is made here, authentication is exercised
// only when the publisher pushes.

type SetupRemoteUseCase struct {
	GitRepo repository.GitRepository
}

// Execute runs the use case. It reports whether the remote was created
// rather than updated.
func (uc *SetupRemoteUseCase) Execute(
	ctx context.Context,
	remoteName, repositoryURL, user string,
	token domain.AccessToken,
) (bool, error) {
	authURL, err := AuthenticatedURL(repositoryURL, user, token)
	if err != nil {
		return false, err
	}
	created, err := uc.GitRepo.ConfigureRemote(ctx, remoteName, authURL)
	if err != nil {
		return false, domain.GitOperationError("setup_remote", err)
	}
	return created, nil
}

// AuthenticatedURL embeds user:token credentials into the repository URL.
func AuthenticatedURL(repositoryURL, user string, token domain.AccessToken) (string, error) {
	if token.Empty() {
		return "", domain.PreconditionError("setup_remote", fmt.Errorf("access token is required"))
	}
	parsed, err := url.Parse(repositoryURL)
	if err != nil {
		return "", domain.PreconditionError("setup_remote",
			fmt.Errorf("invalid repository URL %q: %w", repositoryURL, err))
	}
	if parsed.Host == "" || parsed.Scheme == "" {
		return "", domain.PreconditionError("setup_remote",
			fmt.Errorf("repository URL %q must be absolute (e.g. https://gitlab.com/foo/bar.git)", repositoryURL))
	}
	parsed.User = url.UserPassword(user, token.Reveal())
	return parsed.String(), nil
}
