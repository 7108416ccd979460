package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/compozy/releasebranch/internal/domain"
	"github.com/compozy/releasebranch/internal/usecase"
)

// newSetupRemoteCmd creates the setup-remote command
func newSetupRemoteCmd() *cobra.Command {
	var (
		setupRepositoryURL  string
		setupAccessToken    string
		setupUser           string
		setupRepositoryPath string
		setupRemoteName     string
	)
	cmd := &cobra.Command{
		Use:   "setup-remote",
		Short: "Configure the git remote for accessing the release branch",
		Long: `Rewrite the remote URL to embed the access token so later pushes
authenticate non-interactively. The token stays in the local git
configuration for the duration of the CI job and is never committed.

The token can also be provided via the GIT_REMOTE_ACCESS_TOKEN
environment variable. For GitLab CI jobs using the CI_JOB_TOKEN the
user must be set to gitlab-ci-token.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newContainer(logger)
			if err != nil {
				return err
			}
			gitRepo, err := c.gitRepository(setupRepositoryPath)
			if err != nil {
				return err
			}
			token := domain.AccessToken(setupAccessToken)
			if token.Empty() {
				token = c.cfg.Token()
			}
			uc := &usecase.SetupRemoteUseCase{GitRepo: gitRepo}
			created, err := uc.Execute(cmd.Context(), setupRemoteName, setupRepositoryURL, setupUser, token)
			if err != nil {
				return err
			}
			if created {
				logger.Info("New remote created", zap.String("remote", setupRemoteName))
			} else {
				logger.Info("Remote already exists, URL updated", zap.String("remote", setupRemoteName))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&setupRepositoryURL, "repository-url", "",
		"The GitLab or GitHub URL of the repository (e.g. https://gitlab.com/foo/bar.git)")
	cmd.Flags().StringVar(&setupAccessToken, "access-token", "",
		"The token to use when accessing the git remote")
	cmd.Flags().StringVar(&setupUser, "user", "git", "The user to use when accessing the git remote")
	cmd.Flags().StringVar(&setupRepositoryPath, "repository-path", ".", "The path of the git repository")
	cmd.Flags().StringVar(&setupRemoteName, "git-remote-name", "origin",
		"The name of the git remote to set up (will be created if necessary)")
	_ = cmd.MarkFlagRequired("repository-url")
	return cmd
}
