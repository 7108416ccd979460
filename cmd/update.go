package cmd

import (
	"github.com/spf13/cobra"

	"github.com/compozy/releasebranch/internal/domain"
)

// newUpdateCmd creates the update command
func newUpdateCmd() *cobra.Command {
	var (
		updateVersion        string
		updateReleaseBranch  string
		updateCommitMsg      string
		updateTo             string
		updateRepositoryPath string
		updateRemoteName     string
		updateUserName       string
		updateUserEmail      string
		updateDryRun         bool
	)
	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update the release branch",
		Long: `Fold the staged changes into the release branch as a single merge
commit, tag it with the release version and push branch and tag to the
remote.

The repository must contain staged changes and nothing else: any
unstaged modification of a tracked file aborts the run. Untracked files
are removed before merging, so the command refuses to run outside CI
unless RELEASEBRANCH_ALLOW_LOCAL is set.

In GitLab CI jobs --update-to can be the CI_COMMIT_SHA variable and
--repository-path the CI_PROJECT_DIR variable. In GitHub Actions use
GITHUB_SHA and GITHUB_WORKSPACE.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := newContainer(logger)
			if err != nil {
				return err
			}
			orch, err := c.updateOrchestrator(updateRepositoryPath)
			if err != nil {
				return err
			}
			req := domain.ReleaseRequest{
				ReleaseBranch: updateReleaseBranch,
				Version:       updateVersion,
				UpdateTo:      updateTo,
				CommitMessage: updateCommitMsg,
				RemoteName:    firstNonEmpty(updateRemoteName, c.cfg.RemoteName),
				Committer: domain.Identity{
					Name:  firstNonEmpty(updateUserName, c.cfg.GitUserName),
					Email: firstNonEmpty(updateUserEmail, c.cfg.GitUserEmail),
				},
				DryRun: updateDryRun,
			}
			_, err = orch.Execute(cmd.Context(), req)
			return err
		},
	}
	cmd.Flags().StringVar(&updateVersion, "version", "",
		"The release version; the merge commit on the release branch is tagged with this value")
	cmd.Flags().StringVar(&updateReleaseBranch, "release-branch", "", "The name of the release branch to be updated")
	cmd.Flags().StringVar(&updateCommitMsg, "commit-msg", "",
		"The commit message for the merge commit (defaults to \"release <version>\")")
	cmd.Flags().StringVar(&updateTo, "update-to", "",
		"The commit up to which changes are merged into the release branch (defaults to HEAD)")
	cmd.Flags().StringVar(&updateRepositoryPath, "repository-path", ".", "The path of the git repository")
	cmd.Flags().StringVar(&updateRemoteName, "git-remote-name", "",
		"The name of the git remote to use for accessing the release branch")
	cmd.Flags().StringVar(&updateUserName, "git-user-name", "",
		"The author/committer name to use for the merge commit")
	cmd.Flags().StringVar(&updateUserEmail, "git-user-email", "",
		"The author/committer email address to use for the merge commit")
	cmd.Flags().BoolVar(&updateDryRun, "dry-run", false,
		"Update the release branch locally without pushing it to the remote")
	_ = cmd.MarkFlagRequired("version")
	_ = cmd.MarkFlagRequired("release-branch")
	return cmd
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
