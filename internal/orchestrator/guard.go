package orchestrator

import (
	"errors"
	"os"

	"github.com/compozy/releasebranch/internal/domain"
)

// EnsureCIEnvironment is the pre-flight gate for destructive operations.
// The update pipeline removes every untracked file from the worktree, so
// outside CI it refuses to run unless the operator opted in explicitly.
func EnsureCIEnvironment(allowLocal bool) error {
	if os.Getenv("CI") != "" {
		return nil
	}
	if allowLocal {
		return nil
	}
	return domain.PreconditionError("safety_guard", errors.New(
		"not running in CI: update destructively cleans the working tree; "+
			"set RELEASEBRANCH_ALLOW_LOCAL=true to run anyway"))
}
