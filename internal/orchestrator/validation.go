package orchestrator

import (
	"fmt"
	"strings"

	"github.com/compozy/releasebranch/internal/domain"
)

// ValidateBranchName validates a git branch name.
func ValidateBranchName(branch string) error {
	if branch == "" {
		return fmt.Errorf("branch name cannot be empty")
	}
	if len(branch) > 255 {
		return fmt.Errorf("branch name too long: %d characters (max: 255)", len(branch))
	}
	if strings.HasPrefix(branch, "/") || strings.HasSuffix(branch, "/") {
		return fmt.Errorf("branch name cannot start or end with slash: %s", branch)
	}
	return validateRefName("branch", branch)
}

// ValidateTagName validates the version string as a git ref name only.
// The version is otherwise opaque: no semantic interpretation happens.
func ValidateTagName(tag string) error {
	if tag == "" {
		return fmt.Errorf("version cannot be empty")
	}
	if strings.HasPrefix(tag, "-") {
		return fmt.Errorf("version cannot start with a dash: %s", tag)
	}
	return validateRefName("version", tag)
}

func validateRefName(what, name string) error {
	if strings.Contains(name, "..") {
		return fmt.Errorf("%s cannot contain consecutive dots: %s", what, name)
	}
	if strings.HasSuffix(name, ".lock") {
		return fmt.Errorf("%s cannot end with .lock: %s", what, name)
	}
	for _, r := range name {
		switch {
		case r <= 0x20 || r == 0x7f:
			return fmt.Errorf("%s cannot contain whitespace or control characters: %q", what, name)
		case strings.ContainsRune("~^:?*[\\", r):
			return fmt.Errorf("%s contains character %q forbidden in git refs: %s", what, r, name)
		}
	}
	return nil
}

// ValidateIdentity checks the author/committer identity for the merge commit.
func ValidateIdentity(identity domain.Identity) error {
	if identity.Name == "" {
		return fmt.Errorf("git user name cannot be empty")
	}
	if identity.Email == "" {
		return fmt.Errorf("git user email cannot be empty")
	}
	if !strings.Contains(identity.Email, "@") {
		return fmt.Errorf("invalid git user email: %s", identity.Email)
	}
	return nil
}
