package orchestrator

import (
	"os"
	"strings"
	"time"
)

// Timeout constants for pipeline execution
var (
	// DefaultUpdateTimeout bounds a full update run, including pushes
	DefaultUpdateTimeout = getTimeoutOrDefault("RELEASEBRANCH_UPDATE_TIMEOUT", 30*time.Minute, 5*time.Second)
)

// WorkspaceLockFile is the flock file making exclusive worktree
// ownership explicit for the duration of one update run.
const WorkspaceLockFile = "update.lock"

// isTestEnvironment detects if we're running in a test environment
func isTestEnvironment() bool {
	for _, arg := range os.Args {
		if strings.Contains(arg, ".test") || strings.Contains(arg, "go test") {
			return true
		}
	}
	return os.Getenv("GO_TEST") == "true" || os.Getenv("TEST_MODE") == "true"
}

// getTimeoutOrDefault returns production timeout or test timeout based on environment
func getTimeoutOrDefault(envVar string, prodDefault, testDefault time.Duration) time.Duration {
	if env := os.Getenv(envVar); env != "" {
		if duration, err := time.ParseDuration(env); err == nil {
			return duration
		}
	}
	if isTestEnvironment() {
		return testDefault
	}
	return prodDefault
}
