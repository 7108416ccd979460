package cmd

import (
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/compozy/releasebranch/internal/config"
	"github.com/compozy/releasebranch/internal/orchestrator"
	"github.com/compozy/releasebranch/internal/repository"
)

// container holds all the dependencies for the application.

type container struct {
	cfg    *config.Config
	log    *zap.Logger
	fsRepo repository.FileSystemRepository
}

// newContainer creates a new container with all the dependencies.
func newContainer(log *zap.Logger) (*container, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, err
	}
	fsRepo := repository.FileSystemRepository(afero.NewOsFs())
	return &container{
		cfg:    cfg,
		log:    log,
		fsRepo: fsRepo,
	}, nil
}

// gitRepository opens the git repository at the given path.
func (c *container) gitRepository(path string) (repository.GitRepository, error) {
	return repository.NewGitRepository(path, c.fsRepo)
}

// stateRepository returns the pipeline journal store rooted in the repository.
func (c *container) stateRepository(path string) repository.StateRepository {
	return repository.NewJSONStateRepository(c.fsRepo, filepath.Join(path, c.cfg.StateDir))
}

// updateOrchestrator wires the update pipeline for one repository path.
func (c *container) updateOrchestrator(path string) (*orchestrator.UpdateOrchestrator, error) {
	gitRepo, err := c.gitRepository(path)
	if err != nil {
		return nil, err
	}
	return orchestrator.NewUpdateOrchestrator(gitRepo, c.stateRepository(path), c.log, orchestrator.UpdateConfig{
		RepositoryPath: path,
		StateDir:       c.cfg.StateDir,
		AllowLocal:     c.cfg.AllowLocal,
	}), nil
}

// InitCommands initializes all commands with their dependencies
func InitCommands() error {
	rootCmd.AddCommand(newUpdateCmd())
	rootCmd.AddCommand(newSetupRemoteCmd())
	rootCmd.AddCommand(newVersionCmd())
	return nil
}
