package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	debugMode bool
	logger    *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "release-branch",
	Short: "A tool for maintaining a release branch in git repositories",
	Long: `release-branch folds staged, release-specific changes into a long-lived
release branch as a single merge commit, tags it with the release version
and pushes branch and tag to the remote.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		var err error
		logger, err = newLogger(debugMode)
		return err
	},
	PersistentPostRun: func(_ *cobra.Command, _ []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Run in debug mode (verbose logging)")
}

func Execute() error {
	return rootCmd.Execute()
}

func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = true
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}
