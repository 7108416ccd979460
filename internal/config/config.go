package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/compozy/releasebranch/internal/domain"
)

type Config struct {
	RemoteName   string `mapstructure:"remote_name"`
	GitUserName  string `mapstructure:"git_user_name"`
	GitUserEmail string `mapstructure:"git_user_email"`
	StateDir     string `mapstructure:"state_dir"`
	AllowLocal   bool   `mapstructure:"allow_local"`
	AccessToken  string `mapstructure:"access_token"`
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		RemoteName: "origin",
		StateDir:   ".release-branch-state",
	}
}

// Token returns the access token as a redacting credential value.
func (c *Config) Token() domain.AccessToken {
	return domain.AccessToken(strings.TrimSpace(c.AccessToken))
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.RemoteName == "" {
		return fmt.Errorf("remote_name cannot be empty")
	}
	if c.StateDir == "" {
		return fmt.Errorf("state_dir cannot be empty")
	}
	// Check for path traversal in the state directory
	if strings.Contains(c.StateDir, "..") {
		return fmt.Errorf("state_dir contains invalid path traversal")
	}
	if c.GitUserEmail != "" && !strings.Contains(c.GitUserEmail, "@") {
		return fmt.Errorf("invalid git_user_email: %s", c.GitUserEmail)
	}
	return nil
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName(".release-branch")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	// Configure environment variables
	viper.SetEnvPrefix("RELEASEBRANCH")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	// Explicitly bind environment variables
	// BindEnv allows multiple env vars - it will check them in order
	if err := viper.BindEnv("access_token", "GIT_REMOTE_ACCESS_TOKEN", "RELEASEBRANCH_ACCESS_TOKEN"); err != nil {
		return nil, fmt.Errorf("failed to bind access_token env: %w", err)
	}
	if err := viper.BindEnv("remote_name", "RELEASEBRANCH_REMOTE_NAME"); err != nil {
		return nil, fmt.Errorf("failed to bind remote_name env: %w", err)
	}
	if err := viper.BindEnv("git_user_name", "RELEASEBRANCH_GIT_USER_NAME"); err != nil {
		return nil, fmt.Errorf("failed to bind git_user_name env: %w", err)
	}
	if err := viper.BindEnv("git_user_email", "RELEASEBRANCH_GIT_USER_EMAIL"); err != nil {
		return nil, fmt.Errorf("failed to bind git_user_email env: %w", err)
	}
	if err := viper.BindEnv("state_dir", "RELEASEBRANCH_STATE_DIR"); err != nil {
		return nil, fmt.Errorf("failed to bind state_dir env: %w", err)
	}
	if err := viper.BindEnv("allow_local", "RELEASEBRANCH_ALLOW_LOCAL"); err != nil {
		return nil, fmt.Errorf("failed to bind allow_local env: %w", err)
	}
	// Set defaults
	defaults := DefaultConfig()
	viper.SetDefault("remote_name", defaults.RemoteName)
	viper.SetDefault("state_dir", defaults.StateDir)
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	// Validate configuration
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &config, nil
}
