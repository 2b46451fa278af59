package config

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/spiffcs/activity/internal/activity"
	"github.com/spiffcs/activity/internal/log"
)

// Config represents the application configuration
type Config struct {
	Target              string   `yaml:"target,omitempty"`
	Branch              string   `yaml:"branch,omitempty"`
	HeadingLevel        int      `yaml:"heading_level,omitempty"`
	Tags                []string `yaml:"tags,omitempty"`
	IgnoredContributors []string `yaml:"ignore_contributors,omitempty"`
	TagPattern          string   `yaml:"tag_pattern,omitempty"`

	IncludeIssues *bool `yaml:"include_issues,omitempty"`
	IncludeOpened *bool `yaml:"include_opened,omitempty"`
	StripBrackets *bool `yaml:"strip_brackets,omitempty"`

	Thresholds *ThresholdOverrides `yaml:"thresholds,omitempty"`
}

// ThresholdOverrides allows customizing the comment-count cutoffs used
// for contributor attribution
type ThresholdOverrides struct {
	ItemResponses  *int `yaml:"item_responses,omitempty"`
	HelperItems    *int `yaml:"helper_items,omitempty"`
	OthersComments *int `yaml:"others_comments,omitempty"`
}

// GetThresholds returns attribution thresholds with user overrides
// merged with defaults
func (c *Config) GetThresholds() activity.Thresholds {
	thresholds := activity.DefaultThresholds()
	if c.Thresholds == nil {
		return thresholds
	}
	if v := c.Thresholds.ItemResponses; v != nil {
		thresholds.ItemResponses = *v
	}
	if v := c.Thresholds.HelperItems; v != nil {
		thresholds.HelperItems = *v
	}
	if v := c.Thresholds.OthersComments; v != nil {
		thresholds.OthersComments = *v
	}
	return thresholds
}

// DefaultConfigDir returns the default config directory
func DefaultConfigDir() string {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return ".activity"
	}
	return filepath.Join(configDir, "activity")
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// LocalConfigPath returns the path to the local config file in the current directory
func LocalConfigPath() string {
	return ".activity.yaml"
}

// ConfigFileExists returns true if the config file exists on disk
func ConfigFileExists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// Load loads the configuration from disk.
// It first loads the global config from XDG config directory, then merges
// any local .activity.yaml config on top (local values take precedence).
// A .env file in the working directory is loaded into the environment
// first so token lookups can see it.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Debug("no .env file loaded", "error", err)
	}

	cfg := &Config{}

	globalPath := ConfigPath()
	if _, err := os.Stat(globalPath); err == nil {
		data, err := os.ReadFile(globalPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read global config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse global config file: %w", err)
		}
	}

	localPath := LocalConfigPath()
	if _, err := os.Stat(localPath); err == nil {
		data, err := os.ReadFile(localPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read local config file: %w", err)
		}
		var localCfg Config
		if err := yaml.Unmarshal(data, &localCfg); err != nil {
			return nil, fmt.Errorf("failed to parse local config file: %w", err)
		}
		cfg = mergeConfig(cfg, &localCfg)
	}

	return cfg, nil
}

// mergeConfig merges local config on top of global config.
// Local values take precedence; unset local values preserve global values.
func mergeConfig(global, local *Config) *Config {
	merged := *global

	if local.Target != "" {
		merged.Target = local.Target
	}
	if local.Branch != "" {
		merged.Branch = local.Branch
	}
	if local.HeadingLevel != 0 {
		merged.HeadingLevel = local.HeadingLevel
	}
	if len(local.Tags) > 0 {
		merged.Tags = local.Tags
	}
	if len(local.IgnoredContributors) > 0 {
		merged.IgnoredContributors = local.IgnoredContributors
	}
	if local.TagPattern != "" {
		merged.TagPattern = local.TagPattern
	}
	if local.IncludeIssues != nil {
		merged.IncludeIssues = local.IncludeIssues
	}
	if local.IncludeOpened != nil {
		merged.IncludeOpened = local.IncludeOpened
	}
	if local.StripBrackets != nil {
		merged.StripBrackets = local.StripBrackets
	}
	merged.Thresholds = mergeThresholds(global.Thresholds, local.Thresholds)

	return &merged
}

func mergeThresholds(global, local *ThresholdOverrides) *ThresholdOverrides {
	if global == nil {
		return local
	}
	if local == nil {
		return global
	}
	merged := *global
	if local.ItemResponses != nil {
		merged.ItemResponses = local.ItemResponses
	}
	if local.HelperItems != nil {
		merged.HelperItems = local.HelperItems
	}
	if local.OthersComments != nil {
		merged.OthersComments = local.OthersComments
	}
	return &merged
}

// Save saves the configuration to disk
func (c *Config) Save() error {
	configDir := DefaultConfigDir()

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(ConfigPath(), data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetToken resolves the GitHub token. Precedence: the explicit flag
// value, then GITHUB_ACCESS_TOKEN, then GITHUB_TOKEN, then the gh CLI's
// stored credential.
func GetToken(flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}

	for _, key := range []string{"GITHUB_ACCESS_TOKEN", "GITHUB_TOKEN"} {
		if token, ok := os.LookupEnv(key); ok {
			if token == "" {
				return "", fmt.Errorf("%s is set but empty", key)
			}
			log.Debug("using token from environment", "variable", key)
			return token, nil
		}
	}

	if out, err := exec.Command("gh", "auth", "token").Output(); err == nil {
		if token := strings.TrimSpace(string(out)); token != "" {
			log.Debug("using token from gh cli")
			return token, nil
		}
	}

	return "", fmt.Errorf("no GitHub token found: set GITHUB_ACCESS_TOKEN or GITHUB_TOKEN, " +
		"pass --auth, or log in with `gh auth login`. " +
		"Tokens can be generated at https://github.com/settings/tokens/new")
}

// ConfigPathInfo contains information about config file paths
type ConfigPathInfo struct {
	GlobalPath   string
	GlobalExists bool
	LocalPath    string
	LocalExists  bool
}

// GetConfigPaths returns path info for both global and local configs
func GetConfigPaths() ConfigPathInfo {
	globalPath := ConfigPath()
	localPath := LocalConfigPath()

	absLocalPath, err := filepath.Abs(localPath)
	if err != nil {
		absLocalPath = localPath
	}

	_, globalErr := os.Stat(globalPath)
	_, localErr := os.Stat(localPath)

	return ConfigPathInfo{
		GlobalPath:   globalPath,
		GlobalExists: globalErr == nil,
		LocalPath:    absLocalPath,
		LocalExists:  localErr == nil,
	}
}

// ToYAML returns the config as a YAML string
func (c *Config) ToYAML() (string, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("failed to marshal config: %w", err)
	}
	return string(data), nil
}

// MinimalConfig returns a minimal config template with comments
func MinimalConfig() string {
	return `# Activity configuration file

# Default target when none is given on the command line (optional)
# target: jupyter/notebook

# Only report PRs merged into this branch (optional)
# branch: main

# Restrict report sections to these categories (optional)
# tags:
#   - new
#   - bug
#   - maintenance

# Contributors to exclude from attribution, glob patterns allowed (optional)
# ignore_contributors:
#   - pre-commit-ci*
#   - "*-automation"

# Attribution thresholds (optional)
# thresholds:
#   item_responses: 6
#   helper_items: 6
#   others_comments: 2
`
}

// SaveTo writes content to a specific path, creating directories as needed
func SaveTo(path string, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write file %s: %w", path, err)
	}

	return nil
}
