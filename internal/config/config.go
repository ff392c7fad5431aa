package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	Workspace WorkspaceConfig `yaml:"workspace"`
	Formatter FormatterConfig `yaml:"formatter,omitempty"`
	History   HistoryConfig   `yaml:"history,omitempty"`
	Search    SearchConfig    `yaml:"search,omitempty"`
}

// WorkspaceConfig names the declaration files inside a build tree
type WorkspaceConfig struct {
	SettingsFile string `yaml:"settings_file,omitempty"` // relative to the workspace root
	BuildFile    string `yaml:"build_file,omitempty"`    // per project, relative to its directory
}

// FormatterConfig holds formatter plan configuration
type FormatterConfig struct {
	// RulesFile is an optional YAML rule list that replaces the rules found
	// in the root build script. Relative paths resolve against the root.
	RulesFile    string   `yaml:"rules_file,omitempty"`
	ExcludeDirs  []string `yaml:"exclude_dirs,omitempty"`  // directory names never walked
	UseGitignore *bool    `yaml:"use_gitignore,omitempty"` // honour .gitignore (default true)
}

// HistoryConfig holds resolution history configuration
type HistoryConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"` // default true
	Path    string `yaml:"path,omitempty"`    // empty: ~/.buildcomp/data/<root>.db
	Keep    int    `yaml:"keep,omitempty"`    // snapshots kept per root
}

// SearchConfig holds declaration search configuration
type SearchConfig struct {
	DefaultLimit int `yaml:"default_limit,omitempty"`
}

var defaultExcludeDirs = []string{".git", ".gradle", ".idea", "build", "node_modules", "venv", ".venv"}

// Default returns a configuration with every default applied.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

// DefaultPath returns ~/.buildcomp/config/buildcomp.yaml
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".buildcomp", "config", "buildcomp.yaml"), nil
}

// Load loads configuration from the default config file.
// A missing default file is not an error: defaults apply.
func Load() (*Config, error) {
	configPath, err := DefaultPath()
	if err != nil {
		return nil, err
	}
	cfg, err := LoadFromFile(configPath)
	if IsConfigNotFound(err) {
		return Default(), nil
	}
	return cfg, err
}

// LoadFromFile loads configuration from a specific file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			defaultPath, _ := DefaultPath()
			return nil, &ConfigNotFoundError{
				RequestedPath: path,
				DefaultPath:   defaultPath,
			}
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML configuration, applies defaults and validates it.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// ConfigNotFoundError is returned when config file is not found
type ConfigNotFoundError struct {
	RequestedPath string
	DefaultPath   string
}

func (e *ConfigNotFoundError) Error() string {
	return fmt.Sprintf("config file %s does not exist (default location: %s)\n"+
		"Run 'buildcomp -config %s init' to write one, or drop -config to use the defaults",
		e.RequestedPath, e.DefaultPath, e.RequestedPath)
}

// IsConfigNotFound checks if error is config not found
func IsConfigNotFound(err error) bool {
	var target *ConfigNotFoundError
	return errors.As(err, &target)
}

// expandPath expands ~ and $HOME to the user's home directory
func expandPath(path string) string {
	var rest string
	switch {
	case path == "~" || path == "$HOME":
	case strings.HasPrefix(path, "~/"):
		rest = path[2:]
	case strings.HasPrefix(path, "$HOME/"):
		rest = path[6:]
	default:
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, rest)
}

func boolPtr(v bool) *bool { return &v }

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	if c.Workspace.SettingsFile == "" {
		c.Workspace.SettingsFile = "settings.gradle.kts"
	}
	if c.Workspace.BuildFile == "" {
		c.Workspace.BuildFile = "build.gradle.kts"
	}

	if c.Formatter.RulesFile != "" {
		c.Formatter.RulesFile = expandPath(c.Formatter.RulesFile)
	}
	if c.Formatter.ExcludeDirs == nil {
		c.Formatter.ExcludeDirs = append([]string(nil), defaultExcludeDirs...)
	}
	if c.Formatter.UseGitignore == nil {
		c.Formatter.UseGitignore = boolPtr(true)
	}

	if c.History.Enabled == nil {
		c.History.Enabled = boolPtr(true)
	}
	if c.History.Path != "" {
		c.History.Path = expandPath(c.History.Path)
	}
	if c.History.Keep == 0 {
		c.History.Keep = 50
	}

	if c.Search.DefaultLimit == 0 {
		c.Search.DefaultLimit = 10
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if err := plainFileName("workspace.settings_file", c.Workspace.SettingsFile); err != nil {
		return err
	}
	if err := plainFileName("workspace.build_file", c.Workspace.BuildFile); err != nil {
		return err
	}

	for _, dir := range c.Formatter.ExcludeDirs {
		if strings.TrimSpace(dir) == "" {
			return fmt.Errorf("formatter.exclude_dirs contains an empty entry")
		}
	}

	if c.History.Keep < 0 {
		return fmt.Errorf("history.keep must not be negative, got: %d", c.History.Keep)
	}

	if c.Search.DefaultLimit < 1 || c.Search.DefaultLimit > 1000 {
		return fmt.Errorf("search.default_limit must be between 1 and 1000, got: %d", c.Search.DefaultLimit)
	}

	return nil
}

func plainFileName(key, file string) error {
	if filepath.IsAbs(file) || strings.Contains(filepath.ToSlash(file), "/") {
		return fmt.Errorf("%s must be a plain file name, got: %s", key, file)
	}
	return nil
}

// GitignoreEnabled reports whether the planner honours .gitignore files.
func (c *Config) GitignoreEnabled() bool {
	return c.Formatter.UseGitignore == nil || *c.Formatter.UseGitignore
}

// HistoryEnabled reports whether resolutions are recorded.
func (c *Config) HistoryEnabled() bool {
	return c.History.Enabled == nil || *c.History.Enabled
}

const defaultConfigTemplate = `# buildcomp configuration
#
# Default location: $HOME/.buildcomp/config/buildcomp.yaml
# Every key is optional.

workspace:
  settings_file: settings.gradle.kts
  build_file: build.gradle.kts

formatter:
  # Ordered rule list replacing the spotless rules of the root build script.
  # rules_file: formatter-rules.yaml
  exclude_dirs: [.git, .gradle, .idea, build, node_modules, venv, .venv]
  use_gitignore: true

history:
  enabled: true
  # path: ~/.buildcomp/data/tutorial.db
  keep: 50

search:
  default_limit: 10
`

// WriteDefaultTemplate creates a default configuration file if it does not exist.
// It returns true if a file was created, false if it already existed.
func WriteDefaultTemplate(path string) (bool, error) {
	if path == "" {
		return false, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("failed to stat config file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, []byte(defaultConfigTemplate), 0644); err != nil {
		return false, fmt.Errorf("failed to write config template: %w", err)
	}

	return true, nil
}
