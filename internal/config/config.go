package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"torex/internal/services"
)

//go:embed sample_config.toml
var sampleConfig string

// Defaults holds values that also serve as CLI option defaults.
type Defaults struct {
	DestinationDir string `toml:"destination_dir" yaml:"destination_dir" ini:"destination_dir"`
	LogFilename    string `toml:"log_filename" yaml:"log_filename" ini:"log_filename"`
	LogLevel       string `toml:"log_level" yaml:"log_level" ini:"log_level"`
	LogFormat      string `toml:"log_format" yaml:"log_format" ini:"log_format"`
}

// Rule redirects titles matching a regular expression to a different base path.
type Rule struct {
	Title string `toml:"title" yaml:"title"`
	Path  string `toml:"path" yaml:"path"`
}

// Category describes where torrents of one label are extracted.
type Category struct {
	// Path is the base destination. Relative paths live under Defaults.DestinationDir.
	Path string `toml:"path" yaml:"path"`
	// Extensions overrides the label's built-in extraction filter when non-empty.
	Extensions []string `toml:"extensions,omitempty" yaml:"extensions,omitempty"`
	TitleCase  bool     `toml:"title_case" yaml:"title_case"`
	// Specific rules are evaluated in order; the first match wins.
	Specific []Rule `toml:"specific,omitempty" yaml:"specific,omitempty"`
}

// Extraction contains archive handling settings.
type Extraction struct {
	ArchivePattern string `toml:"archive_pattern" yaml:"archive_pattern" ini:"archive_pattern"`
	Overwrite      bool   `toml:"overwrite" yaml:"overwrite" ini:"overwrite"`
	CheckFreeSpace bool   `toml:"check_free_space" yaml:"check_free_space" ini:"check_free_space"`
	Password       string `toml:"password" yaml:"password" ini:"password"`
}

// Lock contains the advisory lock used to serialize invocations.
type Lock struct {
	Path           string `toml:"path" yaml:"path" ini:"path"`
	TimeoutSeconds int    `toml:"timeout_seconds" yaml:"timeout_seconds" ini:"timeout_seconds"`
}

// History contains settings for the extraction journal.
type History struct {
	Enabled bool   `toml:"enabled" yaml:"enabled" ini:"enabled"`
	Path    string `toml:"path" yaml:"path" ini:"path"`
}

// Config encapsulates all configuration values for torex.
type Config struct {
	Defaults   Defaults            `toml:"defaults" yaml:"defaults"`
	Categories map[string]Category `toml:"categories" yaml:"categories"`
	Extraction Extraction          `toml:"extraction" yaml:"extraction"`
	Lock       Lock                `toml:"lock" yaml:"lock"`
	History    History             `toml:"history" yaml:"history"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/torex/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized. The string result is the resolved path and the
// boolean reports whether that file existed.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		data, err := os.ReadFile(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		builtin := cfg.Categories
		cfg.Categories = nil
		if err := decode(resolvedPath, data, &cfg); err != nil {
			return nil, "", false, services.Wrap(services.ErrConfiguration, "config", "parse", resolvedPath, err)
		}
		// A file without categories keeps the built-in tv entry.
		if len(cfg.Categories) == 0 {
			cfg.Categories = builtin
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		info, err := os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		if info.IsDir() {
			return "", false, fmt.Errorf("config path %s is a directory", expanded)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("torex.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// Category returns the configuration block for label.
func (c *Config) Category(label string) (Category, error) {
	key := NormalizeLabel(label)
	cat, ok := c.Categories[key]
	if !ok {
		return Category{}, services.Wrap(
			services.ErrConfiguration,
			"config",
			"lookup category",
			fmt.Sprintf("no [categories.%s] section configured", key),
			nil,
		)
	}
	return cat, nil
}

// Labels returns the configured category labels in sorted order.
func (c *Config) Labels() []string {
	labels := make([]string, 0, len(c.Categories))
	for label := range c.Categories {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// NormalizeLabel converts a category label into its canonical lowercase form.
func NormalizeLabel(label string) string {
	return strings.ToLower(strings.TrimSpace(label))
}

// EnsureDirectories creates directories that hold torex state files.
func (c *Config) EnsureDirectories() error {
	dirs := []string{filepath.Dir(c.Lock.Path)}
	if c.Defaults.LogFilename != "" {
		dirs = append(dirs, filepath.Dir(c.Defaults.LogFilename))
	}
	if c.History.Enabled {
		dirs = append(dirs, filepath.Dir(c.History.Path))
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	expanded, err := expandHome(pathValue)
	if err != nil {
		return "", err
	}
	cleaned := filepath.Clean(expanded)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// expandHome only replaces a leading tilde; relative paths stay relative.
func expandHome(pathValue string) (string, error) {
	if !strings.HasPrefix(pathValue, "~") {
		return pathValue, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	if pathValue == "~" {
		return home, nil
	}
	if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
		return filepath.Join(home, pathValue[2:]), nil
	}
	return pathValue, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
