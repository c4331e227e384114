package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeDefaults(); err != nil {
		return err
	}
	if err := c.normalizeCategories(); err != nil {
		return err
	}
	c.normalizeExtraction()
	if err := c.normalizeLock(); err != nil {
		return err
	}
	return c.normalizeHistory()
}

func (c *Config) normalizeDefaults() error {
	if value, ok := os.LookupEnv(envDestinationDir); ok && strings.TrimSpace(value) != "" {
		c.Defaults.DestinationDir = strings.TrimSpace(value)
	}
	var err error
	if c.Defaults.DestinationDir, err = expandPath(strings.TrimSpace(c.Defaults.DestinationDir)); err != nil {
		return fmt.Errorf("defaults.destination_dir: %w", err)
	}
	if c.Defaults.LogFilename, err = expandPath(strings.TrimSpace(c.Defaults.LogFilename)); err != nil {
		return fmt.Errorf("defaults.log_filename: %w", err)
	}
	c.Defaults.LogLevel = strings.ToLower(strings.TrimSpace(c.Defaults.LogLevel))
	if c.Defaults.LogLevel == "" {
		c.Defaults.LogLevel = defaultLogLevel
	}
	c.Defaults.LogFormat = strings.ToLower(strings.TrimSpace(c.Defaults.LogFormat))
	switch c.Defaults.LogFormat {
	case "", "console":
		c.Defaults.LogFormat = "console"
	case "json":
	default:
		c.Defaults.LogFormat = "console"
	}
	return nil
}

func (c *Config) normalizeCategories() error {
	normalized := make(map[string]Category, len(c.Categories))
	for label, cat := range c.Categories {
		key := NormalizeLabel(label)
		path, err := expandHome(strings.TrimSpace(cat.Path))
		if err != nil {
			return fmt.Errorf("categories.%s.path: %w", key, err)
		}
		cat.Path = path
		cat.Extensions = NormalizeExtensions(cat.Extensions)
		rules := make([]Rule, 0, len(cat.Specific))
		for idx, rule := range cat.Specific {
			rulePath, err := expandHome(strings.TrimSpace(rule.Path))
			if err != nil {
				return fmt.Errorf("categories.%s.specific[%d].path: %w", key, idx, err)
			}
			rules = append(rules, Rule{Title: strings.TrimSpace(rule.Title), Path: rulePath})
		}
		cat.Specific = rules
		normalized[key] = cat
	}
	c.Categories = normalized
	return nil
}

// NormalizeExtensions lowercases extensions, adds a leading dot, and drops
// blanks and duplicates while preserving order.
func NormalizeExtensions(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, value := range values {
		ext := strings.ToLower(strings.TrimSpace(value))
		if ext == "" || ext == "." {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, ok := seen[ext]; ok {
			continue
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (c *Config) normalizeExtraction() {
	c.Extraction.ArchivePattern = strings.TrimSpace(c.Extraction.ArchivePattern)
	if c.Extraction.ArchivePattern == "" {
		c.Extraction.ArchivePattern = defaultArchivePattern
	}
	if c.Extraction.Password == "" {
		if value, ok := os.LookupEnv(envArchivePassword); ok {
			c.Extraction.Password = value
		}
	}
}

func (c *Config) normalizeLock() error {
	if strings.TrimSpace(c.Lock.Path) == "" {
		c.Lock.Path = defaultLockPath
	}
	var err error
	if c.Lock.Path, err = expandPath(strings.TrimSpace(c.Lock.Path)); err != nil {
		return fmt.Errorf("lock.path: %w", err)
	}
	if c.Lock.TimeoutSeconds <= 0 {
		c.Lock.TimeoutSeconds = defaultLockTimeout
	}
	return nil
}

func (c *Config) normalizeHistory() error {
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = defaultHistoryPath
	}
	var err error
	if c.History.Path, err = expandPath(strings.TrimSpace(c.History.Path)); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	return nil
}
