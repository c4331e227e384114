package config

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"torex/internal/services"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateDefaults(); err != nil {
		return err
	}
	if err := c.validateCategories(); err != nil {
		return err
	}
	return c.validateExtraction()
}

func (c *Config) validateDefaults() error {
	if strings.TrimSpace(c.Defaults.DestinationDir) == "" {
		return invalid("defaults.destination_dir must be set")
	}
	switch c.Defaults.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return invalid("defaults.log_level %q is not one of debug, info, warn, error", c.Defaults.LogLevel)
	}
	return nil
}

func (c *Config) validateCategories() error {
	if len(c.Categories) == 0 {
		return invalid("at least one category must be configured")
	}
	for _, label := range c.Labels() {
		if label == "" {
			return invalid("category labels must not be empty")
		}
		cat := c.Categories[label]
		if strings.TrimSpace(cat.Path) == "" {
			return invalid("categories.%s.path is required", label)
		}
		for idx, rule := range cat.Specific {
			if rule.Title == "" {
				return invalid("categories.%s.specific[%d].title is required", label, idx)
			}
			if _, err := regexp.Compile(rule.Title); err != nil {
				return invalid("categories.%s.specific[%d].title is not a valid pattern: %v", label, idx, err)
			}
			if rule.Path == "" {
				return invalid("categories.%s.specific[%d].path is required", label, idx)
			}
		}
	}
	return nil
}

func (c *Config) validateExtraction() error {
	if _, err := filepath.Match(c.Extraction.ArchivePattern, ""); err != nil {
		return invalid("extraction.archive_pattern %q is not a valid glob: %v", c.Extraction.ArchivePattern, err)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", services.ErrConfiguration, fmt.Sprintf(format, args...))
}
