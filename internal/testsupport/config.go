package testsupport

import (
	"path/filepath"
	"testing"

	"torex/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config whose destination, log, lock, and history paths
// live in a per-test temp directory.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Defaults.DestinationDir = filepath.Join(base, "media")
	cfgVal.Defaults.LogFilename = filepath.Join(base, "state", "log.txt")
	cfgVal.Lock.Path = filepath.Join(base, "state", "torex.lock")
	cfgVal.History.Path = filepath.Join(base, "state", "history.db")

	builder := &configBuilder{t: t, baseDir: base, cfg: &cfgVal}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithHistory enables the extraction journal.
func WithHistory() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = true
	}
}

// WithCategory replaces the configuration for label.
func WithCategory(label string, cat config.Category) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Categories[config.NormalizeLabel(label)] = cat
	}
}

// WithOverwrite toggles extraction.overwrite.
func WithOverwrite(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Extraction.Overwrite = enabled
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Defaults.DestinationDir)
}
