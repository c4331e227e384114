package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"torex/internal/archive"
	"torex/internal/config"
	"torex/internal/logging"
	"torex/internal/services"
	"torex/internal/torrent"
)

// openArchive is replaced in tests.
var openArchive archive.Opener = archive.OpenRAR

type globalFlags struct {
	configFile     string
	destinationDir string
	logFilename    string
	logLevel       string
	logFormat      string
}

type commandContext struct {
	flags *globalFlags
	runID string

	configOnce sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	configErr  error

	log       *slog.Logger
	logCloser io.Closer
}

func newCommandContext(flags *globalFlags) *commandContext {
	return &commandContext{flags: flags, runID: uuid.NewString()}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, path, exists, err := config.Load(strings.TrimSpace(c.flags.configFile))
		if err != nil {
			c.configErr = err
			return
		}
		if err := c.applyFlags(cfg); err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = path
		c.configSeen = exists
	})
	return c.config, c.configErr
}

// applyFlags lets command-line options override the [defaults] section.
func (c *commandContext) applyFlags(cfg *config.Config) error {
	if value := strings.TrimSpace(c.flags.destinationDir); value != "" {
		expanded, err := config.ExpandPath(value)
		if err != nil {
			return fmt.Errorf("--destination_dir: %w", err)
		}
		cfg.Defaults.DestinationDir = expanded
	}
	if value := strings.TrimSpace(c.flags.logFilename); value != "" {
		expanded, err := config.ExpandPath(value)
		if err != nil {
			return fmt.Errorf("--log_filename: %w", err)
		}
		cfg.Defaults.LogFilename = expanded
	}
	if value := strings.TrimSpace(c.flags.logLevel); value != "" {
		cfg.Defaults.LogLevel = strings.ToLower(value)
	}
	if value := strings.TrimSpace(c.flags.logFormat); value != "" {
		cfg.Defaults.LogFormat = strings.ToLower(value)
	}
	return cfg.Validate()
}

// logger returns the invocation logger, creating it on first use. Console
// output goes to the command's stderr.
func (c *commandContext) logger(cmd *cobra.Command) (*slog.Logger, error) {
	if c.log != nil {
		return c.log, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	logger, closer, err := logging.NewFromConfig(cfg, c.runID, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	c.log = logger
	c.logCloser = closer
	return logger, nil
}

// quietLogger is used by read-only commands whose output is the point.
func (c *commandContext) quietLogger(cmd *cobra.Command) (*slog.Logger, error) {
	logger, err := c.logger(cmd)
	if err != nil {
		return nil, err
	}
	return logging.WithLevelOverride(logger, slog.LevelWarn), nil
}

func (c *commandContext) close() {
	if c.logCloser != nil {
		logging.CloseQuietly(c.logCloser)
		c.logCloser = nil
		c.log = nil
	}
}

// reportConfigFailure logs a configuration load error to the console. The file
// sink is unavailable because its settings come from the failed config.
func (c *commandContext) reportConfigFailure(cmd *cobra.Command, err error) {
	logger, closer, logErr := logging.NewFromConfig(nil, c.runID, cmd.ErrOrStderr())
	if logErr != nil {
		return
	}
	defer logging.CloseQuietly(closer)
	logging.ErrorWithContext(logging.NewComponentLogger(logger, "cli"), "configuration failed", "config_load_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorKind, services.Kind(err)),
		logging.String(logging.FieldErrorHint, "run torex config validate"),
	)
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func requestFromArgs(args []string) torrent.Request {
	return torrent.Request{Name: args[0], DownloadDir: args[1], Label: args[2]}
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
