package logging

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/natefinch/lumberjack.v2"

	"torex/internal/config"
)

const (
	defaultMaxSizeMB  = 10
	defaultMaxBackups = 5
)

// Options describes logger construction parameters.
type Options struct {
	// Level applies to the log file. The console never shows records below info.
	Level string
	// Format selects the log file encoding: "console" or "json".
	Format string
	// Console receives human-readable output. Nil means os.Stderr.
	Console io.Writer
	// DisableConsole suppresses console output entirely.
	DisableConsole bool
	// FilePath is the rotating log file. Empty disables the file sink.
	FilePath   string
	MaxSizeMB  int
	MaxBackups int
	// RunID is attached to every record when set.
	RunID string
}

// New constructs a slog logger using the provided options. The returned closer
// releases the log file and must be called before exit.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, err
	}
	format := strings.ToLower(strings.TrimSpace(opts.Format))
	if format == "" {
		format = "console"
	}
	if format != "console" && format != "json" {
		return nil, nil, fmt.Errorf("log format: unsupported value %q", opts.Format)
	}

	levelVar := new(slog.LevelVar)
	levelVar.Set(level)
	addSource := level <= slog.LevelDebug

	var routes []route
	if !opts.DisableConsole {
		console := opts.Console
		if console == nil {
			console = os.Stderr
		}
		routes = append(routes, route{
			handler: newPrettyHandler(console, levelVar, false, true),
			floor:   max(level, slog.LevelInfo),
		})
	}

	var closer io.Closer = nopCloser{}
	if path := strings.TrimSpace(opts.FilePath); path != "" {
		file := &lumberjack.Logger{
			Filename:   path,
			MaxSize:    positiveOr(opts.MaxSizeMB, defaultMaxSizeMB),
			MaxBackups: positiveOr(opts.MaxBackups, defaultMaxBackups),
		}
		closer = file
		out := route{floor: level}
		if format == "json" {
			out.handler = newJSONHandler(file, levelVar, addSource)
		} else {
			out.handler = newPrettyHandler(file, levelVar, addSource, false)
		}
		routes = append(routes, out)
	}

	handler := newRouter(opts.RunID, routes...)
	return slog.New(handler), closer, nil
}

// NewFromConfig creates a logger using the [defaults] section of cfg, with
// console output going to console.
func NewFromConfig(cfg *config.Config, runID string, console io.Writer) (*slog.Logger, io.Closer, error) {
	if cfg == nil {
		return New(Options{Level: "info", Console: console, RunID: runID})
	}
	return New(Options{
		Level:    cfg.Defaults.LogLevel,
		Format:   cfg.Defaults.LogFormat,
		Console:  console,
		FilePath: cfg.Defaults.LogFilename,
		RunID:    runID,
	})
}

// ParseLevel converts a configured level name into a slog level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("log level: unsupported value %q", level)
	}
}

func positiveOr(value, fallback int) int {
	if value > 0 {
		return value
	}
	return fallback
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// CloseQuietly closes c, ignoring errors for already closed sinks.
func CloseQuietly(c io.Closer) {
	if c == nil {
		return
	}
	if err := c.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		fmt.Fprintf(os.Stderr, "close log: %v\n", err)
	}
}
