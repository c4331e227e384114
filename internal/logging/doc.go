// Package logging assembles structured slog loggers and formatting helpers used
// across torex.
//
// It owns the console/JSON handlers, routes records to stderr and the rotating
// log file, and stamps every record with the invocation's run identifier. The
// package also provides a no-op logger for tests and pure code paths.
package logging
