// Package services defines shared utilities consumed by the torrent handling
// stages (locate, resolve, extract) and the CLI.
//
// Key responsibilities:
//   - Context helpers that stamp run identifiers and stage names for logging.
//   - Structured error markers plus the Wrap helper so callers can classify
//     failures (unsupported torrent, bad configuration, archive failure) with
//     errors.Is regardless of how deeply they were wrapped.
//
// Use these helpers when adding new stages so error reporting stays uniform.
package services
