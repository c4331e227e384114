// Package config loads, normalizes, and validates torex configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), and reads TOML, YAML, or INI files depending on the file
// extension. The Config type centralizes the destination root, per-category
// destination rules, extraction behaviour, locking, and history settings so the
// CLI can resolve everything in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical category labels, and clear validation errors.
package config
