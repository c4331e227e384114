package preflight

import (
	"path/filepath"

	"torex/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the filesystem checks for cfg. When destination is non-empty
// it replaces defaults.destination_dir.
func RunAll(cfg *config.Config, destination string) []Result {
	if cfg == nil {
		return nil
	}
	if destination == "" {
		destination = cfg.Defaults.DestinationDir
	}

	results := []Result{
		CheckDirectoryAccess("Destination directory", destination),
		CheckFreeSpace("Destination free space", destination, 0),
	}

	seen := map[string]struct{}{destination: {}}
	for _, label := range cfg.Labels() {
		cat := cfg.Categories[label]
		paths := []string{cat.Path}
		for _, rule := range cat.Specific {
			paths = append(paths, rule.Path)
		}
		for _, p := range paths {
			if !filepath.IsAbs(p) {
				p = filepath.Join(destination, p)
			}
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			results = append(results, CheckWritable("Category "+label, p))
		}
	}

	if cfg.Defaults.LogFilename != "" {
		results = append(results, CheckWritable("Log directory", filepath.Dir(cfg.Defaults.LogFilename)))
	}
	if cfg.History.Enabled {
		results = append(results, CheckWritable("History directory", filepath.Dir(cfg.History.Path)))
	}
	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
