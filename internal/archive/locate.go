package archive

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"torex/internal/services"
)

// DefaultPattern selects RAR archives.
const DefaultPattern = "*.rar"

// Locate returns the path of the single archive in dir whose name matches
// pattern. Subdirectories are not searched.
func Locate(fsys afero.Fs, dir, pattern string) (string, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	entries, err := afero.ReadDir(fsys, dir)
	if err != nil {
		return "", services.Wrap(services.ErrUnsupportedTorrent, "archive", "list download directory", dir, err)
	}

	var matches []string
	for _, entry := range entries {
		if !entry.Mode().IsRegular() {
			continue
		}
		ok, err := filepath.Match(pattern, entry.Name())
		if err != nil {
			return "", services.Wrap(services.ErrConfiguration, "archive", "match archive pattern", pattern, err)
		}
		if ok {
			matches = append(matches, entry.Name())
		}
	}

	switch len(matches) {
	case 0:
		return "", services.Wrap(services.ErrUnsupportedTorrent, "archive", "locate", "no RAR archives found", nil)
	case 1:
		return filepath.Join(dir, matches[0]), nil
	default:
		return "", services.Wrap(
			services.ErrUnsupportedTorrent,
			"archive",
			"locate",
			fmt.Sprintf("more than one RAR archive found (%s)", strings.Join(matches, ", ")),
			nil,
		)
	}
}
