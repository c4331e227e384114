package naming

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"torex/internal/services"
)

// releasePattern matches a dotted title at the start of a release name that is
// followed by a season/episode marker such as S01E02 or s1e2.
var releasePattern = regexp.MustCompile(`^([A-Za-z0-9_]+(?:\.[A-Za-z0-9_]+)*)\.[Ss]\d\d?[Ee]\d\d?`)

// ResolveTitle returns the series title encoded in a release name.
//
//	Better.Call.Saul.S01E02.720p.HDTV.X264-DIMENSION -> Better Call Saul
//
// Names without a season/episode marker yield an error matching
// services.ErrInvalidTitle.
func ResolveTitle(release string) (string, error) {
	match := releasePattern.FindStringSubmatch(release)
	if match == nil {
		return "", services.Wrap(
			services.ErrInvalidTitle,
			"naming",
			"resolve title",
			"no season/episode marker in "+quote(release),
			nil,
		)
	}
	return strings.Join(strings.Split(match[1], "."), " "), nil
}

// TorrentTitle returns the last path segment of name. Both forward and back
// slashes are treated as separators so Windows client paths work too.
func TorrentTitle(name string) string {
	trimmed := strings.TrimRight(name, `/\`)
	if idx := strings.LastIndexAny(trimmed, `/\`); idx >= 0 {
		return trimmed[idx+1:]
	}
	return trimmed
}

// TitleCase capitalizes each word of title.
func TitleCase(title string) string {
	return cases.Title(language.English).String(title)
}

func quote(value string) string {
	return `"` + value + `"`
}
