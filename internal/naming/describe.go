package naming

import (
	"fmt"

	ptn "github.com/razsteinmetz/go-ptn"
)

// ReleaseInfo holds metadata parsed from a release name. Fields are empty when
// the parser could not recognize them.
type ReleaseInfo struct {
	Title      string
	Season     int
	Episode    int
	Year       int
	Resolution string
	Quality    string
	Codec      string
	Group      string
}

// Describe parses release with the scene naming parser. Failures produce an
// empty ReleaseInfo.
func Describe(release string) ReleaseInfo {
	parsed, err := ptn.Parse(release)
	if err != nil || parsed == nil {
		return ReleaseInfo{}
	}
	return ReleaseInfo{
		Title:      parsed.Title,
		Season:     parsed.Season,
		Episode:    parsed.Episode,
		Year:       parsed.Year,
		Resolution: parsed.Resolution,
		Quality:    parsed.Quality,
		Codec:      parsed.Codec,
		Group:      parsed.Group,
	}
}

// Marker formats the season/episode pair as S01E02, or "" when unknown.
func (r ReleaseInfo) Marker() string {
	if r.Season <= 0 && r.Episode <= 0 {
		return ""
	}
	return fmt.Sprintf("S%02dE%02d", r.Season, r.Episode)
}
