package match

import (
	"regexp"
	"strconv"
)

// SeasonEpisode is one season/episode marker extracted from a release name.
// Episode is 0 when the marker carries no episode component (season pack).
type SeasonEpisode struct {
	Season  int
	Episode int
}

var (
	// S01E01, S1E1, SAISON 2, SEASON.3, with ". _ -" or space as optional
	// separators. The episode group only captures the first episode token of
	// combined tags like S05E03E04, MatchesRequest handles the rest.
	sePattern = regexp.MustCompile(`(?i)(?:S|SAISON|SEASON)[ ._-]?(\d{1,2})(?:[ ._-]?E(\d{1,2}))?`)
	// 1x01 style, only consulted when no S-family marker is present.
	xPattern = regexp.MustCompile(`(?i)(\d{1,2})x(\d{1,2})`)
)

// ExtractSeasonEpisode scans a release name for season/episode markers and
// returns every match found. A name can legitimately encode several markers
// (season ranges, combined tags). An empty result means "inconclusive" and
// callers must not reject the release because of it.
func ExtractSeasonEpisode(name string) []SeasonEpisode {
	var out []SeasonEpisode
	matches := sePattern.FindAllStringSubmatch(name, -1)
	if len(matches) == 0 {
		matches = xPattern.FindAllStringSubmatch(name, -1)
	}
	for _, m := range matches {
		season, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		episode := 0
		if m[2] != "" {
			episode, err = strconv.Atoi(m[2])
			if err != nil {
				continue
			}
		}
		out = append(out, SeasonEpisode{Season: season, Episode: episode})
	}
	return out
}

// MatchesRequest reports whether a release name is acceptable for the
// requested season/episode:
//
//   - no target season (movie context): always true
//   - no marker found in the name at all: true (do not over-filter
//     oddly-named releases)
//   - a matching-season marker without an episode component (season pack)
//     or with the exact episode: true
//   - markers found but none satisfying the above: false
//
// Combined multi-episode tags (S05E03E04) only expose their first episode
// token to the pattern, so a request for the second episode of such a tag is
// rejected. Known limitation, kept as-is rather than guessing a policy for
// combined releases.
func MatchesRequest(name string, targetSeason, targetEpisode int) bool {
	if targetSeason == 0 {
		return true
	}

	markers := ExtractSeasonEpisode(name)
	if len(markers) == 0 {
		return true
	}

	for _, m := range markers {
		if m.Season != targetSeason {
			// wrong season, there may be another marker (S01-S05 ranges)
			continue
		}
		if m.Episode == 0 {
			// season pack
			return true
		}
		if m.Episode == targetEpisode {
			return true
		}
	}
	return false
}
