package sources

import (
	"context"
	"fmt"

	"torrentier/schema"
)

// Searcher is the common adapter contract. Implementations never let an
// upstream failure escape: timeouts, auth failures and malformed payloads are
// logged and degrade to an empty (or partial) result.
type Searcher interface {
	Name() schema.Source
	Search(ctx context.Context, query schema.MediaQuery) []schema.TorrentCandidate
}

// episodeQuery renders the text query for one specific episode,
// e.g. "Slow Horses S04E02".
func episodeQuery(title string, season, episode int) string {
	return fmt.Sprintf("%s S%02dE%02d", title, season, episode)
}

// seasonQuery renders the text query for a season pack, e.g. "Slow Horses S04".
func seasonQuery(title string, season int) string {
	return fmt.Sprintf("%s S%02d", title, season)
}

// unionByHash merges result slices, keeping the first candidate seen for each
// info hash. Hashless candidates are always kept.
func unionByHash(lists ...[]schema.TorrentCandidate) []schema.TorrentCandidate {
	var out []schema.TorrentCandidate
	seen := make(map[string]struct{})
	for _, list := range lists {
		for _, c := range list {
			if c.InfoHash != "" {
				if _, dup := seen[c.InfoHash]; dup {
					continue
				}
				seen[c.InfoHash] = struct{}{}
			}
			out = append(out, c)
		}
	}
	return out
}

// unionByReleaseID merges result slices by tracker-local release ID, for
// sources whose list responses do not carry the hash yet.
func unionByReleaseID(lists ...[]schema.TorrentCandidate) []schema.TorrentCandidate {
	var out []schema.TorrentCandidate
	seen := make(map[string]struct{})
	for _, list := range lists {
		for _, c := range list {
			if c.ReleaseID != "" {
				if _, dup := seen[c.ReleaseID]; dup {
					continue
				}
				seen[c.ReleaseID] = struct{}{}
			}
			out = append(out, c)
		}
	}
	return out
}
