package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"torrentier/logging"
	"torrentier/requester"
	"torrentier/schema"
)

// Unit3DTracker is one structured tracker endpoint plus its API token.
type Unit3DTracker struct {
	URL   string `json:"url"`
	Token string `json:"token"`
}

// Unit3D queries any number of trackers exposing the same torrents/filter API
// and merges their results.
type Unit3D struct {
	trackers []Unit3DTracker
	req      *requester.Requester
}

func NewUnit3D(trackers []Unit3DTracker, req *requester.Requester) *Unit3D {
	return &Unit3D{trackers: trackers, req: req}
}

func (u *Unit3D) Name() schema.Source { return schema.SourceUnit3D }

// flexInt64 decodes JSON numbers that some trackers serialize as strings.
type flexInt64 int64

func (f *flexInt64) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*f = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return err
	}
	*f = flexInt64(n)
	return nil
}

type unit3dItem struct {
	Name         string      `json:"name"`
	Size         flexInt64   `json:"size"`
	InfoHash     string      `json:"info_hash"`
	DownloadLink string      `json:"download_link"`
	Seeders      flexInt64   `json:"seeders"`
	Leechers     flexInt64   `json:"leechers"`
	TMDBID       flexInt64   `json:"tmdb_id"`
	TMDB         flexInt64   `json:"tmdb"`
	IMDBID       string      `json:"imdb_id"`
	IMDB         json.Number `json:"imdb"`
	Attributes   *unit3dItem `json:"attributes"`
}

// merged returns the item with attribute values overriding top-level ones,
// matching responses that nest the payload under "attributes".
func (it unit3dItem) merged() unit3dItem {
	if it.Attributes == nil {
		return it
	}
	m := *it.Attributes
	if m.Name == "" {
		m.Name = it.Name
	}
	if m.InfoHash == "" {
		m.InfoHash = it.InfoHash
	}
	if m.DownloadLink == "" {
		m.DownloadLink = it.DownloadLink
	}
	if m.Size == 0 {
		m.Size = it.Size
	}
	return m
}

type unit3dResponse struct {
	Data []unit3dItem `json:"data"`
}

// Search fans out one request per tracker, per external ID and per parameter
// set (exact episode plus season pack for series), then deduplicates the
// union by info hash. Items without a hash are dropped.
func (u *Unit3D) Search(ctx context.Context, query schema.MediaQuery) []schema.TorrentCandidate {
	var paramSets []url.Values
	base := url.Values{}
	if query.IsSeries() {
		base.Set("seasonNumber", strconv.Itoa(query.Season))
		if query.Episode > 0 {
			base.Set("episodeNumber", strconv.Itoa(query.Episode))
		}
	}
	paramSets = append(paramSets, base)
	if query.IsSeries() && query.Episode > 0 {
		pack := url.Values{}
		pack.Set("seasonNumber", strconv.Itoa(query.Season))
		paramSets = append(paramSets, pack)
	}

	type fetch struct {
		tracker Unit3DTracker
		params  url.Values
	}
	var fetches []fetch
	for _, tracker := range u.trackers {
		for _, common := range paramSets {
			if query.TMDBID > 0 {
				p := cloneValues(common)
				p.Set("tmdbId", strconv.FormatInt(query.TMDBID, 10))
				fetches = append(fetches, fetch{tracker, p})
			}
			if query.ImdbID != "" {
				p := cloneValues(common)
				p.Set("imdbId", strings.TrimPrefix(query.ImdbID, "tt"))
				fetches = append(fetches, fetch{tracker, p})
			}
		}
	}

	results := make(chan []schema.TorrentCandidate, len(fetches))
	var wg sync.WaitGroup
	for _, f := range fetches {
		wg.Add(1)
		go func(f fetch) {
			defer wg.Done()
			results <- u.searchTracker(ctx, f.tracker, f.params)
		}(f)
	}
	wg.Wait()
	close(results)

	seen := make(map[string]struct{})
	var out []schema.TorrentCandidate
	for list := range results {
		for _, c := range list {
			if c.InfoHash == "" {
				continue
			}
			if _, dup := seen[c.InfoHash]; dup {
				continue
			}
			seen[c.InfoHash] = struct{}{}
			out = append(out, c)
		}
	}
	logging.Debug().Int("count", len(out)).Msg("unit3d search done")
	return out
}

func (u *Unit3D) searchTracker(ctx context.Context, tracker Unit3DTracker, params url.Values) []schema.TorrentCandidate {
	params.Set("api_token", tracker.Token)
	fullURL := fmt.Sprintf("%s/api/torrents/filter?%s", strings.TrimRight(tracker.URL, "/"), params.Encode())

	body, err := u.req.GetBytes(ctx, fullURL, nil)
	if err != nil {
		logging.Warn().
			Str("error", logging.MaskSecret(err.Error(), tracker.Token)).
			Str("tracker", tracker.URL).
			Msg("unit3d search failed")
		return nil
	}

	// Responses are either {"data": [...]} or a bare list.
	var items []unit3dItem
	var wrapped unit3dResponse
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Data != nil {
		items = wrapped.Data
	} else if err := json.Unmarshal(body, &items); err != nil {
		logging.Warn().Err(err).Str("tracker", tracker.URL).Msg("unit3d response decode failed")
		return nil
	}

	label := trackerLabel(tracker.URL)
	out := make([]schema.TorrentCandidate, 0, len(items))
	for _, raw := range items {
		it := raw.merged()
		c := schema.TorrentCandidate{
			Name:         it.Name,
			SizeBytes:    int64(it.Size),
			InfoHash:     strings.ToLower(it.InfoHash),
			Source:       schema.SourceUnit3D,
			TrackerLabel: label,
			DownloadURL:  it.DownloadLink,
			Seeders:      int(it.Seeders),
			Leechers:     int(it.Leechers),
			TMDBID:       int64(it.TMDBID),
			IMDBID:       it.IMDBID,
		}
		if c.TMDBID == 0 {
			c.TMDBID = int64(it.TMDB)
		}
		if c.IMDBID == "" && it.IMDB != "" {
			c.IMDBID = "tt" + it.IMDB.String()
		}
		out = append(out, c)
	}
	return out
}

func cloneValues(v url.Values) url.Values {
	out := make(url.Values, len(v))
	for k, vals := range v {
		out[k] = append([]string(nil), vals...)
	}
	return out
}

// trackerLabel shortens a tracker URL to its bare host for display.
func trackerLabel(trackerURL string) string {
	u, err := url.Parse(trackerURL)
	if err != nil || u.Host == "" {
		return trackerURL
	}
	return strings.TrimPrefix(u.Host, "www.")
}
