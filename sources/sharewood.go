package sources

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"torrentier/logging"
	"torrentier/requester"
	"torrentier/schema"
)

const defaultSharewoodBaseURL = "https://www.sharewood.tv/api"

// Sharewood searches the passkey-in-path API. The passkey is part of every
// URL, so it is stripped from anything logged.
type Sharewood struct {
	passkey string
	baseURL string
	req     *requester.Requester
}

func NewSharewood(passkey string, req *requester.Requester) *Sharewood {
	return &Sharewood{passkey: passkey, baseURL: defaultSharewoodBaseURL, req: req}
}

func (s *Sharewood) Name() schema.Source { return schema.SourceSharewood }

type sharewoodItem struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	InfoHash    string `json:"info_hash"`
	DownloadURL string `json:"download_url"`
	Seeders     int    `json:"seeders"`
	Leechers    int    `json:"leechers"`
}

// Search runs two parallel text queries and unions the results by hash: for movies
// "title year" then the bare title, for series the exact episode then the
// season pack.
func (s *Sharewood) Search(ctx context.Context, query schema.MediaQuery) []schema.TorrentCandidate {
	if s.passkey == "" {
		return nil
	}

	var queries []string
	if query.IsSeries() {
		if query.Episode > 0 {
			queries = append(queries, episodeQuery(query.Title, query.Season, query.Episode))
		}
		queries = append(queries, seasonQuery(query.Title, query.Season))
	} else {
		queries = append(queries, strings.TrimSpace(query.Title+" "+query.Year), query.Title)
	}

	lists := make([][]schema.TorrentCandidate, len(queries))
	var wg sync.WaitGroup
	for i, q := range queries {
		wg.Add(1)
		go func(i int, q string) {
			defer wg.Done()
			lists[i] = s.search(ctx, q)
		}(i, q)
	}
	wg.Wait()
	return unionByHash(lists...)
}

func (s *Sharewood) search(ctx context.Context, query string) []schema.TorrentCandidate {
	searchURL := fmt.Sprintf("%s/%s/search?name=%s", s.baseURL, s.passkey, url.QueryEscape(query))

	var items []sharewoodItem
	if err := s.req.GetJSON(ctx, searchURL, nil, &items); err != nil {
		logging.Warn().
			Str("error", logging.MaskSecret(err.Error(), s.passkey)).
			Msg("sharewood search failed")
		return nil
	}
	logging.Debug().Int("count", len(items)).Str("query", query).Msg("sharewood search done")

	out := make([]schema.TorrentCandidate, 0, len(items))
	for _, it := range items {
		out = append(out, schema.TorrentCandidate{
			Name:         it.Name,
			SizeBytes:    it.Size,
			InfoHash:     strings.ToLower(it.InfoHash),
			Source:       schema.SourceSharewood,
			TrackerLabel: "Sharewood",
			DownloadURL:  it.DownloadURL,
			Seeders:      it.Seeders,
			Leechers:     it.Leechers,
		})
	}
	return out
}
