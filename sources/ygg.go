package sources

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"torrentier/logging"
	"torrentier/requester"
	"torrentier/schema"
)

const (
	defaultYGGBaseURL = "https://yggapi.eu"
	yggVideoCategory  = "2145"
)

// YGG searches an YGG API mirror. List results omit the info hash, so every
// hit needs a second per-torrent detail fetch. The passkey is only required
// for downloads, never for searching.
type YGG struct {
	passkey string
	baseURL string
	req     *requester.Requester
}

func NewYGG(passkey, baseURL string, req *requester.Requester) *YGG {
	if baseURL == "" {
		baseURL = defaultYGGBaseURL
	}
	return &YGG{passkey: passkey, baseURL: strings.TrimRight(baseURL, "/"), req: req}
}

func (y *YGG) Name() schema.Source { return schema.SourceYGG }

type yggListItem struct {
	ID int64 `json:"id"`
}

type yggDetails struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Size  int64  `json:"size"`
	Hash  string `json:"hash"`
}

func (y *YGG) Search(ctx context.Context, query schema.MediaQuery) []schema.TorrentCandidate {
	if query.IsSeries() {
		if query.TMDBID > 0 {
			params := url.Values{}
			params.Set("tmdb_id", strconv.FormatInt(query.TMDBID, 10))
			params.Set("type", "tv")
			params.Set("season", strconv.Itoa(query.Season))
			if query.Episode > 0 {
				params.Set("episode", strconv.Itoa(query.Episode))
			}
			return y.search(ctx, params)
		}
		if query.Episode > 0 {
			params := url.Values{}
			params.Set("q", episodeQuery(query.Title, query.Season, query.Episode))
			params.Set("category_id", yggVideoCategory)
			return y.search(ctx, params)
		}
		return nil
	}

	if query.TMDBID > 0 {
		params := url.Values{}
		params.Set("tmdb_id", strconv.FormatInt(query.TMDBID, 10))
		params.Set("type", "movie")
		return y.search(ctx, params)
	}
	params := url.Values{}
	params.Set("q", strings.TrimSpace(query.Title+" "+query.Year))
	params.Set("category_id", yggVideoCategory)
	return y.search(ctx, params)
}

func (y *YGG) search(ctx context.Context, params url.Values) []schema.TorrentCandidate {
	searchURL := fmt.Sprintf("%s/torrents?%s", y.baseURL, params.Encode())
	var items []yggListItem
	if err := y.req.GetJSON(ctx, searchURL, nil, &items); err != nil {
		logging.Warn().Err(err).Msg("ygg search failed")
		return nil
	}
	if len(items) == 0 {
		return nil
	}
	logging.Debug().Int("count", len(items)).Msg("ygg list fetched")

	// List items carry no hash, fetch the details of every hit in parallel.
	details := make([]*yggDetails, len(items))
	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func(i int, id int64) {
			defer wg.Done()
			detailURL := fmt.Sprintf("%s/torrent/%d", y.baseURL, id)
			var d yggDetails
			if err := y.req.GetJSON(ctx, detailURL, nil, &d); err != nil {
				logging.Debug().Err(err).Int64("torrent", id).Msg("ygg detail fetch failed")
				return
			}
			details[i] = &d
		}(i, item.ID)
	}
	wg.Wait()

	var out []schema.TorrentCandidate
	for _, d := range details {
		if d == nil {
			continue
		}
		out = append(out, schema.TorrentCandidate{
			Name:         d.Title,
			SizeBytes:    d.Size,
			InfoHash:     strings.ToLower(d.Hash),
			Source:       schema.SourceYGG,
			TrackerLabel: "YGG",
			DownloadURL:  fmt.Sprintf("%s/torrent/%d/download?passkey=%s", y.baseURL, d.ID, url.QueryEscape(y.passkey)),
		})
	}
	return out
}
