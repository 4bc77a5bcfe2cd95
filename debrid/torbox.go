package debrid

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"

	"torrentier/logging"
	"torrentier/match"
)

const torBoxBaseURL = "https://api.torbox.app/v1/api"

// TorBox exposes a real passive cache lookup, so availability checks never
// add anything to the account. Unlocking creates the torrent, reads the file
// IDs from the account listing and requests a direct download link.
type TorBox struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewTorBox(apiKey string) *TorBox {
	return &TorBox{apiKey: apiKey, baseURL: torBoxBaseURL, client: newHTTPClient()}
}

func (t *TorBox) Name() string { return "torbox" }

func (t *TorBox) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + t.apiKey}
}

type torBoxFile struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// CheckAvailability asks checkcached for every hash in parallel. The
// response maps each cached hash to its torrent info; missing keys mean not
// cached.
func (t *TorBox) CheckAvailability(ctx context.Context, hashes []string) map[string]bool {
	out := make(map[string]bool, len(hashes))
	if len(hashes) == 0 {
		return out
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, h := range hashes {
		wg.Add(1)
		go func(h string) {
			defer wg.Done()
			normalized := NormalizeHash(h)
			cached := t.checkCached(ctx, normalized)
			mu.Lock()
			out[normalized] = cached
			mu.Unlock()
		}(h)
	}
	wg.Wait()
	return out
}

func (t *TorBox) checkCached(ctx context.Context, hash string) bool {
	params := url.Values{}
	params.Set("hash", hash)
	params.Set("format", "object")
	params.Set("list_files", "true")

	var result struct {
		Success bool                             `json:"success"`
		Data    map[string]struct{ Name string } `json:"data"`
	}
	reqURL := fmt.Sprintf("%s/torrents/checkcached?%s", t.baseURL, params.Encode())
	if err := getJSON(ctx, t.client, reqURL, t.headers(), &result); err != nil {
		logging.Debug().Err(err).Msg("torbox checkcached failed")
		return false
	}
	if !result.Success {
		return false
	}
	_, cached := result.Data[hash]
	return cached
}

// Unlock creates the torrent, lists its files from the account and requests
// the download link of the selected one. The file IDs assigned by the
// service must be used, the listing order is not stable.
func (t *TorBox) Unlock(ctx context.Context, hash string, season, episode int) (string, error) {
	hash = NormalizeHash(hash)

	form := url.Values{}
	form.Set("magnet", "magnet:?xt=urn:btih:"+hash)
	form.Set("seed", "2")
	var created struct {
		Success bool   `json:"success"`
		Detail  string `json:"detail"`
		Data    struct {
			TorrentID int64  `json:"torrent_id"`
			Hash      string `json:"hash"`
		} `json:"data"`
	}
	if err := postFormJSON(ctx, t.client, t.baseURL+"/torrents/createtorrent", form, t.headers(), &created); err != nil {
		return "", fmt.Errorf("createtorrent: %w", err)
	}
	if !created.Success || created.Data.TorrentID == 0 {
		return "", fmt.Errorf("createtorrent rejected")
	}
	if !strings.Contains(created.Detail, "Found Cached Torrent") {
		logging.Debug().Int64("torrent", created.Data.TorrentID).Msg("torbox torrent not reported cached")
	}

	files, err := t.torrentFiles(ctx, created.Data.TorrentID)
	if err != nil {
		return "", err
	}
	fileID, ok := selectTorBoxFile(files, season, episode)
	if !ok {
		return "", ErrNoLink
	}
	return t.requestDownload(ctx, created.Data.TorrentID, fileID)
}

func (t *TorBox) torrentFiles(ctx context.Context, torrentID int64) ([]torBoxFile, error) {
	params := url.Values{}
	params.Set("id", fmt.Sprintf("%d", torrentID))
	var result struct {
		Success bool `json:"success"`
		Data    struct {
			Files []torBoxFile `json:"files"`
		} `json:"data"`
	}
	reqURL := fmt.Sprintf("%s/torrents/mylist?%s", t.baseURL, params.Encode())
	if err := getJSON(ctx, t.client, reqURL, t.headers(), &result); err != nil {
		return nil, fmt.Errorf("mylist: %w", err)
	}
	if !result.Success {
		return nil, fmt.Errorf("mylist rejected")
	}
	return result.Data.Files, nil
}

func selectTorBoxFile(files []torBoxFile, season, episode int) (int64, bool) {
	videos := make([]match.FileEntry, 0, len(files))
	ids := make(map[match.FileEntry]int64, len(files))
	for _, f := range files {
		if !match.IsVideoFile(f.Name) {
			continue
		}
		entry := match.FileEntry{Name: f.Name, Size: f.Size}
		videos = append(videos, entry)
		ids[entry] = f.ID
	}
	chosen, ok := match.SelectFile(videos, season, episode)
	if !ok {
		return 0, false
	}
	id, ok := ids[chosen]
	return id, ok
}

// requestDownload retries on 500s, the endpoint intermittently reports
// database errors that resolve themselves.
func (t *TorBox) requestDownload(ctx context.Context, torrentID, fileID int64) (string, error) {
	params := url.Values{}
	params.Set("token", t.apiKey)
	params.Set("torrent_id", fmt.Sprintf("%d", torrentID))
	params.Set("file_id", fmt.Sprintf("%d", fileID))
	params.Set("zip_link", "false")
	params.Set("torrent_file", "false")
	reqURL := fmt.Sprintf("%s/torrents/requestdl?%s", t.baseURL, params.Encode())

	link, err := retry.DoWithData(
		func() (string, error) {
			var result struct {
				Success bool   `json:"success"`
				Data    string `json:"data"`
			}
			if err := getJSON(ctx, t.client, reqURL, t.headers(), &result); err != nil {
				return "", err
			}
			if !result.Success || result.Data == "" {
				return "", retry.Unrecoverable(ErrNoLink)
			}
			return result.Data, nil
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(time.Second),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	)
	if err != nil {
		return "", fmt.Errorf("requestdl: %w", err)
	}
	return link, nil
}
