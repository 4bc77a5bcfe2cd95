package debrid

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"torrentier/logging"
	"torrentier/match"
)

const debridLinkBaseURL = "https://debrid-link.com/api/v2"

// DebridLink has no passive cache lookup: each hash is probed by adding it
// to the seedbox and reading the reported download percentage. Probes that
// turn out uncached are removed again so the seedbox stays clean.
type DebridLink struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewDebridLink(apiKey string) *DebridLink {
	return &DebridLink{apiKey: apiKey, baseURL: debridLinkBaseURL, client: newHTTPClient()}
}

func (d *DebridLink) Name() string { return "debridlink" }

type debridLinkTorrent struct {
	ID              string           `json:"id"`
	DownloadPercent float64          `json:"downloadPercent"`
	Error           int              `json:"error"`
	Files           []debridLinkFile `json:"files"`
}

type debridLinkFile struct {
	Name        string `json:"name"`
	Size        int64  `json:"size"`
	DownloadURL string `json:"downloadUrl"`
}

func (d *DebridLink) headers() map[string]string {
	return map[string]string{
		"Authorization": "Bearer " + d.apiKey,
		"Content-Type":  "application/json",
	}
}

// add submits a hash to the seedbox without waiting for the download to
// start and returns the torrent state from the response.
func (d *DebridLink) add(ctx context.Context, hash string) (*debridLinkTorrent, error) {
	payload, err := json.Marshal(map[string]any{"url": hash, "wait": false})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/seedbox/add", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	for k, v := range d.headers() {
		req.Header.Set(k, v)
	}

	var result struct {
		Success bool              `json:"success"`
		Value   debridLinkTorrent `json:"value"`
	}
	if err := doJSON(d.client, req, &result); err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, fmt.Errorf("seedbox add rejected")
	}
	return &result.Value, nil
}

func (d *DebridLink) remove(ctx context.Context, torrentID string) {
	removeURL := fmt.Sprintf("%s/seedbox/%s/remove", d.baseURL, torrentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, removeURL, nil)
	if err != nil {
		return
	}
	for k, v := range d.headers() {
		req.Header.Set(k, v)
	}
	if err := doJSON(d.client, req, nil); err != nil {
		logging.Debug().Err(err).Str("torrent", torrentID).Msg("debridlink remove failed")
	}
}

// CheckAvailability probes every hash in parallel. A hash counts as cached
// when the add response reports no error and a complete download.
func (d *DebridLink) CheckAvailability(ctx context.Context, hashes []string) map[string]bool {
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
			cached := d.probe(ctx, normalized)
			mu.Lock()
			out[normalized] = cached
			mu.Unlock()
		}(h)
	}
	wg.Wait()

	cachedCount := 0
	for _, v := range out {
		if v {
			cachedCount++
		}
	}
	logging.Debug().Int("cached", cachedCount).Int("checked", len(hashes)).Msg("debridlink availability done")
	return out
}

func (d *DebridLink) probe(ctx context.Context, hash string) bool {
	torrent, err := d.add(ctx, hash)
	if err != nil {
		logging.Debug().Err(err).Msg("debridlink probe failed")
		return false
	}
	cached := torrent.Error == 0 && torrent.DownloadPercent == 100
	// The probe is destructive, the entry must go even when it was cached
	// or the account fills up with one seedbox item per checked hash.
	if torrent.ID != "" {
		d.remove(ctx, torrent.ID)
	}
	return cached
}

// Unlock adds the hash and picks the playable file straight from the add
// response, which lists the files with their direct download URLs.
func (d *DebridLink) Unlock(ctx context.Context, hash string, season, episode int) (string, error) {
	torrent, err := d.add(ctx, NormalizeHash(hash))
	if err != nil {
		return "", fmt.Errorf("seedbox add: %w", err)
	}
	if len(torrent.Files) == 0 {
		return "", ErrNoLink
	}

	files := make([]match.FileEntry, len(torrent.Files))
	for i, f := range torrent.Files {
		files[i] = match.FileEntry{Name: f.Name, Size: f.Size}
	}
	chosen, ok := match.SelectVideoFile(files, season, episode)
	if !ok {
		return "", ErrNoLink
	}
	for _, f := range torrent.Files {
		if f.Name == chosen.Name && f.Size == chosen.Size {
			if f.DownloadURL == "" {
				return "", ErrNoLink
			}
			return f.DownloadURL, nil
		}
	}
	return "", ErrNoLink
}
