package debrid

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"torrentier/logging"
	"torrentier/match"
)

const (
	allDebridBaseURL = "https://api.alldebrid.com/v4"
	allDebridAgent   = "jackett"

	allDebridBatchSize = 20

	// magnet statusCode 4 means the magnet is fully downloaded on their side.
	allDebridStatusReady = 4
)

// AllDebrid checks availability by actually uploading magnets in batches;
// the upload response reports whether each one is instantly ready. Uploaded
// magnets pile up on the account, so a cleanup pass runs before and after
// every check, deleting everything that is not in the ready state.
type AllDebrid struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewAllDebrid(apiKey string) *AllDebrid {
	return &AllDebrid{apiKey: apiKey, baseURL: allDebridBaseURL, client: newHTTPClient()}
}

func (a *AllDebrid) Name() string { return "alldebrid" }

type allDebridEnvelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type allDebridMagnet struct {
	ID         int64           `json:"id"`
	Hash       string          `json:"hash"`
	Magnet     string          `json:"magnet"`
	Ready      bool            `json:"ready"`
	StatusCode int             `json:"statusCode"`
	Links      []allDebridLink `json:"links"`
}

type allDebridLink struct {
	Link     string `json:"link"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

func (a *AllDebrid) authValues() url.Values {
	v := url.Values{}
	v.Set("agent", allDebridAgent)
	v.Set("apikey", a.apiKey)
	return v
}

func (a *AllDebrid) call(ctx context.Context, method, endpoint string, form url.Values, data any) error {
	fullURL := a.baseURL + endpoint
	var env allDebridEnvelope
	var err error
	if method == http.MethodGet {
		err = getJSON(ctx, a.client, fullURL+"?"+form.Encode(), nil, &env)
	} else {
		err = postFormJSON(ctx, a.client, fullURL, form, nil, &env)
	}
	if err != nil {
		return err
	}
	if env.Status != "success" {
		if env.Error != nil {
			return fmt.Errorf("alldebrid error %s: %s", env.Error.Code, env.Error.Message)
		}
		return fmt.Errorf("alldebrid status %q", env.Status)
	}
	if data != nil {
		return json.Unmarshal(env.Data, data)
	}
	return nil
}

// cleanup deletes every magnet on the account that is not ready. It never
// fails the caller, availability checks proceed regardless.
func (a *AllDebrid) cleanup(ctx context.Context) {
	var data struct {
		Magnets []allDebridMagnet `json:"magnets"`
	}
	if err := a.call(ctx, http.MethodGet, "/magnet/status", a.authValues(), &data); err != nil {
		logging.Debug().Err(err).Msg("alldebrid cleanup listing failed")
		return
	}

	var ids []int64
	for _, m := range data.Magnets {
		if m.StatusCode != allDebridStatusReady {
			ids = append(ids, m.ID)
		}
	}
	if len(ids) == 0 {
		return
	}
	logging.Debug().Int("count", len(ids)).Msg("alldebrid cleanup deleting magnets")

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			form := a.authValues()
			form.Set("id", fmt.Sprintf("%d", id))
			if err := a.call(ctx, http.MethodPost, "/magnet/delete", form, nil); err != nil {
				logging.Debug().Err(err).Int64("magnet", id).Msg("alldebrid delete failed")
			}
		}(id)
	}
	wg.Wait()
}

// CheckAvailability uploads the hashes in batches and reads the instant
// readiness of each from the upload response. The result maps both the
// normalized hash and the provider-reported spelling when they differ.
func (a *AllDebrid) CheckAvailability(ctx context.Context, hashes []string) map[string]bool {
	out := make(map[string]bool)
	if len(hashes) == 0 {
		return out
	}
	a.cleanup(ctx)

	var cleaned []string
	for _, h := range hashes {
		if n := NormalizeHash(h); n != "" {
			cleaned = append(cleaned, n)
		}
	}

	for start := 0; start < len(cleaned); start += allDebridBatchSize {
		end := start + allDebridBatchSize
		if end > len(cleaned) {
			end = len(cleaned)
		}
		form := a.authValues()
		for _, h := range cleaned[start:end] {
			form.Add("magnets[]", h)
		}

		var data struct {
			Magnets []allDebridMagnet `json:"magnets"`
		}
		if err := a.call(ctx, http.MethodPost, "/magnet/upload", form, &data); err != nil {
			logging.Warn().Err(err).Msg("alldebrid upload batch failed")
			continue
		}

		ready := 0
		for _, m := range data.Magnets {
			h := m.Hash
			if h == "" {
				h = m.Magnet
			}
			if h == "" {
				continue
			}
			isReady := m.Ready || m.StatusCode == allDebridStatusReady
			normalized := NormalizeHash(h)
			out[normalized] = isReady
			if h != normalized {
				out[h] = isReady
			}
			if isReady {
				ready++
			}
		}
		logging.Debug().Int("ready", ready).Int("uploaded", end-start).Msg("alldebrid batch checked")
	}

	// Give the API a moment to index the uploads before deleting them.
	select {
	case <-time.After(time.Second):
	case <-ctx.Done():
		return out
	}
	a.cleanup(ctx)
	return out
}

// Unlock uploads the magnet, finds the file to play and unlocks it into a
// direct URL. When the upload response has no links yet, the magnet status
// and then the full file listing are consulted.
func (a *AllDebrid) Unlock(ctx context.Context, hash string, season, episode int) (string, error) {
	hash = NormalizeHash(hash)

	form := a.authValues()
	form.Add("magnets[]", hash)
	var uploaded struct {
		Magnets []allDebridMagnet `json:"magnets"`
	}
	if err := a.call(ctx, http.MethodPost, "/magnet/upload", form, &uploaded); err != nil {
		return "", fmt.Errorf("magnet upload: %w", err)
	}
	if len(uploaded.Magnets) == 0 {
		return "", ErrNoLink
	}
	magnet := uploaded.Magnets[0]

	if magnet.Ready && len(magnet.Links) > 0 {
		if link, ok := selectAllDebridLink(magnet.Links, season, episode); ok {
			return a.unlockLink(ctx, link)
		}
	}

	links, err := a.magnetLinks(ctx, magnet.ID)
	if err != nil {
		return "", err
	}
	if len(links) == 0 {
		links, err = a.magnetFiles(ctx, magnet.ID)
		if err != nil {
			return "", err
		}
	}
	link, ok := selectAllDebridLink(links, season, episode)
	if !ok {
		return "", ErrNoLink
	}
	return a.unlockLink(ctx, link)
}

func (a *AllDebrid) magnetLinks(ctx context.Context, magnetID int64) ([]allDebridLink, error) {
	form := a.authValues()
	form.Set("id", fmt.Sprintf("%d", magnetID))

	// With an id the magnets field is an object, without it a list.
	var data struct {
		Magnets json.RawMessage `json:"magnets"`
	}
	if err := a.call(ctx, http.MethodGet, "/magnet/status", form, &data); err != nil {
		return nil, fmt.Errorf("magnet status: %w", err)
	}
	var single allDebridMagnet
	if err := json.Unmarshal(data.Magnets, &single); err == nil {
		return single.Links, nil
	}
	var many []allDebridMagnet
	if err := json.Unmarshal(data.Magnets, &many); err != nil {
		return nil, fmt.Errorf("magnet status decode: %w", err)
	}
	if len(many) == 0 {
		return nil, nil
	}
	return many[0].Links, nil
}

// allDebridNode is one entry of the v4.1 magnet files tree. Folders carry
// children under e, files carry a direct link under l.
type allDebridNode struct {
	Name     string          `json:"n"`
	Size     int64           `json:"s"`
	Link     string          `json:"l"`
	Children []allDebridNode `json:"e"`
}

func (a *AllDebrid) magnetFiles(ctx context.Context, magnetID int64) ([]allDebridLink, error) {
	form := a.authValues()
	form.Add("id[]", fmt.Sprintf("%d", magnetID))

	var data struct {
		Magnets []struct {
			Files []allDebridNode `json:"files"`
		} `json:"magnets"`
	}
	if err := a.call(ctx, http.MethodGet, "/magnet/files", form, &data); err != nil {
		return nil, fmt.Errorf("magnet files: %w", err)
	}
	if len(data.Magnets) == 0 {
		return nil, nil
	}
	var links []allDebridLink
	flattenAllDebridTree(data.Magnets[0].Files, &links)
	return links, nil
}

func flattenAllDebridTree(nodes []allDebridNode, out *[]allDebridLink) {
	for _, n := range nodes {
		if n.Link != "" {
			*out = append(*out, allDebridLink{Link: n.Link, Filename: n.Name, Size: n.Size})
		}
		if len(n.Children) > 0 {
			flattenAllDebridTree(n.Children, out)
		}
	}
}

func selectAllDebridLink(links []allDebridLink, season, episode int) (string, bool) {
	files := make([]match.FileEntry, len(links))
	for i, l := range links {
		files[i] = match.FileEntry{Name: l.Filename, Size: l.Size}
	}
	chosen, ok := match.SelectFile(files, season, episode)
	if !ok {
		return "", false
	}
	for _, l := range links {
		if l.Filename == chosen.Name && l.Size == chosen.Size {
			return l.Link, true
		}
	}
	return "", false
}

func (a *AllDebrid) unlockLink(ctx context.Context, link string) (string, error) {
	form := a.authValues()
	form.Set("link", link)
	var data struct {
		Link string `json:"link"`
	}
	if err := a.call(ctx, http.MethodGet, "/link/unlock", form, &data); err != nil {
		return "", fmt.Errorf("link unlock: %w", err)
	}
	if data.Link == "" {
		return "", ErrNoLink
	}
	return data.Link, nil
}
