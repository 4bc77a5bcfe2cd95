package qbit

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	qbt "github.com/autobrr/go-qbittorrent"

	"torrentier/logging"
	"torrentier/match"
)

// Config holds the connection settings of the local qBittorrent instance.
// PublicURL is the base under which the download directory is served over
// HTTP, the returned stream URLs point into it.
type Config struct {
	Host      string `json:"host"`
	Username  string `json:"username"`
	Password  string `json:"password"`
	PublicURL string `json:"public_url"`
}

func (c Config) Enabled() bool {
	return c.Host != "" && c.PublicURL != ""
}

// api is the client surface used here, narrowed for tests.
type api interface {
	LoginCtx(ctx context.Context) error
	AddTorrentFromMemoryCtx(ctx context.Context, buf []byte, options map[string]string) error
	AddTorrentFromUrlCtx(ctx context.Context, url string, options map[string]string) error
	GetTorrentsCtx(ctx context.Context, o qbt.TorrentFilterOptions) ([]qbt.Torrent, error)
	ToggleTorrentSequentialDownloadCtx(ctx context.Context, hashes []string) error
	ToggleFirstLastPiecePrioCtx(ctx context.Context, hashes []string) error
	GetFilesInformationCtx(ctx context.Context, hash string) (*qbt.TorrentFiles, error)
}

// Client adds torrents tuned for streaming and hands back a public URL the
// moment the file list is known, while the download keeps running.
type Client struct {
	qb        api
	publicURL string

	settleDelay   time.Duration
	pollFast      time.Duration
	pollSlow      time.Duration
	pollFastTries int
	pollSlowTries int
}

func NewClient(cfg Config) *Client {
	qb := qbt.NewClient(qbt.Config{
		Host:     cfg.Host,
		Username: cfg.Username,
		Password: cfg.Password,
		Timeout:  30,
	})
	return &Client{
		qb:            qb,
		publicURL:     strings.TrimRight(cfg.PublicURL, "/"),
		settleDelay:   1500 * time.Millisecond,
		pollFast:      500 * time.Millisecond,
		pollSlow:      time.Second,
		pollFastTries: 8,
		pollSlowTries: 15,
	}
}

// streamOptions are passed on add so the torrent starts in streaming mode.
var streamOptions = map[string]string{
	"sequentialDownload": "true",
	"firstLastPiecePrio": "true",
}

// StreamTorrent adds the torrent (raw .torrent bytes when available, a
// magnet built from the hash otherwise), enforces sequential download, waits
// for the file listing and returns the public URL of the selected file. The
// URL is returned immediately, playback starts while the download runs.
func (c *Client) StreamTorrent(ctx context.Context, torrentData []byte, hash string, season, episode int) (string, error) {
	if err := c.qb.LoginCtx(ctx); err != nil {
		return "", fmt.Errorf("qbittorrent login: %w", err)
	}

	hash = strings.ToLower(hash)
	var err error
	if len(torrentData) > 0 {
		err = c.qb.AddTorrentFromMemoryCtx(ctx, torrentData, streamOptions)
	} else {
		err = c.qb.AddTorrentFromUrlCtx(ctx, "magnet:?xt=urn:btih:"+hash, streamOptions)
	}
	if err != nil {
		return "", fmt.Errorf("qbittorrent add: %w", err)
	}

	// Let qBittorrent initialize the torrent before touching it.
	select {
	case <-time.After(c.settleDelay):
	case <-ctx.Done():
		return "", ctx.Err()
	}

	// The add options are not always applied, verify and force them.
	c.enforceStreamingOptions(ctx, hash)

	files, err := c.waitForFiles(ctx, hash)
	if err != nil {
		return "", err
	}
	chosen, ok := match.SelectVideoFile(files, season, episode)
	if !ok {
		return "", fmt.Errorf("no file to stream")
	}

	streamURL := c.publicURL + (&url.URL{Path: "/" + chosen.Name}).EscapedPath()
	logging.Info().Str("file", chosen.Name).Msg("instant stream ready")
	return streamURL, nil
}

func (c *Client) enforceStreamingOptions(ctx context.Context, hash string) {
	torrents, err := c.qb.GetTorrentsCtx(ctx, qbt.TorrentFilterOptions{Hashes: []string{hash}})
	if err != nil || len(torrents) == 0 {
		logging.Warn().Err(err).Msg("could not read torrent state to verify streaming options")
		return
	}
	t := torrents[0]
	// Toggles flip the state, only call them when the option is off.
	if !t.SequentialDownload {
		if err := c.qb.ToggleTorrentSequentialDownloadCtx(ctx, []string{hash}); err != nil {
			logging.Warn().Err(err).Msg("failed to enable sequential download")
		}
	}
	if !t.FirstLastPiecePrio {
		if err := c.qb.ToggleFirstLastPiecePrioCtx(ctx, []string{hash}); err != nil {
			logging.Warn().Err(err).Msg("failed to enable first/last piece priority")
		}
	}
}

// waitForFiles polls the file listing until the metadata arrives, quickly at
// first and then at a relaxed pace.
func (c *Client) waitForFiles(ctx context.Context, hash string) ([]match.FileEntry, error) {
	poll := func(tries int, delay time.Duration) ([]match.FileEntry, error) {
		for i := 0; i < tries; i++ {
			files, err := c.qb.GetFilesInformationCtx(ctx, hash)
			if err == nil && files != nil && len(*files) > 0 {
				entries := make([]match.FileEntry, 0, len(*files))
				for _, f := range *files {
					entries = append(entries, match.FileEntry{Name: f.Name, Size: f.Size})
				}
				return entries, nil
			}
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
		return nil, nil
	}

	if files, err := poll(c.pollFastTries, c.pollFast); err != nil || files != nil {
		return files, err
	}
	files, err := poll(c.pollSlowTries, c.pollSlow)
	if err != nil {
		return nil, err
	}
	if files == nil {
		return nil, fmt.Errorf("torrent metadata not available in time")
	}
	return files, nil
}
