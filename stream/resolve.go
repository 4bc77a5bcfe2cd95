package stream

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"torrentier/debrid"
	"torrentier/logging"
	"torrentier/qbit"
	"torrentier/requester"
	"torrentier/schema"
	"torrentier/sources"
)

var (
	// ErrNotConfigured is returned when the requested service is missing from
	// the request configuration. No upstream call is made in that case.
	ErrNotConfigured = errors.New("service not configured")

	// ErrResolutionFailed wraps upstream failures during link resolution.
	ErrResolutionFailed = errors.New("could not resolve stream")
)

// Resolver turns a resolve request into a single playable URL, either by
// unlocking a cached torrent at a provider or by starting a local download.
type Resolver struct {
	providers map[string]debrid.Provider
	qbit      *qbit.Client
	abn       *sources.ABN
	req       *requester.Requester
}

func NewResolver(providers []debrid.Provider, qbitClient *qbit.Client, abn *sources.ABN, req *requester.Requester) *Resolver {
	byName := make(map[string]debrid.Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &Resolver{providers: byName, qbit: qbitClient, abn: abn, req: req}
}

// Resolve handles one playback click. service is either a provider name or
// "qbit"; link is only used on the qbit path and points at the .torrent
// file. The returned URL is served once and never cached.
func (r *Resolver) Resolve(ctx context.Context, service, hash string, season, episode int, link string) (schema.ResolvedStream, error) {
	if service == "qbit" {
		return r.resolveLocal(ctx, hash, season, episode, link)
	}

	provider, ok := r.providers[service]
	if !ok {
		return schema.ResolvedStream{}, ErrNotConfigured
	}
	streamURL, err := provider.Unlock(ctx, hash, season, episode)
	if err != nil {
		return schema.ResolvedStream{}, fmt.Errorf("%w: %s", ErrResolutionFailed, err)
	}
	return schema.ResolvedStream{
		URL:      streamURL,
		Path:     schema.PathCacheProvider,
		Provider: service,
	}, nil
}

func (r *Resolver) resolveLocal(ctx context.Context, hash string, season, episode int, link string) (schema.ResolvedStream, error) {
	if r.qbit == nil {
		return schema.ResolvedStream{}, ErrNotConfigured
	}
	if link == "" {
		return schema.ResolvedStream{}, fmt.Errorf("%w: missing download link", ErrResolutionFailed)
	}

	torrentData, err := r.downloadTorrent(ctx, link)
	if err != nil {
		return schema.ResolvedStream{}, fmt.Errorf("%w: %s", ErrResolutionFailed, err)
	}
	logging.Debug().Int("bytes", len(torrentData)).Msg("torrent file downloaded")

	if hash == unknownHash {
		hash = ""
	}
	hash = debrid.NormalizeHash(hash)
	if hash == "" {
		// Tracker listings that omit the hash still ship it inside the
		// torrent file itself.
		hash, err = qbit.InfoHash(torrentData)
		if err != nil {
			return schema.ResolvedStream{}, fmt.Errorf("%w: %s", ErrResolutionFailed, err)
		}
	}

	streamURL, err := r.qbit.StreamTorrent(ctx, torrentData, hash, season, episode)
	if err != nil {
		return schema.ResolvedStream{}, fmt.Errorf("%w: %s", ErrResolutionFailed, err)
	}
	return schema.ResolvedStream{
		URL:      streamURL,
		Path:     schema.PathLocalClient,
		Provider: "qbit",
	}, nil
}

// downloadTorrent fetches the .torrent file. Links into the session-guarded
// tracker go through its authenticated client, everything else is a plain
// fetch.
func (r *Resolver) downloadTorrent(ctx context.Context, link string) ([]byte, error) {
	if r.abn != nil {
		if u, err := url.Parse(link); err == nil && strings.Contains(u.Host, "abn") {
			return r.abn.DownloadTorrent(ctx, link)
		}
	}
	return r.req.GetBytes(ctx, link, nil)
}
