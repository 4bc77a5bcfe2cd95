package stream

import (
	"context"
	"errors"
	"testing"

	"torrentier/debrid"
	"torrentier/requester"
	"torrentier/schema"
)

type unlockProvider struct {
	name string
	url  string
	err  error

	gotHash    string
	gotSeason  int
	gotEpisode int
}

func (p *unlockProvider) Name() string { return p.name }
func (p *unlockProvider) CheckAvailability(context.Context, []string) map[string]bool {
	return nil
}
func (p *unlockProvider) Unlock(_ context.Context, hash string, season, episode int) (string, error) {
	p.gotHash, p.gotSeason, p.gotEpisode = hash, season, episode
	return p.url, p.err
}

func TestResolveProviderPath(t *testing.T) {
	provider := &unlockProvider{name: "alldebrid", url: "https://cdn/stream.mkv"}
	r := NewResolver([]debrid.Provider{provider}, nil, nil, requester.NewRequester(nil))

	got, err := r.Resolve(context.Background(), "alldebrid", hashA, 1, 5, "")
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if got.URL != "https://cdn/stream.mkv" || got.Path != schema.PathCacheProvider || got.Provider != "alldebrid" {
		t.Errorf("unexpected result %+v", got)
	}
	if provider.gotHash != hashA || provider.gotSeason != 1 || provider.gotEpisode != 5 {
		t.Errorf("provider called with %q S%dE%d", provider.gotHash, provider.gotSeason, provider.gotEpisode)
	}
}

func TestResolveUnknownServiceNeedsNoNetwork(t *testing.T) {
	r := NewResolver(nil, nil, nil, requester.NewRequester(nil))
	if _, err := r.Resolve(context.Background(), "debridlink", hashA, 0, 0, ""); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestResolveLocalWithoutClient(t *testing.T) {
	r := NewResolver(nil, nil, nil, requester.NewRequester(nil))
	if _, err := r.Resolve(context.Background(), "qbit", hashA, 0, 0, "https://x/t.torrent"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestResolveProviderFailureWrapped(t *testing.T) {
	provider := &unlockProvider{name: "torbox", err: debrid.ErrNoLink}
	r := NewResolver([]debrid.Provider{provider}, nil, nil, requester.NewRequester(nil))
	if _, err := r.Resolve(context.Background(), "torbox", hashA, 0, 0, ""); !errors.Is(err, ErrResolutionFailed) {
		t.Fatalf("expected ErrResolutionFailed, got %v", err)
	}
}
