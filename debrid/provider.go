package debrid

import (
	"context"
	"errors"
)

// ErrNoLink is returned by Unlock when the provider has the torrent but no
// usable file could be selected or unlocked.
var ErrNoLink = errors.New("no unlockable link")

// Provider is one debrid cache service. CheckAvailability is best effort: a
// hash missing from the returned map means unknown, callers treat that as
// not cached. Unlock turns one cached hash into a direct playable URL.
type Provider interface {
	Name() string
	CheckAvailability(ctx context.Context, hashes []string) map[string]bool
	Unlock(ctx context.Context, hash string, season, episode int) (string, error)
}
