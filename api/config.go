package handler

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"

	"torrentier/qbit"
	"torrentier/sources"
)

// Config is the per-request user configuration, carried base64-encoded in
// the URL path. It holds credentials only, server behavior is configured
// through the environment.
type Config struct {
	TMDBKey          string                  `json:"tmdb_key"`
	AllDebridKey     string                  `json:"alldebrid_key,omitempty"`
	DebridLinkKey    string                  `json:"debridlink_key,omitempty"`
	TorBoxKey        string                  `json:"torbox_key,omitempty"`
	SharewoodPasskey string                  `json:"sharewood_passkey,omitempty"`
	YGGPasskey       string                  `json:"ygg_passkey,omitempty"`
	YGGURL           string                  `json:"ygg_url,omitempty"`
	ABNUsername      string                  `json:"abn_username,omitempty"`
	ABNPassword      string                  `json:"abn_password,omitempty"`
	Trackers         []sources.Unit3DTracker `json:"trackers,omitempty"`
	Qbittorrent      qbit.Config             `json:"qbittorrent,omitempty"`
}

// DecodeConfig parses the base64 JSON blob from the URL path. Standard and
// URL-safe encodings are both accepted, players are not consistent about it.
func DecodeConfig(encoded string) (Config, error) {
	var cfg Config
	if encoded == "" {
		return cfg, fmt.Errorf("empty config")
	}
	raw, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		raw, err = base64.URLEncoding.DecodeString(encoded)
	}
	if err != nil {
		raw, err = base64.RawURLEncoding.DecodeString(strings.TrimRight(encoded, "="))
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	if cfg.TMDBKey == "" {
		return cfg, fmt.Errorf("config is missing the tmdb key")
	}
	return cfg, nil
}

// HasDebrid reports whether at least one cache provider is configured.
func (c Config) HasDebrid() bool {
	return c.AllDebridKey != "" || c.DebridLinkKey != "" || c.TorBoxKey != ""
}
