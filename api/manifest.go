package handler

import (
	"net/http"
	"strings"
)

const addonVersion = "1.0.0"

type manifest struct {
	ID            string         `json:"id"`
	Version       string         `json:"version"`
	Name          string         `json:"name"`
	Description   string         `json:"description"`
	Types         []string       `json:"types"`
	Resources     []string       `json:"resources"`
	IDPrefixes    []string       `json:"idPrefixes"`
	Catalogs      []any          `json:"catalogs"`
	BehaviorHints map[string]any `json:"behaviorHints"`
}

// HandlerManifest serves the addon manifest. The config segment is decoded
// only to reject obviously broken installs early.
func (a *Addon) HandlerManifest(w http.ResponseWriter, r *http.Request) {
	if _, err := DecodeConfig(r.PathValue("config")); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	name := "Torrentier"
	if a.manifestSuffix != "" {
		name = strings.TrimSpace(name + " " + a.manifestSuffix)
	}
	description := "Streams from French trackers through debrid caches or a local qBittorrent."
	if a.manifestBlurb != "" {
		description = description + " " + a.manifestBlurb
	}

	writeJSON(w, http.StatusOK, manifest{
		ID:          "community.torrentier",
		Version:     addonVersion,
		Name:        name,
		Description: description,
		Types:       []string{"movie", "series"},
		Resources:   []string{"stream"},
		IDPrefixes:  []string{"tt"},
		Catalogs:    []any{},
		BehaviorHints: map[string]any{
			"configurable": true,
		},
	})
}
