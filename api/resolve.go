package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"torrentier/logging"
	"torrentier/stream"
)

// HandlerResolve turns a stream entry URL into a playable link and redirects
// the player to it. Resolution is done lazily here so that the search step
// never has to unlock links nobody plays.
func (a *Addon) HandlerResolve(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	service := r.PathValue("service")
	hash := r.PathValue("hash")

	start := time.Now()
	defer func() {
		if a.metrics != nil {
			a.metrics.ResolveDuration.WithLabelValues(service).Observe(time.Since(start).Seconds())
		}
	}()

	cfg, err := DecodeConfig(r.PathValue("config"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	season, _ := strconv.Atoi(r.URL.Query().Get("season"))
	episode, _ := strconv.Atoi(r.URL.Query().Get("episode"))
	link := r.URL.Query().Get("link")

	resolver := a.buildServices(cfg).resolver(a.requester)
	resolved, err := resolver.Resolve(ctx, service, hash, season, episode, link)
	if err != nil {
		if a.metrics != nil {
			a.metrics.ResolveErrors.WithLabelValues(service).Inc()
		}
		logging.Error().Err(err).Str("service", service).Str("hash", hash).Msg("resolution failed")
		if errors.Is(err, stream.ErrNotConfigured) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
			return
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "no playable link found"})
		return
	}

	logging.Info().
		Str("service", service).
		Str("hash", hash).
		Str("path", string(resolved.Path)).
		Dur("elapsed", time.Since(start)).
		Msg("resolved stream")
	http.Redirect(w, r, resolved.URL, http.StatusFound)
}
