package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"torrentier/logging"
	"torrentier/schema"
)

type streamResponse struct {
	Streams []schema.StreamDescriptor `json:"streams"`
}

// HandlerStream answers a stream request for one movie or episode. Failures
// degrade to an empty list, players treat error statuses as addon outages.
func (a *Addon) HandlerStream(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cfg, err := DecodeConfig(r.PathValue("config"))
	if err != nil {
		logging.Warn().Err(err).Msg("stream request with invalid config")
		writeJSON(w, http.StatusOK, streamResponse{Streams: []schema.StreamDescriptor{}})
		return
	}

	query, err := parseStreamID(r.PathValue("type"), r.PathValue("id"))
	if err != nil {
		logging.Warn().Err(err).Str("id", r.PathValue("id")).Msg("unparseable stream id")
		writeJSON(w, http.StatusOK, streamResponse{Streams: []schema.StreamDescriptor{}})
		return
	}

	svc := a.buildServices(cfg)
	if len(svc.providers) == 0 && svc.qbit == nil {
		logging.Warn().Msg("no debrid provider and no local client configured")
		writeJSON(w, http.StatusOK, streamResponse{Streams: []schema.StreamDescriptor{}})
		return
	}

	resolveBase := requestBase(r) + "/" + r.PathValue("config")
	streams := svc.aggregator(a.metrics).Search(ctx, query, resolveBase)
	if streams == nil {
		streams = []schema.StreamDescriptor{}
	}
	writeJSON(w, http.StatusOK, streamResponse{Streams: streams})
}

// parseStreamID turns "tt0903747" or "tt0903747:5:7" into a query.
func parseStreamID(mediaType, id string) (schema.MediaQuery, error) {
	id = strings.TrimSuffix(id, ".json")

	var query schema.MediaQuery
	switch mediaType {
	case "movie":
		query.Kind = schema.KindMovie
	case "series":
		query.Kind = schema.KindSeries
	default:
		return query, fmt.Errorf("unsupported type %q", mediaType)
	}

	parts := strings.Split(id, ":")
	if !strings.HasPrefix(parts[0], "tt") {
		return query, fmt.Errorf("unsupported id %q", id)
	}
	query.ImdbID = parts[0]

	if query.Kind == schema.KindSeries {
		if len(parts) != 3 {
			return query, fmt.Errorf("series id %q is missing season/episode", id)
		}
		season, err := strconv.Atoi(parts[1])
		if err != nil {
			return query, fmt.Errorf("invalid season in %q", id)
		}
		episode, err := strconv.Atoi(parts[2])
		if err != nil {
			return query, fmt.Errorf("invalid episode in %q", id)
		}
		query.Season = season
		query.Episode = episode
	}
	return query, nil
}

// requestBase reconstructs the absolute base URL the client used, honoring
// the proxy headers set by common ingress setups.
func requestBase(r *http.Request) string {
	scheme := r.Header.Get("X-Forwarded-Proto")
	if scheme == "" {
		if r.TLS != nil {
			scheme = "https"
		} else {
			scheme = "http"
		}
	}
	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	return scheme + "://" + host
}
