package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"torrentier/cache"
	"torrentier/debrid"
	"torrentier/logging"
	"torrentier/monitoring"
	"torrentier/qbit"
	"torrentier/requester"
	"torrentier/sources"
	"torrentier/stream"
)

// Addon serves the addon endpoints. Shared state is limited to the cache,
// the requester and the metrics, everything credential-bound is built per
// request from the config path segment.
type Addon struct {
	cache       *cache.Redis
	requester   *requester.Requester
	metrics     *monitoring.Metrics
	qbitEnabled bool

	manifestSuffix string
	manifestBlurb  string
}

type AddonOptions struct {
	QbitEnabled    bool
	ManifestSuffix string
	ManifestBlurb  string
}

func NewAddon(c *cache.Redis, metrics *monitoring.Metrics, opts AddonOptions) *Addon {
	req := requester.NewRequester(c)
	req.SetMetrics(metrics)
	return &Addon{
		cache:          c,
		requester:      req,
		metrics:        metrics,
		qbitEnabled:    opts.QbitEnabled,
		manifestSuffix: opts.ManifestSuffix,
		manifestBlurb:  opts.ManifestBlurb,
	}
}

// SetShortLivedCacheExpiration overrides how long search responses are
// served from cache.
func (a *Addon) SetShortLivedCacheExpiration(d time.Duration) {
	a.requester.SetShortLivedCacheExpiration(d)
}

// services is the per-request object graph derived from a decoded config.
type services struct {
	tmdb      *sources.TMDB
	searchers []sources.Searcher
	providers []debrid.Provider
	abn       *sources.ABN
	qbit      *qbit.Client
}

func (a *Addon) buildServices(cfg Config) services {
	s := services{
		tmdb: sources.NewTMDB(cfg.TMDBKey, a.requester, a.cache),
	}

	if len(cfg.Trackers) > 0 {
		s.searchers = append(s.searchers, sources.NewUnit3D(cfg.Trackers, a.requester))
	}
	if cfg.SharewoodPasskey != "" {
		if sw := sources.NewSharewood(cfg.SharewoodPasskey, a.requester); sw != nil {
			s.searchers = append(s.searchers, sw)
		}
	}
	if cfg.YGGPasskey != "" {
		s.searchers = append(s.searchers, sources.NewYGG(cfg.YGGPasskey, cfg.YGGURL, a.requester))
	}
	if cfg.ABNUsername != "" && cfg.ABNPassword != "" {
		s.abn = sources.NewABN(cfg.ABNUsername, cfg.ABNPassword)
		s.searchers = append(s.searchers, s.abn)
	}

	// Provider order is the priority order, availability is checked against
	// the first one only.
	if cfg.AllDebridKey != "" {
		s.providers = append(s.providers, debrid.NewAllDebrid(cfg.AllDebridKey))
	}
	if cfg.DebridLinkKey != "" {
		s.providers = append(s.providers, debrid.NewDebridLink(cfg.DebridLinkKey))
	}
	if cfg.TorBoxKey != "" {
		s.providers = append(s.providers, debrid.NewTorBox(cfg.TorBoxKey))
	}

	if a.qbitEnabled && cfg.Qbittorrent.Enabled() {
		s.qbit = qbit.NewClient(cfg.Qbittorrent)
	}
	return s
}

func (s services) aggregator(metrics *monitoring.Metrics) *stream.Aggregator {
	return stream.NewAggregator(s.tmdb, s.searchers, s.providers, s.qbit != nil, metrics)
}

func (s services) resolver(req *requester.Requester) *stream.Resolver {
	return stream.NewResolver(s.providers, s.qbit, s.abn, req)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("failed to encode response")
	}
}
