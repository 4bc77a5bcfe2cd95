package stream

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/hbollon/go-edlib"
	"golang.org/x/sync/errgroup"

	"torrentier/debrid"
	"torrentier/logging"
	"torrentier/match"
	"torrentier/monitoring"
	"torrentier/schema"
	"torrentier/sources"
	"torrentier/utils"
)

// StreamName is the display name attached to every stream entry.
const StreamName = "Torrentier"

const (
	// uncached entries offered through the local client are capped, generously
	// so when no cache provider is configured at all
	uncachedLimitWithProvider = 10
	uncachedLimitAlone        = 25

	titleSimilarityFloor = 0.2

	// unknownHash stands in for the hash path segment of candidates whose
	// tracker never exposed one.
	unknownHash = "none"
)

// Aggregator runs one search across all configured sources and turns the
// merged candidates into display-ready stream entries.
type Aggregator struct {
	tmdb      *sources.TMDB
	searchers []sources.Searcher
	providers []debrid.Provider
	qbitReady bool
	metrics   *monitoring.Metrics
}

func NewAggregator(tmdb *sources.TMDB, searchers []sources.Searcher, providers []debrid.Provider, qbitReady bool, metrics *monitoring.Metrics) *Aggregator {
	return &Aggregator{
		tmdb:      tmdb,
		searchers: searchers,
		providers: providers,
		qbitReady: qbitReady,
		metrics:   metrics,
	}
}

// Search resolves the query metadata, fans out to every source, filters and
// deduplicates the candidates and builds the stream list. resolveBase is the
// absolute URL prefix the resolve links hang off, including the config
// segment.
func (a *Aggregator) Search(ctx context.Context, query schema.MediaQuery, resolveBase string) []schema.StreamDescriptor {
	if a.tmdb != nil {
		if err := a.tmdb.Resolve(ctx, &query); err != nil {
			// Sources searching by external ID still work without metadata.
			logging.Warn().Err(err).Str("imdb", query.ImdbID).Msg("metadata resolution failed")
		}
	}

	lists := make([][]schema.TorrentCandidate, len(a.searchers))
	g, gctx := errgroup.WithContext(ctx)
	for i, s := range a.searchers {
		g.Go(func() error {
			start := time.Now()
			lists[i] = s.Search(gctx, query)
			if a.metrics != nil {
				a.metrics.SearchDuration.WithLabelValues(string(s.Name())).Observe(time.Since(start).Seconds())
				a.metrics.SearchRequests.WithLabelValues(string(s.Name())).Inc()
			}
			return nil
		})
	}
	_ = g.Wait()

	candidates := a.mergeAndFilter(query, lists)
	if len(candidates) == 0 {
		return []schema.StreamDescriptor{}
	}
	logging.Info().Int("count", len(candidates)).Msg("unique torrents found")

	cached, uncached, providerName := a.partitionByAvailability(ctx, candidates)
	logging.Info().Int("cached", len(cached)).Int("uncached", len(uncached)).Msg("availability checked")

	streams := make([]schema.StreamDescriptor, 0, len(cached))
	for _, c := range cached {
		streams = append(streams, cachedDescriptor(c, providerName, resolveBase, query))
	}

	// Uncached entries only appear when nothing cached was found, a running
	// download should never compete with an instant stream.
	if a.qbitReady && len(cached) == 0 {
		limit := uncachedLimitAlone
		if providerName != "" {
			limit = uncachedLimitWithProvider
		}
		playable := utils.Filter(uncached, func(c schema.TorrentCandidate) bool {
			return c.DownloadURL != ""
		})
		for _, c := range playable {
			if len(streams) >= limit {
				break
			}
			streams = append(streams, localDescriptor(c, resolveBase, query))
		}
	}
	return streams
}

// mergeAndFilter flattens the per-source results in registration order,
// drops inconsistent or irrelevant candidates and deduplicates by hash,
// first seen wins. Candidates without a hash bypass dedup and survive only
// when they carry a download link, the local client can still stream those.
func (a *Aggregator) mergeAndFilter(query schema.MediaQuery, lists [][]schema.TorrentCandidate) []schema.TorrentCandidate {
	var out []schema.TorrentCandidate
	seen := make(map[string]struct{})
	for _, list := range lists {
		for _, c := range list {
			if c.Source == schema.SourceUnit3D && !externalIDsConsistent(c, query) {
				continue
			}
			if query.IsSeries() && !match.MatchesRequest(c.Name, query.Season, query.Episode) {
				continue
			}
			hash := debrid.NormalizeHash(c.InfoHash)
			if hash == "" {
				if c.DownloadURL == "" {
					continue
				}
				c.InfoHash = ""
				out = append(out, c)
				continue
			}
			if _, dup := seen[hash]; dup {
				continue
			}
			seen[hash] = struct{}{}
			c.InfoHash = hash
			out = append(out, c)
		}
	}

	// Most relevant names first, stable so equal scores keep source order.
	if query.Title != "" {
		sort.SliceStable(out, func(i, j int) bool {
			return titleSimilarity(out[i].Name, query) > titleSimilarity(out[j].Name, query)
		})
	}
	return out
}

// externalIDsConsistent rejects structured-tracker results whose embedded
// IDs contradict the request. Results without any ID fall back to a fuzzy
// title comparison.
func externalIDsConsistent(c schema.TorrentCandidate, query schema.MediaQuery) bool {
	if c.TMDBID > 0 && query.TMDBID > 0 && c.TMDBID != query.TMDBID {
		return false
	}
	if c.IMDBID != "" && query.ImdbID != "" {
		if strings.TrimPrefix(c.IMDBID, "tt") != strings.TrimPrefix(query.ImdbID, "tt") {
			return false
		}
	}
	if c.TMDBID == 0 && c.IMDBID == "" && query.Title != "" {
		return titleSimilarity(c.Name, query) >= titleSimilarityFloor
	}
	return true
}

func titleSimilarity(name string, query schema.MediaQuery) float32 {
	cleaned := strings.ToLower(strings.ReplaceAll(name, ".", " "))
	best := edlib.JaccardSimilarity(cleaned, strings.ToLower(query.Title), 3)
	if query.OriginalTitle != "" {
		if s := edlib.JaccardSimilarity(cleaned, strings.ToLower(query.OriginalTitle), 3); s > best {
			best = s
		}
	}
	return best
}

// partitionByAvailability asks the first configured provider which hashes it
// has cached. Hashless candidates cannot be checked and land in uncached.
// Without any provider everything is uncached.
func (a *Aggregator) partitionByAvailability(ctx context.Context, candidates []schema.TorrentCandidate) (cached, uncached []schema.TorrentCandidate, providerName string) {
	if len(a.providers) == 0 {
		return nil, candidates, ""
	}
	provider := a.providers[0]
	providerName = provider.Name()

	hashes := make([]string, 0, len(candidates))
	for _, c := range candidates {
		if c.InfoHash != "" {
			hashes = append(hashes, c.InfoHash)
		}
	}
	availability := provider.CheckAvailability(ctx, hashes)

	for _, c := range candidates {
		if c.InfoHash != "" && availability[c.InfoHash] {
			cached = append(cached, c)
		} else {
			uncached = append(uncached, c)
		}
	}
	return cached, uncached, providerName
}

func sourcePrefix(c schema.TorrentCandidate) string {
	return "[" + c.TrackerLabel + "]"
}

func resolveQuery(query schema.MediaQuery) string {
	if query.IsSeries() && query.Episode > 0 {
		return fmt.Sprintf("season=%d&episode=%d", query.Season, query.Episode)
	}
	return "type=movie"
}

func cachedDescriptor(c schema.TorrentCandidate, providerName, resolveBase string, query schema.MediaQuery) schema.StreamDescriptor {
	title := fmt.Sprintf("⚡ %s\n%s\n💾 %s - %s",
		match.ClassifyTags(c.Name).Label(), c.Name, match.FormatSize(c.SizeBytes), sourcePrefix(c))
	return schema.StreamDescriptor{
		Name:  StreamName,
		Title: title,
		URL:   fmt.Sprintf("%s/resolve/%s/%s?%s", resolveBase, providerName, c.InfoHash, resolveQuery(query)),
	}
}

func localDescriptor(c schema.TorrentCandidate, resolveBase string, query schema.MediaQuery) schema.StreamDescriptor {
	title := fmt.Sprintf("📥 %s\n%s\n💾 %s - %s [qBittorrent]",
		match.ClassifyTags(c.Name).Label(), c.Name, match.FormatSize(c.SizeBytes), sourcePrefix(c))
	hash := c.InfoHash
	if hash == "" {
		// Path segment cannot be empty, the resolver recovers the hash from
		// the downloaded torrent file.
		hash = unknownHash
	}
	return schema.StreamDescriptor{
		Name:  StreamName,
		Title: title,
		URL: fmt.Sprintf("%s/resolve/qbit/%s?link=%s&%s",
			resolveBase, hash, url.QueryEscape(c.DownloadURL), resolveQuery(query)),
	}
}
