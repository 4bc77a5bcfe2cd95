package schema

// Source identifies which adapter produced a candidate.
type Source string

const (
	SourceUnit3D    Source = "unit3d"
	SourceABN       Source = "abn"
	SourceYGG       Source = "ygg"
	SourceSharewood Source = "sharewood"
)

// TorrentCandidate is one discovered release, normalized from an upstream
// response item. Candidates are read-only after creation; the orchestrator
// merges them into a map keyed by InfoHash (first-seen wins) and discards
// them at the end of the request.
type TorrentCandidate struct {
	Name         string `json:"name"`
	SizeBytes    int64  `json:"size_bytes"`
	InfoHash     string `json:"info_hash,omitempty"` // lowercase 40-hex, or empty when unknown
	Source       Source `json:"source"`
	TrackerLabel string `json:"tracker_label"`
	DownloadURL  string `json:"download_url,omitempty"`
	Seeders      int    `json:"seeders,omitempty"`
	Leechers     int    `json:"leechers,omitempty"`
	TMDBID       int64  `json:"tmdb_id,omitempty"`
	IMDBID       string `json:"imdb_id,omitempty"`
	// ReleaseID is the tracker-local numeric ID, used by adapters whose list
	// responses omit the hash to union parallel searches.
	ReleaseID string `json:"release_id,omitempty"`
}

// MediaKind is the requested media type.
type MediaKind string

const (
	KindMovie  MediaKind = "movie"
	KindSeries MediaKind = "series"
)

// MediaQuery is the resolved request, shared read-only across all
// concurrently dispatched adapter calls.
type MediaQuery struct {
	ImdbID        string
	TMDBID        int64
	Kind          MediaKind
	Season        int // 0 = unset
	Episode       int // 0 = unset
	Title         string
	OriginalTitle string
	Year          string
}

// IsSeries reports whether the query targets a series episode or season.
func (q MediaQuery) IsSeries() bool {
	return q.Kind == KindSeries && q.Season > 0
}

// ResolutionPath tags how a playable URL was obtained.
type ResolutionPath string

const (
	PathCacheProvider ResolutionPath = "cache_provider"
	PathLocalClient   ResolutionPath = "local_client"
)

// ResolvedStream is the final output of the resolve step: a single playable
// URL plus the path taken. It is returned once and never cached.
type ResolvedStream struct {
	URL      string
	Path     ResolutionPath
	Provider string
}

// StreamDescriptor is one display-ready entry of the search response.
type StreamDescriptor struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	URL   string `json:"url"`
}
