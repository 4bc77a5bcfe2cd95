package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"torrentier/cache"
	"torrentier/logging"
	"torrentier/requester"
	"torrentier/schema"
)

const tmdbBaseURL = "https://api.themoviedb.org/3"

var tmdbCacheExpiration = 24 * time.Hour

// TMDB resolves IMDb identifiers to TMDB identifiers and localized titles.
type TMDB struct {
	apiKey  string
	baseURL string
	req     *requester.Requester
	c       *cache.Redis
}

func NewTMDB(apiKey string, req *requester.Requester, c *cache.Redis) *TMDB {
	return &TMDB{apiKey: apiKey, baseURL: tmdbBaseURL, req: req, c: c}
}

type tmdbFindResponse struct {
	MovieResults []tmdbEntry `json:"movie_results"`
	TVResults    []tmdbEntry `json:"tv_results"`
}

type tmdbEntry struct {
	ID int64 `json:"id"`
}

type tmdbDetails struct {
	Title         string `json:"title"`
	Name          string `json:"name"`
	OriginalTitle string `json:"original_title"`
	OriginalName  string `json:"original_name"`
	ReleaseDate   string `json:"release_date"`
	FirstAirDate  string `json:"first_air_date"`
}

// Resolve fills the TMDB ID, localized title, original title and year of the
// query in place. The IMDb ID and kind must already be set.
func (t *TMDB) Resolve(ctx context.Context, query *schema.MediaQuery) error {
	cacheKey := fmt.Sprintf("tmdb:%s:%s", query.Kind, query.ImdbID)
	if cached, err := t.c.Get(ctx, cacheKey); err == nil {
		var q schema.MediaQuery
		if err := json.Unmarshal(cached, &q); err == nil {
			query.TMDBID = q.TMDBID
			query.Title = q.Title
			query.OriginalTitle = q.OriginalTitle
			query.Year = q.Year
			return nil
		}
	}

	findURL := fmt.Sprintf("%s/find/%s?api_key=%s&external_source=imdb_id",
		t.baseURL, url.PathEscape(query.ImdbID), url.QueryEscape(t.apiKey))
	var found tmdbFindResponse
	if err := t.req.GetJSON(ctx, findURL, nil, &found); err != nil {
		return fmt.Errorf("tmdb find: %w", err)
	}

	results := found.MovieResults
	kindPath := "movie"
	if query.Kind == schema.KindSeries {
		results = found.TVResults
		kindPath = "tv"
	}
	if len(results) == 0 {
		return fmt.Errorf("tmdb find: no %s result for %s", kindPath, query.ImdbID)
	}
	query.TMDBID = results[0].ID

	detailsURL := fmt.Sprintf("%s/%s/%d?api_key=%s&language=fr-FR",
		t.baseURL, kindPath, query.TMDBID, url.QueryEscape(t.apiKey))
	var details tmdbDetails
	if err := t.req.GetJSON(ctx, detailsURL, nil, &details); err != nil {
		return fmt.Errorf("tmdb details: %w", err)
	}

	if query.Kind == schema.KindSeries {
		query.Title = details.Name
		query.OriginalTitle = details.OriginalName
		query.Year = yearOf(details.FirstAirDate)
	} else {
		query.Title = details.Title
		query.OriginalTitle = details.OriginalTitle
		query.Year = yearOf(details.ReleaseDate)
	}
	if query.OriginalTitle == query.Title {
		query.OriginalTitle = ""
	}

	if body, err := json.Marshal(query); err == nil {
		err = t.c.SetWithExpiration(ctx, cacheKey, body, tmdbCacheExpiration)
		if err != nil && err != cache.ErrDisabled {
			logging.Warn().Err(err).Msg("failed to cache tmdb metadata")
		}
	}
	return nil
}

func yearOf(date string) string {
	if len(date) >= 4 {
		return date[:4]
	}
	return ""
}
