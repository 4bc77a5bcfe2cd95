package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"torrentier/requester"
	"torrentier/schema"
)

func TestUnit3DSearchMergesAndDeduplicates(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		if r.URL.Path != "/api/torrents/filter" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("api_token") != "tok" {
			t.Errorf("missing api token in %s", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"data":[
			{"attributes":{"name":"Movie.2023.MULTI.1080p","size":"1610612736","info_hash":"AABB00000000000000000000000000000000CCDD","download_link":"https://x/dl/1","seeders":12,"leechers":3,"tmdb_id":603}},
			{"attributes":{"name":"Movie.2023.MULTI.1080p","size":"1610612736","info_hash":"aabb00000000000000000000000000000000ccdd","download_link":"https://x/dl/1"}},
			{"attributes":{"name":"No.Hash.Release","size":10}}
		]}`)
	}))
	defer server.Close()

	u := NewUnit3D([]Unit3DTracker{{URL: server.URL, Token: "tok"}}, requester.NewRequester(nil))
	got := u.Search(context.Background(), schema.MediaQuery{
		Kind:   schema.KindMovie,
		ImdbID: "tt0133093",
		TMDBID: 603,
	})

	// One request per external ID.
	if n := atomic.LoadInt32(&requests); n != 2 {
		t.Fatalf("expected 2 upstream requests, got %d", n)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate after dedup, got %d", len(got))
	}
	c := got[0]
	if c.InfoHash != "aabb00000000000000000000000000000000ccdd" {
		t.Errorf("hash not normalized: %q", c.InfoHash)
	}
	if c.SizeBytes != 1610612736 {
		t.Errorf("size not decoded from string: %d", c.SizeBytes)
	}
	if c.Seeders != 12 || c.Leechers != 3 {
		t.Errorf("seeders/leechers wrong: %d/%d", c.Seeders, c.Leechers)
	}
	if c.TMDBID != 603 {
		t.Errorf("tmdb id wrong: %d", c.TMDBID)
	}
}

func TestUnit3DSeriesParamSets(t *testing.T) {
	seen := make(chan string, 8)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		seen <- fmt.Sprintf("s=%s e=%s", q.Get("seasonNumber"), q.Get("episodeNumber"))
		fmt.Fprint(w, `{"data":[]}`)
	}))
	defer server.Close()

	u := NewUnit3D([]Unit3DTracker{{URL: server.URL, Token: "tok"}}, requester.NewRequester(nil))
	u.Search(context.Background(), schema.MediaQuery{
		Kind:    schema.KindSeries,
		TMDBID:  1399,
		Season:  5,
		Episode: 7,
	})
	close(seen)

	counts := make(map[string]int)
	for s := range seen {
		counts[s]++
	}
	if counts["s=5 e=7"] != 1 {
		t.Errorf("expected one exact-episode request, got %d", counts["s=5 e=7"])
	}
	if counts["s=5 e="] != 1 {
		t.Errorf("expected one season-pack request, got %d", counts["s=5 e="])
	}
}

func TestTrackerLabel(t *testing.T) {
	if got := trackerLabel("https://www.tracker.example/"); got != "tracker.example" {
		t.Errorf("got %q", got)
	}
}
