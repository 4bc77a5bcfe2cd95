package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"torrentier/requester"
	"torrentier/schema"
)

func TestSharewoodSeriesUnionsEpisodeAndPack(t *testing.T) {
	var mu sync.Mutex
	queries := map[string]int{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/secret-passkey/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query().Get("name")
		mu.Lock()
		queries[q]++
		mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		switch q {
		case "Show S05E07":
			fmt.Fprint(w, `[{"name":"Show.S05E07.1080p","size":1000,"info_hash":"AA00000000000000000000000000000000000001","download_url":"https://x/dl/1","seeders":5}]`)
		default:
			// The season pack search returns the episode again plus a pack.
			fmt.Fprint(w, `[
				{"name":"Show.S05E07.1080p","size":1000,"info_hash":"aa00000000000000000000000000000000000001","download_url":"https://x/dl/1"},
				{"name":"Show.S05.COMPLETE","size":9000,"info_hash":"aa00000000000000000000000000000000000002","download_url":"https://x/dl/2"}
			]`)
		}
	}))
	defer server.Close()

	s := NewSharewood("secret-passkey", requester.NewRequester(nil))
	s.baseURL = server.URL

	got := s.Search(context.Background(), schema.MediaQuery{
		Kind:    schema.KindSeries,
		Title:   "Show",
		Season:  5,
		Episode: 7,
	})

	// Both variants fire concurrently, arrival order is not defined.
	if len(queries) != 2 || queries["Show S05E07"] != 1 || queries["Show S05"] != 1 {
		t.Fatalf("unexpected queries %v", queries)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 candidates after union, got %d", len(got))
	}
	// The union walks the variants in declaration order, the episode entry
	// stays first even when the pack search answers first.
	if got[0].InfoHash != "aa00000000000000000000000000000000000001" {
		t.Errorf("hash not normalized: %q", got[0].InfoHash)
	}
	if got[0].TrackerLabel != "Sharewood" {
		t.Errorf("tracker label wrong: %q", got[0].TrackerLabel)
	}
}

func TestSharewoodWithoutPasskey(t *testing.T) {
	s := NewSharewood("", requester.NewRequester(nil))
	if got := s.Search(context.Background(), schema.MediaQuery{Kind: schema.KindMovie, Title: "x"}); got != nil {
		t.Fatalf("expected nil without passkey, got %v", got)
	}
}
