package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"torrentier/schema"
)

const abnListingPage = `<html><body><table>
<tr>
  <td><a href="/Torrent/Details?ReleaseId=4242">Movie.2023.MULTI.1080p.WEB  x264</a></td>
  <td>1,50 Go</td>
  <td>2023</td>
  <td>12</td>
  <td>3</td>
</tr>
</table></body></html>`

func newABNTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/Home/Login", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			fmt.Fprint(w, `<form><input name="__RequestVerificationToken" type="hidden" value="csrf-123"/></form>`)
			return
		}
		if r.FormValue("__RequestVerificationToken") != "csrf-123" {
			t.Errorf("login posted without csrf token")
		}
		if r.FormValue("Username") != "user" || r.FormValue("Password") != "pass" {
			t.Errorf("unexpected credentials %q/%q", r.FormValue("Username"), r.FormValue("Password"))
		}
		fmt.Fprint(w, `<html><form id="logoutForm"></form></html>`)
	})
	mux.HandleFunc("/Torrent", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("Search") == "" {
			t.Errorf("search request without Search param")
		}
		if r.URL.Query().Get("SelectedCats") == "" {
			t.Errorf("search request without category")
		}
		fmt.Fprint(w, abnListingPage)
	})
	mux.HandleFunc("/Torrent/Details", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("ReleaseId") != "4242" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `<html>Hash : <span class="text-italic">AABB00000000000000000000000000000000CCDD</span></html>`)
	})
	return httptest.NewServer(mux)
}

func TestABNSearchMovie(t *testing.T) {
	server := newABNTestServer(t)
	defer server.Close()

	a := NewABN("user", "pass")
	a.baseURL = server.URL

	got := a.Search(context.Background(), schema.MediaQuery{
		Kind:  schema.KindMovie,
		Title: "Movie",
		Year:  "2023",
	})
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}
	c := got[0]
	if c.Name != "Movie.2023.MULTI.1080p.WEB x264" {
		t.Errorf("name not normalized: %q", c.Name)
	}
	if c.SizeBytes != 1610612736 {
		t.Errorf("size wrong: %d", c.SizeBytes)
	}
	if c.Seeders != 12 || c.Leechers != 3 {
		t.Errorf("seeders/leechers wrong: %d/%d", c.Seeders, c.Leechers)
	}
	if c.InfoHash != "aabb00000000000000000000000000000000ccdd" {
		t.Errorf("hash not enriched: %q", c.InfoHash)
	}
	if c.ReleaseID != "4242" {
		t.Errorf("release id wrong: %q", c.ReleaseID)
	}
}

func TestABNSearchUnionsTitleVariants(t *testing.T) {
	server := newABNTestServer(t)
	defer server.Close()

	a := NewABN("user", "pass")
	a.baseURL = server.URL

	// Both title variants return the same release, the union keeps one.
	got := a.Search(context.Background(), schema.MediaQuery{
		Kind:          schema.KindSeries,
		Title:         "La Série",
		OriginalTitle: "The Show",
		Season:        5,
		Episode:       7,
	})
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate after union, got %d", len(got))
	}
}

func TestABNFailsClosedWithoutCredentials(t *testing.T) {
	a := NewABN("", "")
	if got := a.Search(context.Background(), schema.MediaQuery{Kind: schema.KindMovie, Title: "x"}); got != nil {
		t.Fatalf("expected nil result without credentials, got %v", got)
	}
}

func TestABNFailsClosedOnBadLogin(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Login page without a logout marker means the login was rejected.
		fmt.Fprint(w, `<form><input name="__RequestVerificationToken" value="csrf"/></form>`)
	}))
	defer server.Close()

	a := NewABN("user", "wrong")
	a.baseURL = server.URL
	if got := a.Search(context.Background(), schema.MediaQuery{Kind: schema.KindMovie, Title: "x"}); got != nil {
		t.Fatalf("expected nil result on failed login, got %v", got)
	}
}
