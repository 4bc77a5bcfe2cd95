package debrid

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestDebridLinkCheckAvailabilityRemovesEveryProbe(t *testing.T) {
	var removedT1, removedT2 int32
	mux := http.NewServeMux()
	mux.HandleFunc("/seedbox/add", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer key" {
			t.Errorf("missing bearer token")
		}
		var payload struct {
			URL  string `json:"url"`
			Wait bool   `json:"wait"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatal(err)
		}
		if payload.Wait {
			t.Errorf("expected wait:false")
		}
		switch payload.URL {
		case "aa00000000000000000000000000000000000001":
			fmt.Fprint(w, `{"success":true,"value":{"id":"t1","downloadPercent":100,"error":0}}`)
		default:
			fmt.Fprint(w, `{"success":true,"value":{"id":"t2","downloadPercent":0,"error":0}}`)
		}
	})
	mux.HandleFunc("/seedbox/t1/remove", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("expected DELETE, got %s", r.Method)
		}
		atomic.AddInt32(&removedT1, 1)
		fmt.Fprint(w, `{"success":true}`)
	})
	mux.HandleFunc("/seedbox/t2/remove", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("expected DELETE, got %s", r.Method)
		}
		atomic.AddInt32(&removedT2, 1)
		fmt.Fprint(w, `{"success":true}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	d := NewDebridLink("key")
	d.baseURL = server.URL

	got := d.CheckAvailability(context.Background(), []string{
		"AA00000000000000000000000000000000000001",
		"aa00000000000000000000000000000000000002",
	})
	if !got["aa00000000000000000000000000000000000001"] {
		t.Error("expected first hash cached")
	}
	if got["aa00000000000000000000000000000000000002"] {
		t.Error("expected second hash uncached")
	}
	// The probe is destructive, cached entries are cleaned up too.
	if n := atomic.LoadInt32(&removedT1); n != 1 {
		t.Errorf("expected the cached probe removed once, got %d", n)
	}
	if n := atomic.LoadInt32(&removedT2); n != 1 {
		t.Errorf("expected the uncached probe removed once, got %d", n)
	}
}

func TestDebridLinkUnlockSelectsEpisodeFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":true,"value":{"id":"t1","downloadPercent":100,"files":[
			{"name":"Show.S05E06.mkv","size":1000,"downloadUrl":"https://dl/e6"},
			{"name":"Show.S05E07.mkv","size":1000,"downloadUrl":"https://dl/e7"}
		]}}`)
	}))
	defer server.Close()

	d := NewDebridLink("key")
	d.baseURL = server.URL

	got, err := d.Unlock(context.Background(), "aa00000000000000000000000000000000000001", 5, 7)
	if err != nil {
		t.Fatalf("unlock failed: %v", err)
	}
	if got != "https://dl/e7" {
		t.Errorf("got %q", got)
	}
}

func TestDebridLinkUnlockNoFiles(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":true,"value":{"id":"t1","files":[]}}`)
	}))
	defer server.Close()

	d := NewDebridLink("key")
	d.baseURL = server.URL

	if _, err := d.Unlock(context.Background(), "aa00000000000000000000000000000000000001", 0, 0); err != ErrNoLink {
		t.Fatalf("expected ErrNoLink, got %v", err)
	}
}
