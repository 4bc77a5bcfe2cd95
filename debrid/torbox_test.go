package debrid

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

func TestTorBoxCheckAvailability(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/torrents/checkcached" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		hash := r.URL.Query().Get("hash")
		if hash == "aa00000000000000000000000000000000000001" {
			fmt.Fprintf(w, `{"success":true,"data":{"%s":{"name":"Show"}}}`, hash)
			return
		}
		fmt.Fprint(w, `{"success":true,"data":{}}`)
	}))
	defer server.Close()

	tb := NewTorBox("key")
	tb.baseURL = server.URL

	got := tb.CheckAvailability(context.Background(), []string{
		"AA00000000000000000000000000000000000001",
		"aa00000000000000000000000000000000000002",
	})
	if !got["aa00000000000000000000000000000000000001"] {
		t.Error("expected first hash cached")
	}
	if got["aa00000000000000000000000000000000000002"] {
		t.Error("expected second hash uncached")
	}
}

func TestTorBoxUnlockRetriesServerErrors(t *testing.T) {
	var dlCalls int32
	mux := http.NewServeMux()
	mux.HandleFunc("/torrents/createtorrent", func(w http.ResponseWriter, r *http.Request) {
		if r.FormValue("seed") != "2" {
			t.Errorf("expected seed=2")
		}
		fmt.Fprint(w, `{"success":true,"detail":"Found Cached Torrent","data":{"torrent_id":42,"hash":"aa00000000000000000000000000000000000001"}}`)
	})
	mux.HandleFunc("/torrents/mylist", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"success":true,"data":{"files":[
			{"id":3,"name":"Show.S05E07.mkv","size":2000},
			{"id":4,"name":"sample.txt","size":10}
		]}}`)
	})
	mux.HandleFunc("/torrents/requestdl", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("file_id") != "3" {
			t.Errorf("requested wrong file %s", r.URL.Query().Get("file_id"))
		}
		if atomic.AddInt32(&dlCalls, 1) == 1 {
			http.Error(w, "DATABASE_ERROR", http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, `{"success":true,"data":"https://torbox/dl.mkv"}`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	tb := NewTorBox("key")
	tb.baseURL = server.URL

	got, err := tb.Unlock(context.Background(), "aa00000000000000000000000000000000000001", 5, 7)
	if err != nil {
		t.Fatalf("unlock failed: %v", err)
	}
	if got != "https://torbox/dl.mkv" {
		t.Errorf("got %q", got)
	}
	if n := atomic.LoadInt32(&dlCalls); n != 2 {
		t.Errorf("expected 2 download attempts, got %d", n)
	}
}
