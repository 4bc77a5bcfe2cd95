package qbit

import (
	"context"
	"testing"
	"time"

	qbt "github.com/autobrr/go-qbittorrent"
)

type stubAPI struct {
	addedFromMemory [][]byte
	addedFromURL    []string
	addOptions      map[string]string

	torrent       qbt.Torrent
	toggledSeq    int
	toggledPrio   int
	filesAfter    int
	filesRequests int
	files         qbt.TorrentFiles
}

func (s *stubAPI) LoginCtx(context.Context) error { return nil }

func (s *stubAPI) AddTorrentFromMemoryCtx(_ context.Context, buf []byte, options map[string]string) error {
	s.addedFromMemory = append(s.addedFromMemory, buf)
	s.addOptions = options
	return nil
}

func (s *stubAPI) AddTorrentFromUrlCtx(_ context.Context, url string, options map[string]string) error {
	s.addedFromURL = append(s.addedFromURL, url)
	s.addOptions = options
	return nil
}

func (s *stubAPI) GetTorrentsCtx(context.Context, qbt.TorrentFilterOptions) ([]qbt.Torrent, error) {
	return []qbt.Torrent{s.torrent}, nil
}

func (s *stubAPI) ToggleTorrentSequentialDownloadCtx(context.Context, []string) error {
	s.toggledSeq++
	return nil
}

func (s *stubAPI) ToggleFirstLastPiecePrioCtx(context.Context, []string) error {
	s.toggledPrio++
	return nil
}

func (s *stubAPI) GetFilesInformationCtx(context.Context, string) (*qbt.TorrentFiles, error) {
	s.filesRequests++
	if s.filesRequests <= s.filesAfter {
		empty := qbt.TorrentFiles{}
		return &empty, nil
	}
	return &s.files, nil
}

func newTestClient(stub *stubAPI) *Client {
	return &Client{
		qb:            stub,
		publicURL:     "http://media.local/dl",
		settleDelay:   time.Millisecond,
		pollFast:      time.Millisecond,
		pollSlow:      time.Millisecond,
		pollFastTries: 8,
		pollSlowTries: 15,
	}
}

func TestStreamTorrentFromMemory(t *testing.T) {
	stub := &stubAPI{
		torrent: qbt.Torrent{SequentialDownload: true, FirstLastPiecePrio: true},
		files: qbt.TorrentFiles{
			{Name: "Show.S05E07.1080p.mkv", Size: 2000},
			{Name: "Show.S05E08.1080p.mkv", Size: 2000},
		},
	}
	c := newTestClient(stub)

	got, err := c.StreamTorrent(context.Background(), []byte("d8:announce"), "AA00", 5, 7)
	if err != nil {
		t.Fatalf("stream failed: %v", err)
	}
	if got != "http://media.local/dl/Show.S05E07.1080p.mkv" {
		t.Errorf("stream url = %q", got)
	}
	if len(stub.addedFromMemory) != 1 {
		t.Errorf("expected memory add, got %d", len(stub.addedFromMemory))
	}
	if stub.addOptions["sequentialDownload"] != "true" || stub.addOptions["firstLastPiecePrio"] != "true" {
		t.Errorf("streaming options missing on add: %v", stub.addOptions)
	}
	// Options already on, no toggles.
	if stub.toggledSeq != 0 || stub.toggledPrio != 0 {
		t.Errorf("unexpected toggles: seq=%d prio=%d", stub.toggledSeq, stub.toggledPrio)
	}
}

func TestStreamTorrentTogglesOnlyDisabledOptions(t *testing.T) {
	stub := &stubAPI{
		torrent: qbt.Torrent{SequentialDownload: false, FirstLastPiecePrio: true},
		files:   qbt.TorrentFiles{{Name: "Movie.mkv", Size: 5000}},
	}
	c := newTestClient(stub)

	if _, err := c.StreamTorrent(context.Background(), nil, "aa00", 0, 0); err != nil {
		t.Fatalf("stream failed: %v", err)
	}
	if stub.toggledSeq != 1 {
		t.Errorf("sequential toggle count = %d", stub.toggledSeq)
	}
	if stub.toggledPrio != 0 {
		t.Errorf("prio toggle count = %d, option was already on", stub.toggledPrio)
	}
	if len(stub.addedFromURL) != 1 || stub.addedFromURL[0] != "magnet:?xt=urn:btih:aa00" {
		t.Errorf("magnet add wrong: %v", stub.addedFromURL)
	}
}

func TestStreamTorrentWaitsForMetadata(t *testing.T) {
	stub := &stubAPI{
		torrent:    qbt.Torrent{SequentialDownload: true, FirstLastPiecePrio: true},
		filesAfter: 10, // empty listings for the whole fast phase
		files:      qbt.TorrentFiles{{Name: "Movie.mkv", Size: 5000}},
	}
	c := newTestClient(stub)

	got, err := c.StreamTorrent(context.Background(), nil, "aa00", 0, 0)
	if err != nil {
		t.Fatalf("stream failed: %v", err)
	}
	if got != "http://media.local/dl/Movie.mkv" {
		t.Errorf("stream url = %q", got)
	}
	if stub.filesRequests <= 10 {
		t.Errorf("expected polling past the fast phase, got %d requests", stub.filesRequests)
	}
}
