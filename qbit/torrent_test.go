package qbit

import (
	"crypto/sha1"
	"encoding/hex"
	"testing"
)

func TestInfoHash(t *testing.T) {
	info := "d6:lengthi1024e4:name8:file.mkv12:piece lengthi16384ee"
	torrent := "d8:announce20:http://tracker/annce4:info" + info + "e"

	sum := sha1.Sum([]byte(info))
	want := hex.EncodeToString(sum[:])

	got, err := InfoHash([]byte(torrent))
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Errorf("got %s, want %s", got, want)
	}
}

func TestInfoHashInvalid(t *testing.T) {
	for name, data := range map[string][]byte{
		"not bencode": []byte("hello"),
		"no info":     []byte("d8:announce3:urle"),
		"empty":       nil,
	} {
		if _, err := InfoHash(data); err == nil {
			t.Errorf("%s: expected an error", name)
		}
	}
}
