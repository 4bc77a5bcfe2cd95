package qbit

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"

	"github.com/zeebo/bencode"
)

type torrentMeta struct {
	Info bencode.RawMessage `bencode:"info"`
}

// InfoHash computes the v1 info hash of a .torrent file, for candidates
// whose tracker listing never exposed one.
func InfoHash(torrentData []byte) (string, error) {
	var meta torrentMeta
	if err := bencode.DecodeBytes(torrentData, &meta); err != nil {
		return "", fmt.Errorf("invalid torrent file: %w", err)
	}
	if len(meta.Info) == 0 {
		return "", fmt.Errorf("torrent file has no info dictionary")
	}
	sum := sha1.Sum(meta.Info)
	return hex.EncodeToString(sum[:]), nil
}
