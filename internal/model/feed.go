package model

import (
	"crypto/sha256"
	"encoding/base64"
)

// FeedSource identifies one input feed and where its filtered copy is written.
type FeedSource struct {
	URL       string
	Directory string
	Quorum    *int // overrides the global quorum when set
	ShowAll   bool
}

// Key is the per-feed identifier stored with every item. Dedup is scoped to it.
func (f FeedSource) Key() string {
	return f.URL
}

// Channel holds the channel-level fields carried from the source feed into the output.
type Channel struct {
	Title       string
	Link        string
	Description string
}

// HashURL returns a short, URL-safe directory name derived from a feed URL.
func HashURL(url string) string {
	sum := sha256.Sum256([]byte(url))
	return base64.URLEncoding.EncodeToString(sum[:])[:8]
}
