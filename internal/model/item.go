package model

import "time"

// Entry is a feed entry after normalization. Every field is populated, using
// defaults for anything the source did not provide.
type Entry struct {
	Title       string
	Link        string
	Description string
	Author      string
	Category    string
	Comments    string
	Enclosure   string
	GUID        string
	PubDate     string
	Source      string
}

// ScoredEntry is an entry with its aggregated ensemble vote and resulting verdict.
type ScoredEntry struct {
	Entry
	Votes   float64
	Verdict Label
}

// Item is a persisted entry. (FeedSource, Title) is unique.
type Item struct {
	ID          int64
	FeedSource  string
	Title       string
	Link        string
	Verdict     Label
	UserLabel   *Label
	Description string
	Author      string
	Category    string
	Comments    string
	Enclosure   string
	GUID        string
	PubDate     string
	Source      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
