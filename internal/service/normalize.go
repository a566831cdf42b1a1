package service

import (
	"strings"

	"github.com/mmcdole/gofeed"

	"recorss/internal/model"
)

// DefaultTitle replaces a missing channel or item title.
const DefaultTitle = "No title"

// NormalizeChannel maps the parsed channel header onto the output channel fields.
func NormalizeChannel(feed *gofeed.Feed) model.Channel {
	if feed == nil {
		return model.Channel{Title: DefaultTitle}
	}
	return model.Channel{
		Title:       orDefault(feed.Title, DefaultTitle),
		Link:        strings.TrimSpace(feed.Link),
		Description: strings.TrimSpace(feed.Description),
	}
}

// NormalizeItem maps RSS and Atom entries onto one shape. Missing fields get
// defaults; it never fails.
func NormalizeItem(item *gofeed.Item) model.Entry {
	if item == nil {
		return model.Entry{Title: DefaultTitle}
	}

	entry := model.Entry{
		Title:       orDefault(item.Title, DefaultTitle),
		Link:        strings.TrimSpace(item.Link),
		Description: item.Description,
		GUID:        strings.TrimSpace(item.GUID),
		PubDate:     strings.TrimSpace(item.Published),
		Category:    strings.Join(item.Categories, ", "),
	}

	if entry.Link == "" && len(item.Links) > 0 {
		entry.Link = strings.TrimSpace(item.Links[0])
	}
	if entry.Description == "" {
		entry.Description = item.Content
	}
	if entry.PubDate == "" {
		entry.PubDate = strings.TrimSpace(item.Updated)
	}

	if item.Author != nil {
		entry.Author = strings.TrimSpace(item.Author.Name)
		if entry.Author == "" {
			entry.Author = strings.TrimSpace(item.Author.Email)
		}
	}

	for _, enc := range item.Enclosures {
		if enc != nil && strings.TrimSpace(enc.URL) != "" {
			entry.Enclosure = strings.TrimSpace(enc.URL)
			break
		}
	}

	if item.Custom != nil {
		entry.Comments = item.Custom[customComments]
		entry.Source = item.Custom[customSource]
	}

	return entry
}

// NormalizeItems preserves source order.
func NormalizeItems(items []*gofeed.Item) []model.Entry {
	entries := make([]model.Entry, 0, len(items))
	for _, item := range items {
		entries = append(entries, NormalizeItem(item))
	}
	return entries
}

func orDefault(value, fallback string) string {
	if v := strings.TrimSpace(value); v != "" {
		return v
	}
	return fallback
}
