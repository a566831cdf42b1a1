package service

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/renameio/v2"

	"recorss/internal/config"
	"recorss/internal/model"
	"recorss/internal/repository"
)

// PositiveMarker prefixes the titles of Positive items.
const PositiveMarker = "⭐ "

// FeedFileName is the file written under each feed's directory.
const FeedFileName = "feed.xml"

type rssDocument struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	Author      string `xml:"author"`
	Comments    string `xml:"comments"`
	Enclosure   string `xml:"enclosure"`
	GUID        string `xml:"guid"`
	PubDate     string `xml:"pubDate"`
	Source      string `xml:"source"`
}

// Publisher writes the filtered RSS document of a feed from stored items.
type Publisher struct {
	items     repository.ItemRepository
	outputDir string
	host      string
	window    time.Duration
	now       func() time.Time
}

func NewPublisher(items repository.ItemRepository, outputDir, host string, window time.Duration) *Publisher {
	if window <= 0 {
		window = config.DefaultPublishWindow
	}
	return &Publisher{
		items:     items,
		outputDir: outputDir,
		host:      host,
		window:    window,
		now:       time.Now,
	}
}

// Path returns where the document of source is written.
func (p *Publisher) Path(source model.FeedSource) string {
	return filepath.Join(p.outputDir, source.Directory, FeedFileName)
}

// Publish renders items stored for source within the publish window and
// atomically replaces the feed file.
func (p *Publisher) Publish(ctx context.Context, channel model.Channel, source model.FeedSource) (string, error) {
	path := p.Path(source)

	var verdicts []model.Label
	if !source.ShowAll {
		verdicts = []model.Label{model.LabelPositive}
	}
	items, err := p.items.ListRecent(ctx, source.Key(), p.now().Add(-p.window), verdicts)
	if err != nil {
		return "", &PublishError{Path: path, Err: fmt.Errorf("list items: %w", err)}
	}

	data, err := Render(channel, items, source, p.host)
	if err != nil {
		return "", &PublishError{Path: path, Err: err}
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", &PublishError{Path: path, Err: err}
	}
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return "", &PublishError{Path: path, Err: err}
	}
	return path, nil
}

// Render builds the RSS 2.0 document. Items are emitted in the given order;
// an item is included iff it is Positive or the feed shows everything.
func Render(channel model.Channel, items []model.Item, source model.FeedSource, host string) ([]byte, error) {
	doc := rssDocument{
		Version: "2.0",
		Channel: rssChannel{
			Title:       orDefault(channel.Title, DefaultTitle),
			Link:        channel.Link,
			Description: channel.Description,
		},
	}

	for _, it := range items {
		if it.Verdict != model.LabelPositive && !source.ShowAll {
			continue
		}
		title := it.Title
		if it.Verdict == model.LabelPositive {
			title = PositiveMarker + title
		}
		id := strconv.FormatInt(it.ID, 10)
		doc.Channel.Items = append(doc.Channel.Items, rssItem{
			Title:       title,
			Link:        fmt.Sprintf("%s/update/%s/1", host, id),
			Description: fmt.Sprintf("<a href='%s/update/%s/0'>Click To Dislike</a><br><br>%s", host, id, it.Description),
			Author:      it.Author,
			Comments:    it.Comments,
			Enclosure:   it.Enclosure,
			GUID:        it.GUID,
			PubDate:     it.PubDate,
			Source:      it.Source,
		})
	}

	var buf bytes.Buffer
	buf.WriteString(xml.Header)
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return nil, err
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
