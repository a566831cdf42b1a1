package service

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/mmcdole/gofeed/rss"

	"recorss/internal/config"
	"recorss/internal/network"
)

// Fetcher downloads and parses one feed. It does not retry; a failed feed is
// picked up again on the next pass.
type Fetcher interface {
	Fetch(ctx context.Context, feedURL string) (*gofeed.Feed, error)
}

type httpFetcher struct {
	clients *network.ClientFactory
	timeout time.Duration
}

func NewFetcher(clients *network.ClientFactory, timeout time.Duration) Fetcher {
	if clients == nil {
		clients = network.NewClientFactory("")
	}
	if timeout <= 0 {
		timeout = config.DefaultFetchTimeout
	}
	return &httpFetcher{clients: clients, timeout: timeout}
}

func (f *httpFetcher) Fetch(ctx context.Context, feedURL string) (*gofeed.Feed, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, &FetchError{FeedURL: feedURL, Err: err}
	}
	req.Header.Set("User-Agent", config.UserAgent)
	req.Header.Set("Accept", "application/rss+xml, application/atom+xml, application/xml;q=0.9, */*;q=0.8")

	resp, err := f.clients.NewHTTPClient(f.timeout).Do(req)
	if err != nil {
		return nil, &FetchError{FeedURL: feedURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &FetchError{FeedURL: feedURL, Err: fmt.Errorf("HTTP %d", resp.StatusCode)}
	}

	parser := gofeed.NewParser()
	parser.RSSTranslator = newRSSTranslator()
	parsed, err := parser.Parse(resp.Body)
	if err != nil {
		return nil, &FetchError{FeedURL: feedURL, Err: err}
	}
	return parsed, nil
}

// Keys under which RSS-only item fields are kept in gofeed.Item.Custom.
const (
	customComments = "comments"
	customSource   = "source"
)

// rssTranslator keeps the RSS <comments> and <source> elements, which the
// universal gofeed model has no fields for.
type rssTranslator struct {
	base *gofeed.DefaultRSSTranslator
}

func newRSSTranslator() *rssTranslator {
	return &rssTranslator{base: &gofeed.DefaultRSSTranslator{}}
}

func (t *rssTranslator) Translate(feed interface{}) (*gofeed.Feed, error) {
	rssFeed, ok := feed.(*rss.Feed)
	if !ok {
		return nil, fmt.Errorf("feed did not match expected type of *rss.Feed")
	}

	translated, err := t.base.Translate(rssFeed)
	if err != nil {
		return nil, err
	}

	for i, item := range rssFeed.Items {
		if i >= len(translated.Items) {
			break
		}
		out := translated.Items[i]
		if out.Custom == nil {
			out.Custom = make(map[string]string)
		}
		if c := strings.TrimSpace(item.Comments); c != "" {
			out.Custom[customComments] = c
		}
		if item.Source != nil {
			src := strings.TrimSpace(item.Source.URL)
			if src == "" {
				src = strings.TrimSpace(item.Source.Title)
			}
			if src != "" {
				out.Custom[customSource] = src
			}
		}
	}
	return translated, nil
}
