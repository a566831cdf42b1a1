package service_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"recorss/internal/config"
	"recorss/internal/network"
	"recorss/internal/service"
)

const richRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Rich Feed</title>
  <link>https://example.com</link>
  <description>Everything</description>
  <item>
    <title>  First post  </title>
    <link>https://example.com/1</link>
    <description>Body</description>
    <comments>https://example.com/1#comments</comments>
    <enclosure url="https://example.com/1.mp3" length="10" type="audio/mpeg"/>
    <guid>post-1</guid>
    <pubDate>Mon, 02 Jan 2006 15:04:05 GMT</pubDate>
    <source url="https://origin.example.com/rss">Origin</source>
    <category>go</category>
    <category>rss</category>
  </item>
  <item>
    <link>https://example.com/2</link>
  </item>
</channel>
</rss>`

const atomFeed = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <title>Atom Feed</title>
  <link href="https://atom.example.com/"/>
  <entry>
    <title>Atom entry</title>
    <link href="https://atom.example.com/e1"/>
    <id>urn:uuid:1</id>
    <published>2024-01-02T03:04:05Z</published>
    <author><name>Bob</name></author>
    <content type="html">Full content</content>
  </entry>
</feed>`

func TestFetcher_FetchRSSKeepsRSSOnlyFields(t *testing.T) {
	var gotUA string
	client := &http.Client{
		Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			gotUA = req.Header.Get("User-Agent")
			return &http.Response{
				StatusCode: http.StatusOK,
				Body:       io.NopCloser(strings.NewReader(richRSS)),
				Header:     make(http.Header),
				Request:    req,
			}, nil
		}),
	}
	fetcher := service.NewFetcher(network.NewClientFactoryForTest(client), time.Second)

	feed, err := fetcher.Fetch(context.Background(), "https://example.com/rss")
	require.NoError(t, err)
	require.Equal(t, config.UserAgent, gotUA)

	channel := service.NormalizeChannel(feed)
	require.Equal(t, "Rich Feed", channel.Title)
	require.Equal(t, "https://example.com", channel.Link)
	require.Equal(t, "Everything", channel.Description)

	entries := service.NormalizeItems(feed.Items)
	require.Len(t, entries, 2)

	first := entries[0]
	require.Equal(t, "First post", first.Title)
	require.Equal(t, "https://example.com/1", first.Link)
	require.Equal(t, "Body", first.Description)
	require.Equal(t, "https://example.com/1#comments", first.Comments)
	require.Equal(t, "https://example.com/1.mp3", first.Enclosure)
	require.Equal(t, "post-1", first.GUID)
	require.Equal(t, "Mon, 02 Jan 2006 15:04:05 GMT", first.PubDate)
	require.Equal(t, "https://origin.example.com/rss", first.Source)
	require.Equal(t, "go, rss", first.Category)

	second := entries[1]
	require.Equal(t, service.DefaultTitle, second.Title)
	require.Empty(t, second.Description)
	require.Empty(t, second.Comments)
}

func TestFetcher_FetchAtom(t *testing.T) {
	clients := feedServer(map[string]string{"https://atom.example.com/feed": atomFeed})
	fetcher := service.NewFetcher(clients, time.Second)

	feed, err := fetcher.Fetch(context.Background(), "https://atom.example.com/feed")
	require.NoError(t, err)

	entries := service.NormalizeItems(feed.Items)
	require.Len(t, entries, 1)
	require.Equal(t, "Atom entry", entries[0].Title)
	require.Equal(t, "https://atom.example.com/e1", entries[0].Link)
	require.Equal(t, "Bob", entries[0].Author)
	require.Equal(t, "Full content", entries[0].Description)
	require.Equal(t, "urn:uuid:1", entries[0].GUID)
}

func TestFetcher_Errors(t *testing.T) {
	clients := feedServer(map[string]string{"https://bad.example.com/rss": "<rss><channel><title>broken"})
	fetcher := service.NewFetcher(clients, time.Second)

	_, err := fetcher.Fetch(context.Background(), "https://missing.example.com/rss")
	require.ErrorIs(t, err, service.ErrFetch)
	var fetchErr *service.FetchError
	require.True(t, errors.As(err, &fetchErr))
	require.Equal(t, "https://missing.example.com/rss", fetchErr.FeedURL)
	require.Contains(t, err.Error(), "HTTP 404")

	_, err = fetcher.Fetch(context.Background(), "https://bad.example.com/rss")
	require.ErrorIs(t, err, service.ErrFetch)
}

func TestFetcher_TransportError(t *testing.T) {
	boom := errors.New("connection refused")
	client := &http.Client{
		Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			return nil, boom
		}),
	}
	fetcher := service.NewFetcher(network.NewClientFactoryForTest(client), time.Second)

	_, err := fetcher.Fetch(context.Background(), "https://example.com/rss")
	require.ErrorIs(t, err, service.ErrFetch)
	require.ErrorIs(t, err, boom)
}
