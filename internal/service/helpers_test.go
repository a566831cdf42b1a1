package service_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"

	"recorss/internal/model"
	"recorss/internal/network"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// feedServer answers each URL with a fixed body; unknown URLs get 404.
func feedServer(bodies map[string]string) *network.ClientFactory {
	var mu sync.Mutex
	client := &http.Client{
		Transport: roundTripperFunc(func(req *http.Request) (*http.Response, error) {
			mu.Lock()
			body, ok := bodies[req.URL.String()]
			mu.Unlock()
			status := http.StatusOK
			if !ok {
				status = http.StatusNotFound
			}
			return &http.Response{
				StatusCode: status,
				Body:       io.NopCloser(strings.NewReader(body)),
				Header:     make(http.Header),
				Request:    req,
			}, nil
		}),
	}
	return network.NewClientFactoryForTest(client)
}

func rssFeed(titles ...string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel><title>Test Feed</title><link>https://example.com</link><description>Tests</description>`)
	for _, title := range titles {
		b.WriteString("<item><title>" + title + "</title><link>https://example.com/" + title + "</link><description>about " + title + "</description></item>")
	}
	b.WriteString("</channel></rss>")
	return b.String()
}

// stubClassifier votes from a title table; missing titles vote 0.
type stubClassifier struct {
	name     string
	weight   int
	inactive bool
	votes    map[string]float64
	failOn   string
	short    bool

	mu    sync.Mutex
	calls int
}

func (c *stubClassifier) Name() string { return c.name }
func (c *stubClassifier) Weight() int  { return c.weight }
func (c *stubClassifier) Active() bool { return !c.inactive }

func (c *stubClassifier) Run(_ context.Context, entries []model.Entry) ([]float64, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()

	out := make([]float64, 0, len(entries))
	for _, e := range entries {
		if c.failOn != "" && e.Title == c.failOn {
			return nil, errors.New("model exploded")
		}
		out = append(out, c.votes[e.Title])
	}
	if c.short && len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

func (c *stubClassifier) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func intPtr(v int) *int { return &v }

func stringPtr(s string) *string { return &s }
