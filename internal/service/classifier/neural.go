package classifier

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"recorss/internal/model"
	"recorss/internal/network"
)

const neuralTimeout = 60 * time.Second

// Neural sends titles to an inference server hosting a fine-tuned sequence
// classifier and reads back one label per title.
//
//	POST {endpoint}/predict  {"inputs": ["title", ...]}  ->  {"labels": [0, 1, ...]}
//	GET  {endpoint}/health   -> 200
type Neural struct {
	base
	endpoint string
	apiKey   string
	http     *http.Client
}

func NewNeural(name string, weight int, endpoint, apiKey string, clients *network.ClientFactory) *Neural {
	return &Neural{
		base:     base{name: name, weight: weight},
		endpoint: strings.TrimRight(endpoint, "/"),
		apiKey:   apiKey,
		http:     clients.NewHTTPClient(neuralTimeout),
	}
}

// Check verifies the inference server is reachable.
func (c *Neural) Check(ctx context.Context) error {
	if c.endpoint == "" {
		return errors.New("endpoint is required")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/health", nil)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check: unexpected status %s", resp.Status)
	}
	return nil
}

func (c *Neural) Run(ctx context.Context, entries []model.Entry) ([]float64, error) {
	if len(entries) == 0 {
		return []float64{}, nil
	}

	titles := make([]string, len(entries))
	for i, e := range entries {
		titles[i] = e.Title
	}
	body, err := json.Marshal(map[string]any{"inputs": titles})
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/predict", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.authorize(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var out struct {
		Labels []float64 `json:"labels"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return out.Labels, nil
}

func (c *Neural) authorize(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
}
