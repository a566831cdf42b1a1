package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"recorss/internal/model"
	"recorss/internal/service/ai"
)

// LLM asks a chat model to label all titles of a batch in one request.
type LLM struct {
	base
	prompt   string
	provider ai.Provider
	limiter  *ai.RateLimiter
}

func NewLLM(name string, weight int, prompt string, provider ai.Provider, limiter *ai.RateLimiter) *LLM {
	if limiter == nil {
		limiter = ai.NewRateLimiter(ai.DefaultRateLimit)
	}
	return &LLM{
		base:     base{name: name, weight: weight},
		prompt:   prompt,
		provider: provider,
		limiter:  limiter,
	}
}

func (c *LLM) Run(ctx context.Context, entries []model.Entry) ([]float64, error) {
	if len(entries) == 0 {
		return []float64{}, nil
	}

	titles := make([]string, len(entries))
	for i, e := range entries {
		titles[i] = e.Title
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := c.provider.Complete(ctx, ai.LabelSystemPrompt, ai.GetLabelPrompt(c.prompt, titles))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", c.provider.Name(), err)
	}
	return parseLabels(resp)
}

// parseLabels reads {"labels": [...]} from a model reply, tolerating code
// fences or chatter around the object.
func parseLabels(resp string) ([]float64, error) {
	start := strings.Index(resp, "{")
	end := strings.LastIndex(resp, "}")
	if start < 0 || end < start {
		return nil, errors.New("no JSON object in response")
	}

	var out struct {
		Labels []float64 `json:"labels"`
	}
	if err := json.Unmarshal([]byte(resp[start:end+1]), &out); err != nil {
		return nil, fmt.Errorf("decode labels: %w", err)
	}
	if out.Labels == nil {
		return nil, errors.New("response has no labels")
	}
	return out.Labels, nil
}
