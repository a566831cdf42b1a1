// Package classifier holds the ensemble members: a TF-IDF logistic model, a
// remote neural sequence classifier, a language-model classifier and a
// constant voter.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"recorss/internal/config"
	"recorss/internal/logger"
	"recorss/internal/model"
	"recorss/internal/network"
	"recorss/internal/service/ai"
)

// Classifier scores entries. Run returns exactly one value per entry, in input
// order; 0/1 for binary voters or a probability for continuous ones.
type Classifier interface {
	Name() string
	Weight() int
	Active() bool
	Run(ctx context.Context, entries []model.Entry) ([]float64, error)
}

// Type names accepted in the classifiers section of the config.
const (
	TypeTFIDF    = "tfidf"
	TypeNeural   = "neural"
	TypeLLM      = "llm"
	TypeConstant = "constant"
)

var ErrUnknownType = errors.New("unknown classifier type")

// Deps carries what the remote classifiers need to reach their backends.
type Deps struct {
	Clients     *network.ClientFactory
	NewProvider func(ai.Config) (ai.Provider, error)
}

// Load builds the ensemble members in name order. Inactive classifiers are
// skipped. A classifier that fails to initialize is replaced by a
// constant-positive voter of the same weight, unless strict is set, in which
// case the failure is returned.
func Load(ctx context.Context, defs map[string]config.ClassifierConfig, strict bool, deps Deps) ([]Classifier, error) {
	if deps.Clients == nil {
		deps.Clients = network.NewClientFactory("")
	}
	if deps.NewProvider == nil {
		deps.NewProvider = ai.NewProvider
	}

	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)

	var loaded []Classifier
	for _, name := range names {
		cfg := defs[name]
		if !cfg.IsActive() {
			logger.Debug("classifier skipped", "module", "classifier", "action", "load", "resource", "classifier", "result", "skipped", "classifier", name)
			continue
		}

		c, err := build(ctx, name, cfg, deps)
		if errors.Is(err, ErrUnknownType) {
			return nil, fmt.Errorf("classifier %s: %w: %s", name, err, cfg.Type)
		}
		if err != nil {
			if strict {
				return nil, fmt.Errorf("classifier %s: %w", name, err)
			}
			logger.Warn("classifier init failed, using constant fallback", "module", "classifier", "action", "load", "resource", "classifier", "result", "failed", "classifier", name, "error", err)
			c = NewConstant(name, cfg.Weight, model.LabelPositive)
		}
		loaded = append(loaded, c)
	}

	logger.Info("classifiers loaded", "module", "classifier", "action", "load", "resource", "classifier", "result", "ok", "count", len(loaded))
	return loaded, nil
}

func build(ctx context.Context, name string, cfg config.ClassifierConfig, deps Deps) (Classifier, error) {
	switch cfg.Type {
	case TypeTFIDF:
		return LoadTFIDF(name, cfg.Weight, cfg.ModelPath)
	case TypeNeural:
		n := NewNeural(name, cfg.Weight, cfg.Endpoint, cfg.APIKey, deps.Clients)
		if err := n.Check(ctx); err != nil {
			return nil, err
		}
		return n, nil
	case TypeLLM, "gpt":
		provider, err := deps.NewProvider(ai.Config{
			Provider: cfg.Provider,
			APIKey:   cfg.APIKey,
			BaseURL:  cfg.BaseURL,
			Model:    cfg.Model,
		})
		if err != nil {
			return nil, err
		}
		return NewLLM(name, cfg.Weight, cfg.Prompt, provider, ai.NewRateLimiter(cfg.QPS)), nil
	case TypeConstant:
		label := model.LabelPositive
		if cfg.Constant != "" {
			parsed, err := model.ParseLabel(cfg.Constant)
			if err != nil {
				return nil, err
			}
			label = parsed
		}
		return NewConstant(name, cfg.Weight, label), nil
	default:
		return nil, ErrUnknownType
	}
}

type base struct {
	name   string
	weight int
}

func (b base) Name() string { return b.name }
func (b base) Weight() int  { return b.weight }
func (b base) Active() bool { return true }
