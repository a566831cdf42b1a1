package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html"
	"math"
	"os"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"recorss/internal/model"
)

// TFIDFModel is the exported form of a fitted TF-IDF + logistic regression
// pipeline. Vocabulary maps a term to its column; IDF and Coef are indexed by column.
type TFIDFModel struct {
	Vocabulary  map[string]int `json:"vocabulary"`
	IDF         []float64      `json:"idf"`
	Coef        []float64      `json:"coef"`
	Intercept   float64        `json:"intercept"`
	Lowercase   *bool          `json:"lowercase"`
	NgramMax    int            `json:"ngram_max"`
	Probability bool           `json:"probability"`
}

// Tokens are runs of two or more letters, digits or underscores.
var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}_]{2,}`)

// TFIDF scores titles with a linear model over L2-normalized TF-IDF vectors.
// It votes 1 when the predicted probability is at least 0.5, or returns the
// probability itself when the artifact asks for it.
type TFIDF struct {
	base
	artifact  TFIDFModel
	lowercase bool
	sanitizer *bluemonday.Policy
}

func LoadTFIDF(name string, weight int, path string) (*TFIDF, error) {
	if path == "" {
		return nil, errors.New("model_path is required")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read model: %w", err)
	}
	var artifact TFIDFModel
	if err := json.Unmarshal(raw, &artifact); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	return NewTFIDF(name, weight, artifact)
}

func NewTFIDF(name string, weight int, artifact TFIDFModel) (*TFIDF, error) {
	if len(artifact.Vocabulary) == 0 {
		return nil, errors.New("model has an empty vocabulary")
	}
	if len(artifact.IDF) != len(artifact.Coef) {
		return nil, fmt.Errorf("model idf/coef length mismatch: %d != %d", len(artifact.IDF), len(artifact.Coef))
	}
	for term, col := range artifact.Vocabulary {
		if col < 0 || col >= len(artifact.Coef) {
			return nil, fmt.Errorf("model term %q column %d out of range", term, col)
		}
	}
	if artifact.NgramMax <= 0 {
		artifact.NgramMax = 1
	}
	return &TFIDF{
		base:      base{name: name, weight: weight},
		artifact:  artifact,
		lowercase: artifact.Lowercase == nil || *artifact.Lowercase,
		sanitizer: bluemonday.StrictPolicy(),
	}, nil
}

func (c *TFIDF) Run(ctx context.Context, entries []model.Entry) ([]float64, error) {
	out := make([]float64, len(entries))
	for i, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := c.probability(e.Title)
		if c.artifact.Probability {
			out[i] = p
		} else if p >= 0.5 {
			out[i] = 1
		}
	}
	return out, nil
}

func (c *TFIDF) probability(title string) float64 {
	counts := make(map[int]float64)
	for _, term := range c.terms(title) {
		if col, ok := c.artifact.Vocabulary[term]; ok {
			counts[col]++
		}
	}

	var norm float64
	for col, tf := range counts {
		w := tf * c.artifact.IDF[col]
		counts[col] = w
		norm += w * w
	}
	norm = math.Sqrt(norm)

	z := c.artifact.Intercept
	if norm > 0 {
		for col, w := range counts {
			z += (w / norm) * c.artifact.Coef[col]
		}
	}
	return 1 / (1 + math.Exp(-z))
}

func (c *TFIDF) terms(title string) []string {
	text := html.UnescapeString(c.sanitizer.Sanitize(title))
	if c.lowercase {
		text = strings.ToLower(text)
	}
	tokens := tokenPattern.FindAllString(text, -1)

	terms := make([]string, 0, len(tokens)*c.artifact.NgramMax)
	for n := 1; n <= c.artifact.NgramMax; n++ {
		for i := 0; i+n <= len(tokens); i++ {
			terms = append(terms, strings.Join(tokens[i:i+n], " "))
		}
	}
	return terms
}
