package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"recorss/internal/model"
)

const (
	AppName    = "recorss"
	AppVersion = "1.0.0"
)

// UserAgent identifies the fetcher to feed hosts.
var UserAgent = "Mozilla/5.0 (compatible; " + AppName + "/" + AppVersion + ")"

const (
	DefaultInterval          = 4 * time.Hour
	DefaultWorkers           = 4
	DefaultFetchTimeout      = 30 * time.Second
	DefaultClassifierTimeout = 2 * time.Minute
	DefaultPublishWindow     = 14 * 24 * time.Hour
)

// Config holds process settings (environment) and the pipeline definition (YAML file).
type Config struct {
	Addr       string
	DBPath     string
	DataDir    string
	OutputDir  string
	ConfigPath string
	LogLevel   string
	LogFormat  string
	NodeID     int64

	Pipeline Pipeline
}

type Pipeline struct {
	Quorum            int                         `yaml:"quorum"`
	Host              string                      `yaml:"host"`
	Interval          time.Duration               `yaml:"interval"`
	Workers           int                         `yaml:"workers"`
	FetchTimeout      time.Duration               `yaml:"fetch_timeout"`
	ClassifierTimeout time.Duration               `yaml:"classifier_timeout"`
	PublishWindow     time.Duration               `yaml:"publish_window"`
	StrictClassifiers bool                        `yaml:"strict_classifiers"`
	ProxyURL          string                      `yaml:"proxy_url"`
	Feeds             []FeedConfig                `yaml:"feeds"`
	Classifiers       map[string]ClassifierConfig `yaml:"classifiers"`
}

type FeedConfig struct {
	URL       string `yaml:"url"`
	Directory string `yaml:"directory"`
	ShowAll   bool   `yaml:"show_all"`
	Quorum    *int   `yaml:"quorum"`
}

// ClassifierConfig configures one ensemble member. Only the fields relevant to
// its type are read.
type ClassifierConfig struct {
	Type   string `yaml:"type"` // defaults to the map key
	Weight int    `yaml:"weight"`
	Active *bool  `yaml:"active"`
	Prompt string `yaml:"prompt"`

	// tfidf
	ModelPath string `yaml:"model_path"`
	// neural
	Endpoint string `yaml:"endpoint"`
	// llm
	Provider string `yaml:"provider"`
	Model    string `yaml:"model"`
	BaseURL  string `yaml:"base_url"`
	QPS      int    `yaml:"qps"`
	// neural, llm
	APIKey string `yaml:"api_key"`
	// constant: "positive" (default) or "negative"
	Constant string `yaml:"constant"`
}

// IsActive reports whether the classifier votes. Classifiers are active unless
// explicitly disabled.
func (c ClassifierConfig) IsActive() bool {
	return c.Active == nil || *c.Active
}

// Load reads process settings from the environment and the pipeline from the
// YAML file named by RECORSS_CONFIG.
func Load() (Config, error) {
	dataDir := envOr("RECORSS_DATA_DIR", "./data")
	cfg := Config{
		Addr:       envOr("RECORSS_ADDR", ":8080"),
		DataDir:    filepath.Clean(dataDir),
		DBPath:     filepath.Clean(envOr("RECORSS_DB_PATH", filepath.Join(dataDir, "recorss.db"))),
		OutputDir:  filepath.Clean(envOr("RECORSS_OUTPUT_DIR", filepath.Join(dataDir, "files"))),
		ConfigPath: envOr("RECORSS_CONFIG", "./config.yml"),
		LogLevel:   envOr("RECORSS_LOG_LEVEL", "info"),
		LogFormat:  envOr("RECORSS_LOG_FORMAT", "text"),
		NodeID:     1,
	}
	if v := os.Getenv("RECORSS_NODE_ID"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return Config{}, fmt.Errorf("parse RECORSS_NODE_ID: %w", err)
		}
		cfg.NodeID = id
	}

	raw, err := os.ReadFile(cfg.ConfigPath)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", cfg.ConfigPath, err)
	}
	pipeline, err := ParsePipeline(raw)
	if err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", cfg.ConfigPath, err)
	}
	cfg.Pipeline = pipeline
	return cfg, nil
}

// ParsePipeline decodes, defaults, and validates a pipeline definition.
func ParsePipeline(raw []byte) (Pipeline, error) {
	var p Pipeline
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return Pipeline{}, err
	}

	// A missing quorum would decode to 0 and pass every entry.
	var presence struct {
		Quorum *int `yaml:"quorum"`
	}
	if err := yaml.Unmarshal(raw, &presence); err != nil {
		return Pipeline{}, err
	}
	if presence.Quorum == nil {
		return Pipeline{}, errors.New("quorum is required")
	}

	p.applyDefaults()
	p.applyEnvOverrides()
	if err := p.Validate(); err != nil {
		return Pipeline{}, err
	}
	return p, nil
}

func (p *Pipeline) applyDefaults() {
	if p.Interval <= 0 {
		p.Interval = DefaultInterval
	}
	if p.Workers <= 0 {
		p.Workers = DefaultWorkers
	}
	if p.FetchTimeout <= 0 {
		p.FetchTimeout = DefaultFetchTimeout
	}
	if p.ClassifierTimeout <= 0 {
		p.ClassifierTimeout = DefaultClassifierTimeout
	}
	if p.PublishWindow <= 0 {
		p.PublishWindow = DefaultPublishWindow
	}
	p.Host = strings.TrimRight(strings.TrimSpace(p.Host), "/")
	for name, c := range p.Classifiers {
		if c.Type == "" {
			c.Type = name
		}
		p.Classifiers[name] = c
	}
}

func (p *Pipeline) applyEnvOverrides() {
	for name, c := range p.Classifiers {
		if c.APIKey != "" {
			continue
		}
		switch c.Provider {
		case "anthropic":
			c.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		case "", "openai", "compatible":
			if c.Type == "llm" || c.Type == "gpt" {
				c.APIKey = os.Getenv("OPENAI_API_KEY")
			}
		}
		p.Classifiers[name] = c
	}
}

// Validate rejects definitions the pipeline cannot run.
func (p Pipeline) Validate() error {
	var errs []error
	if p.Host == "" {
		errs = append(errs, errors.New("host is required"))
	}
	if p.Quorum < 0 {
		errs = append(errs, fmt.Errorf("quorum must not be negative, got %d", p.Quorum))
	}
	if len(p.Feeds) == 0 {
		errs = append(errs, errors.New("at least one feed is required"))
	}
	seenURL := make(map[string]bool)
	seenDir := make(map[string]bool)
	for i, f := range p.Feeds {
		if strings.TrimSpace(f.URL) == "" {
			errs = append(errs, fmt.Errorf("feeds[%d]: url is required", i))
			continue
		}
		if seenURL[f.URL] {
			errs = append(errs, fmt.Errorf("feeds[%d]: duplicate url %s", i, f.URL))
		}
		seenURL[f.URL] = true
		if f.Quorum != nil && *f.Quorum < 0 {
			errs = append(errs, fmt.Errorf("feeds[%d]: quorum must not be negative, got %d", i, *f.Quorum))
		}
		dir := f.directory()
		if dir == "." || dir == ".." || strings.ContainsAny(dir, `/\`) {
			errs = append(errs, fmt.Errorf("feeds[%d]: invalid directory %q", i, f.Directory))
		}
		if seenDir[dir] {
			errs = append(errs, fmt.Errorf("feeds[%d]: duplicate directory %s", i, dir))
		}
		seenDir[dir] = true
	}
	for name, c := range p.Classifiers {
		if c.Weight <= 0 {
			errs = append(errs, fmt.Errorf("classifiers.%s: weight must be positive", name))
		}
	}
	return errors.Join(errs...)
}

// Sources converts the feed list into pipeline feed sources.
func (p Pipeline) Sources() []model.FeedSource {
	sources := make([]model.FeedSource, 0, len(p.Feeds))
	for _, f := range p.Feeds {
		sources = append(sources, model.FeedSource{
			URL:       strings.TrimSpace(f.URL),
			Directory: f.directory(),
			Quorum:    f.Quorum,
			ShowAll:   f.ShowAll,
		})
	}
	return sources
}

func (f FeedConfig) directory() string {
	if d := strings.TrimSpace(f.Directory); d != "" {
		return d
	}
	return model.HashURL(strings.TrimSpace(f.URL))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
