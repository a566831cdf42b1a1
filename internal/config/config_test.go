package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"recorss/internal/config"
	"recorss/internal/model"
)

const sampleConfig = `
quorum: 2
host: https://reco.example.com/
interval: 1h
feeds:
  - url: https://example.com/rss
    directory: example
    show_all: true
  - url: https://example.org/atom
    quorum: 1
classifiers:
  tfidf:
    weight: 1
    model_path: /data/models/tfidf.json
  gpt:
    type: llm
    weight: 2
    active: false
    prompt: I like Go
`

func TestParsePipeline_Defaults(t *testing.T) {
	p, err := config.ParsePipeline([]byte(sampleConfig))
	require.NoError(t, err)

	require.Equal(t, 2, p.Quorum)
	require.Equal(t, "https://reco.example.com", p.Host)
	require.Equal(t, time.Hour, p.Interval)
	require.Equal(t, config.DefaultWorkers, p.Workers)
	require.Equal(t, config.DefaultFetchTimeout, p.FetchTimeout)
	require.Equal(t, config.DefaultPublishWindow, p.PublishWindow)

	require.Equal(t, "tfidf", p.Classifiers["tfidf"].Type)
	require.True(t, p.Classifiers["tfidf"].IsActive())
	require.Equal(t, "llm", p.Classifiers["gpt"].Type)
	require.False(t, p.Classifiers["gpt"].IsActive())
}

func TestParsePipeline_Sources(t *testing.T) {
	p, err := config.ParsePipeline([]byte(sampleConfig))
	require.NoError(t, err)

	sources := p.Sources()
	require.Len(t, sources, 2)
	require.Equal(t, "example", sources[0].Directory)
	require.True(t, sources[0].ShowAll)
	require.Nil(t, sources[0].Quorum)

	require.Equal(t, model.HashURL("https://example.org/atom"), sources[1].Directory)
	require.NotNil(t, sources[1].Quorum)
	require.Equal(t, 1, *sources[1].Quorum)
}

func TestParsePipeline_LLMKeyFromEnv(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	p, err := config.ParsePipeline([]byte(sampleConfig))
	require.NoError(t, err)
	require.Equal(t, "sk-test", p.Classifiers["gpt"].APIKey)
	require.Empty(t, p.Classifiers["tfidf"].APIKey)
}

func TestParsePipeline_Invalid(t *testing.T) {
	cases := map[string]string{
		"missing host": `
quorum: 1
feeds:
  - url: https://example.com/rss
`,
		"no feeds": "quorum: 1\nhost: http://h",
		"missing quorum": `
host: http://h
feeds:
  - url: https://a.example.com/rss
`,
		"misspelled quorum": `
quorom: 2
host: http://h
feeds:
  - url: https://a.example.com/rss
`,
		"unknown feed key": `
quorum: 1
host: http://h
feeds:
  - url: https://a.example.com/rss
    dir: a
`,
		"negative quorum": `
quorum: -3
host: http://h
feeds:
  - url: https://a.example.com/rss
`,
		"negative feed quorum": `
quorum: 1
host: http://h
feeds:
  - url: https://a.example.com/rss
    quorum: -1
`,
		"empty document": "",
		"duplicate url": `
quorum: 1
host: http://h
feeds:
  - url: https://example.com/rss
  - url: https://example.com/rss
    directory: other
`,
		"duplicate directory": `
quorum: 1
host: http://h
feeds:
  - url: https://a.example.com/rss
    directory: same
  - url: https://b.example.com/rss
    directory: same
`,
		"traversal directory": `
quorum: 1
host: http://h
feeds:
  - url: https://a.example.com/rss
    directory: ../etc
`,
		"zero weight": `
quorum: 1
host: http://h
feeds:
  - url: https://a.example.com/rss
classifiers:
  constant:
    weight: 0
`,
	}
	for name, raw := range cases {
		_, err := config.ParsePipeline([]byte(raw))
		require.Error(t, err, name)
	}
}

func TestParsePipeline_ZeroQuorumIsExplicit(t *testing.T) {
	p, err := config.ParsePipeline([]byte(`
quorum: 0
host: http://h
feeds:
  - url: https://a.example.com/rss
    quorum: 0
`))
	require.NoError(t, err)
	require.Equal(t, 0, p.Quorum)
	require.Equal(t, 0, *p.Feeds[0].Quorum)
}

func TestParsePipeline_ErrorNamesField(t *testing.T) {
	_, err := config.ParsePipeline([]byte("quorom: 2\nhost: http://h\nfeeds:\n  - url: https://a.example.com/rss\n"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "quorom")

	_, err = config.ParsePipeline([]byte("host: http://h\nfeeds:\n  - url: https://a.example.com/rss\n"))
	require.EqualError(t, err, "quorum is required")
}

func TestLoad_FromFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(sampleConfig), 0o644))

	t.Setenv("RECORSS_CONFIG", path)
	t.Setenv("RECORSS_DATA_DIR", dir)
	t.Setenv("RECORSS_ADDR", ":9999")
	t.Setenv("RECORSS_NODE_ID", "7")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, ":9999", cfg.Addr)
	require.Equal(t, filepath.Join(dir, "recorss.db"), cfg.DBPath)
	require.Equal(t, filepath.Join(dir, "files"), cfg.OutputDir)
	require.Equal(t, int64(7), cfg.NodeID)
	require.Len(t, cfg.Pipeline.Feeds, 2)
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("RECORSS_CONFIG", filepath.Join(t.TempDir(), "missing.yml"))
	_, err := config.Load()
	require.Error(t, err)
	require.Contains(t, err.Error(), "read config")
}
