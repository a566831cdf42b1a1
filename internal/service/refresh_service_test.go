package service_test

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/mmcdole/gofeed"
	"github.com/stretchr/testify/require"

	"recorss/internal/config"
	"recorss/internal/model"
	"recorss/internal/repository"
	"recorss/internal/repository/testutil"
	"recorss/internal/service"
	"recorss/internal/service/classifier"
)

type pipelineFixture struct {
	db   *sql.DB
	repo repository.ItemRepository
	svc  service.RefreshService
	out  string
}

func newPipeline(t *testing.T, pipeline config.Pipeline, bodies map[string]string, classifiers ...classifier.Classifier) *pipelineFixture {
	t.Helper()
	db := testutil.NewTestDB(t)
	repo := repository.NewItemRepository(db)
	out := t.TempDir()

	if pipeline.Host == "" {
		pipeline.Host = "http://reco.local"
	}
	if pipeline.Workers == 0 {
		pipeline.Workers = 2
	}

	svc := service.NewRefreshService(
		pipeline,
		service.NewFetcher(feedServer(bodies), time.Second),
		repo,
		service.NewEnsemble(classifiers, time.Second),
		service.NewWriter(repository.NewTransactor(db)),
		service.NewPublisher(repo, out, pipeline.Host, pipeline.PublishWindow),
	)
	return &pipelineFixture{db: db, repo: repo, svc: svc, out: out}
}

func (f *pipelineFixture) items(t *testing.T, feedURL string) map[string]model.Label {
	t.Helper()
	items, err := f.repo.List(context.Background(), repository.ItemListFilter{FeedSource: &feedURL})
	require.NoError(t, err)
	out := make(map[string]model.Label, len(items))
	for _, it := range items {
		out[it.Title] = it.Verdict
	}
	return out
}

func (f *pipelineFixture) published(t *testing.T, directory string) (*gofeed.Feed, []byte) {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join(f.out, directory, service.FeedFileName))
	require.NoError(t, err)
	feed, err := gofeed.NewParser().ParseString(string(raw))
	require.NoError(t, err)
	return feed, raw
}

const feedA = "https://a.example.com/rss"

func TestRefresh_SingleAgreedEntryIsPublished(t *testing.T) {
	c1 := &stubClassifier{name: "c1", weight: 1, votes: map[string]float64{"A": 1}}
	c2 := &stubClassifier{name: "c2", weight: 1, votes: map[string]float64{"A": 1}}
	f := newPipeline(t,
		config.Pipeline{Quorum: 2, Feeds: []config.FeedConfig{{URL: feedA, Directory: "a"}}},
		map[string]string{feedA: rssFeed("A", "B", "C")},
		c1, c2,
	)

	report, err := f.svc.RefreshAll(context.Background())
	require.NoError(t, err)
	require.NotEmpty(t, report.RunID)
	require.Len(t, report.Feeds, 1)
	require.True(t, report.Feeds[0].OK())
	require.Equal(t, 3, report.Feeds[0].Inserted)
	require.Equal(t, 1, report.Feeds[0].Positive)

	require.Equal(t, map[string]model.Label{
		"A": model.LabelPositive,
		"B": model.LabelNegative,
		"C": model.LabelNegative,
	}, f.items(t, feedA))

	feed, _ := f.published(t, "a")
	require.Equal(t, "Test Feed", feed.Title)
	require.Len(t, feed.Items, 1)
	require.Equal(t, service.PositiveMarker+"A", feed.Items[0].Title)
}

func TestRefresh_SecondRunIsIdempotent(t *testing.T) {
	c := &stubClassifier{name: "c", weight: 2, votes: map[string]float64{"A": 1, "C": 1}}
	f := newPipeline(t,
		config.Pipeline{Quorum: 2, Feeds: []config.FeedConfig{{URL: feedA, Directory: "a"}}},
		map[string]string{feedA: rssFeed("A", "B", "C")},
		c,
	)

	first, err := f.svc.RefreshAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, first.Feeds[0].Inserted)
	_, before := f.published(t, "a")

	second, err := f.svc.RefreshAll(context.Background())
	require.NoError(t, err)
	require.True(t, second.Feeds[0].OK())
	require.Equal(t, 0, second.Feeds[0].New)
	require.Equal(t, 0, second.Feeds[0].Inserted)
	require.Equal(t, 1, c.Calls())
	require.Equal(t, 3, testutil.CountItems(t, f.db, feedA))

	_, after := f.published(t, "a")
	require.Equal(t, before, after)
}

func TestRefresh_FeedQuorumOverride(t *testing.T) {
	const feedB = "https://b.example.com/rss"
	c := &stubClassifier{name: "c", weight: 1, votes: map[string]float64{"X": 1}}
	f := newPipeline(t,
		config.Pipeline{Quorum: 2, Feeds: []config.FeedConfig{
			{URL: feedA, Directory: "a", Quorum: intPtr(1)},
			{URL: feedB, Directory: "b"},
		}},
		map[string]string{feedA: rssFeed("X"), feedB: rssFeed("X")},
		c,
	)

	_, err := f.svc.RefreshAll(context.Background())
	require.NoError(t, err)
	require.Equal(t, model.LabelPositive, f.items(t, feedA)["X"])
	require.Equal(t, model.LabelNegative, f.items(t, feedB)["X"])
}

func TestRefresh_FailingFeedDoesNotStopOthers(t *testing.T) {
	const (
		feedB    = "https://b.example.com/rss"
		feedDown = "https://down.example.com/rss"
	)
	c := &stubClassifier{name: "flaky", weight: 1, failOn: "boom", votes: map[string]float64{"X": 1}}
	f := newPipeline(t,
		config.Pipeline{Quorum: 1, Feeds: []config.FeedConfig{
			{URL: feedA, Directory: "a"},
			{URL: feedB, Directory: "b"},
			{URL: feedDown, Directory: "down"},
		}},
		map[string]string{feedA: rssFeed("ok", "boom"), feedB: rssFeed("X")},
		c,
	)

	report, err := f.svc.RefreshAll(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Feeds, 3)

	require.False(t, report.Feeds[0].OK())
	require.Equal(t, "classify", report.Feeds[0].Stage)
	require.ErrorIs(t, report.Feeds[0].Err, service.ErrClassifier)
	require.Equal(t, 0, testutil.CountItems(t, f.db, feedA))
	_, statErr := os.Stat(filepath.Join(f.out, "a", service.FeedFileName))
	require.True(t, os.IsNotExist(statErr))

	require.True(t, report.Feeds[1].OK())
	require.Equal(t, 1, testutil.CountItems(t, f.db, feedB))
	feed, _ := f.published(t, "b")
	require.Len(t, feed.Items, 1)

	require.Equal(t, "fetch", report.Feeds[2].Stage)
	require.ErrorIs(t, report.Feeds[2].Err, service.ErrFetch)

	require.Len(t, report.Failed(), 2)
}

type gateClassifier struct {
	stubClassifier
	started chan struct{}
	release chan struct{}
	once    sync.Once
}

func (c *gateClassifier) Run(ctx context.Context, entries []model.Entry) ([]float64, error) {
	c.once.Do(func() { close(c.started) })
	<-c.release
	return make([]float64, len(entries)), nil
}

func TestRefresh_RejectsConcurrentPass(t *testing.T) {
	gate := &gateClassifier{
		stubClassifier: stubClassifier{name: "gate", weight: 1},
		started:        make(chan struct{}),
		release:        make(chan struct{}),
	}
	f := newPipeline(t,
		config.Pipeline{Quorum: 1, Feeds: []config.FeedConfig{{URL: feedA, Directory: "a"}}},
		map[string]string{feedA: rssFeed("A")},
		gate,
	)

	done := make(chan error, 1)
	go func() {
		_, err := f.svc.RefreshAll(context.Background())
		done <- err
	}()

	<-gate.started
	require.True(t, f.svc.IsRefreshing())
	_, err := f.svc.RefreshAll(context.Background())
	require.ErrorIs(t, err, service.ErrAlreadyRefreshing)

	close(gate.release)
	require.NoError(t, <-done)
	require.False(t, f.svc.IsRefreshing())
}

func TestRefreshFeed_SameFeedIsSerialized(t *testing.T) {
	c := &stubClassifier{name: "c", weight: 1}
	f := newPipeline(t,
		config.Pipeline{Quorum: 1, Feeds: []config.FeedConfig{{URL: feedA, Directory: "a"}}},
		map[string]string{feedA: rssFeed("A", "B", "C")},
		c,
	)
	source := f.svc.Sources()[0]

	var wg sync.WaitGroup
	results := make([]service.FeedResult, 4)
	for i := range results {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = f.svc.RefreshFeed(context.Background(), source)
		}()
	}
	wg.Wait()

	inserted := 0
	for _, r := range results {
		require.NoError(t, r.Err)
		inserted += r.Inserted
	}
	require.Equal(t, 3, inserted)
	require.Equal(t, 3, testutil.CountItems(t, f.db, feedA))
}
