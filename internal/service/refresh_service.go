package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"recorss/internal/config"
	"recorss/internal/logger"
	"recorss/internal/metrics"
	"recorss/internal/model"
	"recorss/internal/repository"
)

// FeedResult summarizes one feed pass. Err is nil on success; Stage names the
// stage that failed.
type FeedResult struct {
	Feed       string
	Directory  string
	Fetched    int
	New        int
	Inserted   int
	Duplicates int
	Positive   int
	Path       string
	Stage      string
	Err        error
}

func (r FeedResult) OK() bool { return r.Err == nil }

// PassReport lists feed results in configuration order.
type PassReport struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Feeds      []FeedResult
}

// Failed returns the results of feeds whose pass was aborted.
func (p PassReport) Failed() []FeedResult {
	var failed []FeedResult
	for _, r := range p.Feeds {
		if !r.OK() {
			failed = append(failed, r)
		}
	}
	return failed
}

type RefreshService interface {
	// RefreshAll runs one pass over every configured feed. A failing feed does
	// not stop the others; its error is recorded in the report.
	RefreshAll(ctx context.Context) (PassReport, error)
	RefreshFeed(ctx context.Context, source model.FeedSource) FeedResult
	IsRefreshing() bool
	Sources() []model.FeedSource
}

type refreshService struct {
	sources   []model.FeedSource
	quorum    int
	workers   int
	fetcher   Fetcher
	items     repository.ItemRepository
	ensemble  *Ensemble
	writer    *Writer
	publisher *Publisher

	feedLocks    keyedMutex
	mu           sync.Mutex
	isRefreshing bool
}

func NewRefreshService(
	pipeline config.Pipeline,
	fetcher Fetcher,
	items repository.ItemRepository,
	ensemble *Ensemble,
	writer *Writer,
	publisher *Publisher,
) RefreshService {
	workers := pipeline.Workers
	if workers <= 0 {
		workers = config.DefaultWorkers
	}
	return &refreshService{
		sources:   pipeline.Sources(),
		quorum:    pipeline.Quorum,
		workers:   workers,
		fetcher:   fetcher,
		items:     items,
		ensemble:  ensemble,
		writer:    writer,
		publisher: publisher,
	}
}

func (s *refreshService) Sources() []model.FeedSource {
	return s.sources
}

func (s *refreshService) RefreshAll(ctx context.Context) (PassReport, error) {
	s.mu.Lock()
	if s.isRefreshing {
		s.mu.Unlock()
		return PassReport{}, ErrAlreadyRefreshing
	}
	s.isRefreshing = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isRefreshing = false
		s.mu.Unlock()
	}()

	report := PassReport{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
		Feeds:     make([]FeedResult, len(s.sources)),
	}
	logger.Info("refresh pass started", "module", "service", "action", "refresh", "resource", "pass", "result", "started", "run_id", report.RunID, "feeds", len(s.sources))

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i, source := range s.sources {
		i, source := i, source
		g.Go(func() error {
			report.Feeds[i] = s.refreshFeed(ctx, report.RunID, source)
			return nil
		})
	}
	_ = g.Wait()

	report.FinishedAt = time.Now()
	metrics.RecordPass(report.FinishedAt.Sub(report.StartedAt).Seconds(), report.FinishedAt.Unix())

	failed := len(report.Failed())
	result := "ok"
	if failed > 0 {
		result = "partial"
	}
	logger.Info("refresh pass finished", "module", "service", "action", "refresh", "resource", "pass", "result", result, "run_id", report.RunID, "feeds", len(s.sources), "failed", failed, "duration", report.FinishedAt.Sub(report.StartedAt))

	return report, ctx.Err()
}

func (s *refreshService) IsRefreshing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRefreshing
}

func (s *refreshService) RefreshFeed(ctx context.Context, source model.FeedSource) FeedResult {
	return s.refreshFeed(ctx, uuid.NewString(), source)
}

func (s *refreshService) refreshFeed(ctx context.Context, runID string, source model.FeedSource) FeedResult {
	unlock := s.feedLocks.Lock(source.Key())
	defer unlock()

	start := time.Now()
	result := FeedResult{Feed: source.URL, Directory: source.Directory}
	if err := s.runPipeline(ctx, source, &result); err != nil {
		result.Err = err
		result.Stage = stageOf(err)
		logger.Error("feed refresh failed", "module", "service", "action", "refresh", "resource", "feed", "result", "failed", "run_id", runID, "feed", source.URL, "stage", result.Stage, "error", err)
	} else {
		logger.Info("feed refreshed", "module", "service", "action", "refresh", "resource", "feed", "result", "ok", "run_id", runID, "feed", source.URL, "fetched", result.Fetched, "new", result.Inserted, "positive", result.Positive, "duplicates", result.Duplicates)
	}
	metrics.RecordFeedPass(source.Directory, result.Stage, result.OK(), time.Since(start).Seconds())
	return result
}

// runPipeline is fetch, normalize, dedup, classify, decide, persist, publish.
// It stops at the first failing stage.
func (s *refreshService) runPipeline(ctx context.Context, source model.FeedSource, result *FeedResult) error {
	parsed, err := s.fetcher.Fetch(ctx, source.URL)
	if err != nil {
		return err
	}
	channel := NormalizeChannel(parsed)
	entries := NormalizeItems(parsed.Items)
	result.Fetched = len(entries)

	fresh, err := Dedup(ctx, entries, source, s.items.Exists)
	if err != nil {
		return err
	}
	result.New = len(fresh)

	if len(fresh) > 0 {
		totals, err := s.ensemble.Score(ctx, fresh)
		if err != nil {
			return err
		}
		scored := DecideAll(fresh, totals, ResolveQuorum(source, s.quorum))

		outcomes, err := s.writer.Commit(ctx, source, scored)
		if err != nil {
			return err
		}
		negative := 0
		for _, o := range outcomes {
			switch {
			case o.Status == CommitDuplicate:
				result.Duplicates++
			case o.Item.Verdict == model.LabelPositive:
				result.Inserted++
				result.Positive++
			default:
				result.Inserted++
				negative++
			}
		}
		metrics.RecordItems(source.Directory, result.Positive, negative, result.Fetched-result.Inserted)
	}

	path, err := s.publisher.Publish(ctx, channel, source)
	if err != nil {
		return err
	}
	result.Path = path
	return nil
}

// keyedMutex serializes work per key. Entries are never removed; the key set
// is the configured feed list.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	if k.locks == nil {
		k.locks = make(map[string]*sync.Mutex)
	}
	m, ok := k.locks[key]
	if !ok {
		m = &sync.Mutex{}
		k.locks[key] = m
	}
	k.mu.Unlock()

	m.Lock()
	return m.Unlock
}
