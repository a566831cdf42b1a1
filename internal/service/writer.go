package service

import (
	"context"
	"errors"
	"strings"

	"recorss/internal/model"
	"recorss/internal/repository"
)

type CommitStatus string

const (
	CommitInserted  CommitStatus = "inserted"
	CommitDuplicate CommitStatus = "duplicate"
)

// CommitOutcome records what happened to one scored entry. Item is set only
// when Status is CommitInserted.
type CommitOutcome struct {
	Entry  model.ScoredEntry
	Item   model.Item
	Status CommitStatus
}

// Writer persists one feed pass in a single transaction.
type Writer struct {
	tx repository.Transactor
}

func NewWriter(tx repository.Transactor) *Writer {
	return &Writer{tx: tx}
}

// Commit inserts every entry not already stored for source. Duplicates are
// reported and skipped. Any other storage error rolls back the whole batch and
// is returned as *PersistenceError.
func (w *Writer) Commit(ctx context.Context, source model.FeedSource, scored []model.ScoredEntry) ([]CommitOutcome, error) {
	if len(scored) == 0 {
		return nil, nil
	}

	var outcomes []CommitOutcome
	err := w.tx.WithinTx(ctx, func(items repository.ItemRepository) error {
		outcomes = make([]CommitOutcome, 0, len(scored))
		for _, s := range scored {
			exists, err := items.Exists(ctx, source.Key(), s.Title)
			if err != nil {
				return &PersistenceError{Op: "exists", Err: err}
			}
			if exists {
				outcomes = append(outcomes, CommitOutcome{Entry: s, Status: CommitDuplicate})
				continue
			}

			created, inserted, err := items.Insert(ctx, itemFromEntry(source, s))
			if err != nil {
				return &PersistenceError{Op: "insert", Err: err}
			}
			if !inserted {
				outcomes = append(outcomes, CommitOutcome{Entry: s, Status: CommitDuplicate})
				continue
			}
			outcomes = append(outcomes, CommitOutcome{Entry: s, Item: created, Status: CommitInserted})
		}
		return nil
	})
	if err != nil {
		var pe *PersistenceError
		if !errors.As(err, &pe) {
			err = &PersistenceError{Op: "commit", Err: err}
		}
		return nil, err
	}
	return outcomes, nil
}

// InsertedItems returns the items created by a commit, in input order.
func InsertedItems(outcomes []CommitOutcome) []model.Item {
	var items []model.Item
	for _, o := range outcomes {
		if o.Status == CommitInserted {
			items = append(items, o.Item)
		}
	}
	return items
}

func itemFromEntry(source model.FeedSource, s model.ScoredEntry) model.Item {
	src := s.Source
	if src == "" {
		src = feedHost(source.URL)
	}
	return model.Item{
		FeedSource:  source.Key(),
		Title:       s.Title,
		Link:        s.Link,
		Verdict:     s.Verdict,
		Description: s.Description,
		Author:      s.Author,
		Category:    s.Category,
		Comments:    s.Comments,
		Enclosure:   s.Enclosure,
		GUID:        s.GUID,
		PubDate:     s.PubDate,
		Source:      src,
	}
}

// feedHost strips the scheme from a feed URL.
func feedHost(feedURL string) string {
	if _, rest, ok := strings.Cut(feedURL, "//"); ok {
		return rest
	}
	return feedURL
}
