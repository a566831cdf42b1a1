package service

import (
	"context"

	"recorss/internal/model"
)

// ExistsFunc reports whether (title, feedSource) is already stored.
type ExistsFunc func(ctx context.Context, feedSource, title string) (bool, error)

// Dedup drops repeated titles within the batch (keeping the first, since some
// feeds double-post) and titles already stored for this feed. Order is preserved.
//
// The check is not atomic with the later insert. Passes over one feed are
// serialized by the refresh service and the writer re-checks inside its transaction.
func Dedup(ctx context.Context, entries []model.Entry, source model.FeedSource, exists ExistsFunc) ([]model.Entry, error) {
	seen := make(map[string]struct{}, len(entries))
	fresh := make([]model.Entry, 0, len(entries))
	for _, e := range entries {
		if _, dup := seen[e.Title]; dup {
			continue
		}
		seen[e.Title] = struct{}{}

		stored, err := exists(ctx, source.Key(), e.Title)
		if err != nil {
			return nil, &PersistenceError{Op: "dedup lookup", Err: err}
		}
		if stored {
			continue
		}
		fresh = append(fresh, e)
	}
	return fresh, nil
}
