package repository_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"recorss/internal/model"
	"recorss/internal/repository"
	"recorss/internal/repository/testutil"

	"github.com/stretchr/testify/require"
)

func TestItemRepository_InsertAndGet(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewItemRepository(db)
	ctx := context.Background()

	created, inserted, err := repo.Insert(ctx, model.Item{
		FeedSource:  "https://example.com/rss",
		Title:       "Hello",
		Link:        "https://example.com/hello",
		Verdict:     model.LabelPositive,
		Description: "desc",
		Comments:    "https://example.com/hello#comments",
	})
	require.NoError(t, err)
	require.True(t, inserted)
	require.NotZero(t, created.ID)

	fetched, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "Hello", fetched.Title)
	require.Equal(t, model.LabelPositive, fetched.Verdict)
	require.Nil(t, fetched.UserLabel)
	require.Equal(t, "https://example.com/hello#comments", fetched.Comments)
	require.WithinDuration(t, time.Now(), fetched.CreatedAt, time.Minute)
}

func TestItemRepository_InsertDuplicateIsSkipped(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewItemRepository(db)
	ctx := context.Background()

	first, inserted, err := repo.Insert(ctx, model.Item{FeedSource: "f", Title: "Same", Verdict: model.LabelNegative})
	require.NoError(t, err)
	require.True(t, inserted)

	_, inserted, err = repo.Insert(ctx, model.Item{FeedSource: "f", Title: "Same", Verdict: model.LabelPositive})
	require.NoError(t, err)
	require.False(t, inserted)

	// Verdict of the existing row is never recomputed.
	fetched, err := repo.GetByID(ctx, first.ID)
	require.NoError(t, err)
	require.Equal(t, model.LabelNegative, fetched.Verdict)

	// Same title in another feed is a different item.
	_, inserted, err = repo.Insert(ctx, model.Item{FeedSource: "g", Title: "Same"})
	require.NoError(t, err)
	require.True(t, inserted)
}

func TestItemRepository_Exists(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewItemRepository(db)
	ctx := context.Background()

	testutil.SeedItem(t, db, model.Item{FeedSource: "f", Title: "A"})

	ok, err := repo.Exists(ctx, "f", "A")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = repo.Exists(ctx, "g", "A")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestItemRepository_ListRecent(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewItemRepository(db)
	ctx := context.Background()

	now := time.Now()
	testutil.SeedItem(t, db, model.Item{FeedSource: "f", Title: "old", Verdict: model.LabelPositive, CreatedAt: now.Add(-30 * 24 * time.Hour)})
	testutil.SeedItem(t, db, model.Item{FeedSource: "f", Title: "p2", Verdict: model.LabelPositive, CreatedAt: now.Add(-time.Hour)})
	testutil.SeedItem(t, db, model.Item{FeedSource: "f", Title: "n1", Verdict: model.LabelNegative, CreatedAt: now.Add(-2 * time.Hour)})
	testutil.SeedItem(t, db, model.Item{FeedSource: "f", Title: "p1", Verdict: model.LabelPositive, CreatedAt: now.Add(-3 * time.Hour)})
	testutil.SeedItem(t, db, model.Item{FeedSource: "other", Title: "x", Verdict: model.LabelPositive, CreatedAt: now})

	since := now.Add(-14 * 24 * time.Hour)

	items, err := repo.ListRecent(ctx, "f", since, []model.Label{model.LabelPositive})
	require.NoError(t, err)
	require.Len(t, items, 2)
	require.Equal(t, "p1", items[0].Title)
	require.Equal(t, "p2", items[1].Title)

	items, err = repo.ListRecent(ctx, "f", since, nil)
	require.NoError(t, err)
	require.Len(t, items, 3)
	require.Equal(t, []string{"p1", "n1", "p2"}, titles(items))
}

func TestItemRepository_ListSameInstantOrdersByID(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewItemRepository(db)
	ctx := context.Background()

	at := time.Now()
	testutil.SeedItem(t, db, model.Item{ID: 30, FeedSource: "f", Title: "c", CreatedAt: at})
	testutil.SeedItem(t, db, model.Item{ID: 10, FeedSource: "f", Title: "a", CreatedAt: at})
	testutil.SeedItem(t, db, model.Item{ID: 20, FeedSource: "f", Title: "b", CreatedAt: at})

	items, err := repo.ListRecent(ctx, "f", at.Add(-time.Second), nil)
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b", "c"}, titles(items))

	items, err = repo.List(ctx, repository.ItemListFilter{NewestFirst: true, Limit: 2})
	require.NoError(t, err)
	require.Equal(t, []string{"c", "b"}, titles(items))
}

func TestItemRepository_UpdateUserLabel(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := repository.NewItemRepository(db)
	ctx := context.Background()

	id := testutil.SeedItem(t, db, model.Item{FeedSource: "f", Title: "A", Verdict: model.LabelNegative})

	require.NoError(t, repo.UpdateUserLabel(ctx, id, model.LabelPositive))
	fetched, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, fetched.UserLabel)
	require.Equal(t, model.LabelPositive, *fetched.UserLabel)
	require.Equal(t, model.LabelNegative, fetched.Verdict)

	err = repo.UpdateUserLabel(ctx, id+1, model.LabelPositive)
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestTransactor_RollbackOnError(t *testing.T) {
	db := testutil.NewTestDB(t)
	tx := repository.NewTransactor(db)
	ctx := context.Background()
	boom := errors.New("boom")

	err := tx.WithinTx(ctx, func(items repository.ItemRepository) error {
		_, _, err := items.Insert(ctx, model.Item{FeedSource: "f", Title: "A"})
		require.NoError(t, err)
		return boom
	})
	require.ErrorIs(t, err, boom)
	require.Equal(t, 0, testutil.CountItems(t, db, "f"))

	err = tx.WithinTx(ctx, func(items repository.ItemRepository) error {
		_, _, err := items.Insert(ctx, model.Item{FeedSource: "f", Title: "A"})
		return err
	})
	require.NoError(t, err)
	require.Equal(t, 1, testutil.CountItems(t, db, "f"))
}

func titles(items []model.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Title)
	}
	return out
}
