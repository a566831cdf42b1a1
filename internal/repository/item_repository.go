package repository

import (
	"context"
	"database/sql"
	"time"

	sq "github.com/Masterminds/squirrel"

	"recorss/internal/model"
	"recorss/internal/snowflake"
)

//go:generate mockgen -destination=mock/mock_item_repository.go -package=mock recorss/internal/repository ItemRepository,Transactor

type ItemListFilter struct {
	FeedSource  *string
	Since       *time.Time
	Verdicts    []model.Label
	NewestFirst bool
	Limit       int
}

type ItemRepository interface {
	Exists(ctx context.Context, feedSource, title string) (bool, error)
	// Insert assigns ID and timestamps. inserted is false when (feedSource, title)
	// already exists; the existing row is left untouched.
	Insert(ctx context.Context, item model.Item) (created model.Item, inserted bool, err error)
	GetByID(ctx context.Context, id int64) (model.Item, error)
	// ListRecent returns items of one feed created at or after since, oldest first.
	// An empty verdicts slice means any verdict.
	ListRecent(ctx context.Context, feedSource string, since time.Time, verdicts []model.Label) ([]model.Item, error)
	List(ctx context.Context, filter ItemListFilter) ([]model.Item, error)
	UpdateUserLabel(ctx context.Context, id int64, label model.Label) error
}

var itemColumns = []string{
	"id", "feed_source", "title", "link", "verdict", "user_label", "description", "author",
	"category", "comments", "enclosure", "guid", "pub_date", "source", "created_at", "updated_at",
}

type itemRepository struct {
	db dbtx
}

func NewItemRepository(db dbtx) ItemRepository {
	return &itemRepository{db: db}
}

func (r *itemRepository) Exists(ctx context.Context, feedSource, title string) (bool, error) {
	var count int
	err := r.db.QueryRowContext(
		ctx,
		`SELECT COUNT(*) FROM items WHERE feed_source = ? AND title = ?`,
		feedSource,
		title,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *itemRepository) Insert(ctx context.Context, item model.Item) (model.Item, bool, error) {
	item.ID = snowflake.NextID()
	now := time.Now().UTC()
	item.CreatedAt = now
	item.UpdatedAt = now

	var userLabel any
	if item.UserLabel != nil {
		userLabel = int(*item.UserLabel)
	}

	res, err := r.db.ExecContext(
		ctx,
		`INSERT INTO items (id, feed_source, title, link, verdict, user_label, description, author,
		   category, comments, enclosure, guid, pub_date, source, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(feed_source, title) DO NOTHING`,
		item.ID,
		item.FeedSource,
		item.Title,
		item.Link,
		int(item.Verdict),
		userLabel,
		item.Description,
		item.Author,
		item.Category,
		item.Comments,
		item.Enclosure,
		item.GUID,
		item.PubDate,
		item.Source,
		formatTime(now),
		formatTime(now),
	)
	if err != nil {
		return model.Item{}, false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return model.Item{}, false, err
	}
	if affected == 0 {
		return model.Item{}, false, nil
	}
	return item, true, nil
}

func (r *itemRepository) GetByID(ctx context.Context, id int64) (model.Item, error) {
	query, args, err := sq.Select(itemColumns...).From("items").Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return model.Item{}, err
	}
	return scanItem(r.db.QueryRowContext(ctx, query, args...))
}

func (r *itemRepository) ListRecent(ctx context.Context, feedSource string, since time.Time, verdicts []model.Label) ([]model.Item, error) {
	return r.List(ctx, ItemListFilter{
		FeedSource: &feedSource,
		Since:      &since,
		Verdicts:   verdicts,
	})
}

func (r *itemRepository) List(ctx context.Context, filter ItemListFilter) ([]model.Item, error) {
	q := sq.Select(itemColumns...).From("items")

	if filter.FeedSource != nil {
		q = q.Where(sq.Eq{"feed_source": *filter.FeedSource})
	}
	if filter.Since != nil {
		q = q.Where(sq.GtOrEq{"created_at": formatTime(*filter.Since)})
	}
	if len(filter.Verdicts) > 0 {
		verdicts := make([]int, 0, len(filter.Verdicts))
		for _, v := range filter.Verdicts {
			verdicts = append(verdicts, int(v))
		}
		q = q.Where(sq.Eq{"verdict": verdicts})
	}

	if filter.NewestFirst {
		q = q.OrderBy("created_at DESC", "id DESC")
	} else {
		q = q.OrderBy("created_at ASC", "id ASC")
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func (r *itemRepository) UpdateUserLabel(ctx context.Context, id int64, label model.Label) error {
	res, err := r.db.ExecContext(
		ctx,
		`UPDATE items SET user_label = ?, updated_at = ? WHERE id = ?`,
		int(label),
		formatTime(time.Now()),
		id,
	)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (model.Item, error) {
	var it model.Item
	var verdict int
	var userLabel sql.NullInt64
	var createdAt, updatedAt string

	err := row.Scan(
		&it.ID, &it.FeedSource, &it.Title, &it.Link, &verdict, &userLabel, &it.Description, &it.Author,
		&it.Category, &it.Comments, &it.Enclosure, &it.GUID, &it.PubDate, &it.Source, &createdAt, &updatedAt,
	)
	if err != nil {
		return model.Item{}, err
	}

	it.Verdict = model.Label(verdict)
	if userLabel.Valid {
		label := model.Label(userLabel.Int64)
		it.UserLabel = &label
	}
	it.CreatedAt, _ = parseTime(createdAt)
	it.UpdatedAt, _ = parseTime(updatedAt)

	return it, nil
}
