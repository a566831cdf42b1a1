// Package testutil opens throwaway databases for repository and service tests.
package testutil

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"recorss/internal/db"
	"recorss/internal/model"
	"recorss/internal/snowflake"
)

// NewTestDB opens a migrated SQLite database in a temp dir that is closed with the test.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()
	require.NoError(t, snowflake.Init(1))

	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	return database
}

// SeedItem inserts an item directly and returns its ID. Zero CreatedAt means now.
func SeedItem(t *testing.T, database *sql.DB, item model.Item) int64 {
	t.Helper()
	if item.ID == 0 {
		item.ID = snowflake.NextID()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now()
	}
	if item.Title == "" {
		item.Title = "No title"
	}
	created := item.CreatedAt.UTC().Format("2006-01-02T15:04:05.000000000Z07:00")

	var userLabel any
	if item.UserLabel != nil {
		userLabel = int(*item.UserLabel)
	}
	_, err := database.Exec(
		`INSERT INTO items (id, feed_source, title, link, verdict, user_label, description, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ID, item.FeedSource, item.Title, item.Link, int(item.Verdict), userLabel, item.Description, created, created,
	)
	require.NoError(t, err)
	return item.ID
}

// CountItems returns the number of rows stored for a feed source.
func CountItems(t *testing.T, database *sql.DB, feedSource string) int {
	t.Helper()
	var n int
	require.NoError(t, database.QueryRow(`SELECT COUNT(*) FROM items WHERE feed_source = ?`, feedSource).Scan(&n))
	return n
}
